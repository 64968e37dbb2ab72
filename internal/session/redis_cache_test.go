package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/apiclient"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/identity"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/role"
)

func newRedisCache(t *testing.T, name string) *RedisCache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, name)
}

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := newRedisCache(t, "alice")

	if _, ok, err := cache.LoadCredential(ctx); err != nil || ok {
		t.Fatalf("LoadCredential on empty cache: ok=%v err=%v", ok, err)
	}
	if _, ok, err := cache.LoadUser(ctx); err != nil || ok {
		t.Fatalf("LoadUser on empty cache: ok=%v err=%v", ok, err)
	}

	cred := identity.Credential{
		UID:          "u1",
		Email:        "alice@example.com",
		IDToken:      "id-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	if err := cache.SaveCredential(ctx, cred); err != nil {
		t.Fatalf("SaveCredential: %v", err)
	}
	got, ok, err := cache.LoadCredential(ctx)
	if err != nil || !ok {
		t.Fatalf("LoadCredential: ok=%v err=%v", ok, err)
	}
	if got != cred {
		t.Fatalf("credential round-trip: got %+v want %+v", got, cred)
	}

	user := apiclient.VerifyResponse{UID: "u1", Email: "alice@example.com", Role: role.Police}
	if err := cache.SaveUser(ctx, user); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	gotUser, ok, err := cache.LoadUser(ctx)
	if err != nil || !ok {
		t.Fatalf("LoadUser: ok=%v err=%v", ok, err)
	}
	if gotUser != user {
		t.Fatalf("user round-trip: got %+v want %+v", gotUser, user)
	}

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := cache.LoadCredential(ctx); ok {
		t.Fatalf("credential survived Clear")
	}
	if _, ok, _ := cache.LoadUser(ctx); ok {
		t.Fatalf("user survived Clear")
	}
}

func TestRedisCacheNamespacesByName(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	alice := NewRedisCache(client, "alice")
	bob := NewRedisCache(client, "bob")

	if err := alice.SaveCredential(ctx, identity.Credential{UID: "u1", IDToken: "t"}); err != nil {
		t.Fatalf("SaveCredential: %v", err)
	}
	if _, ok, err := bob.LoadCredential(ctx); err != nil || ok {
		t.Fatalf("bob sees alice's credential: ok=%v err=%v", ok, err)
	}
	if err := bob.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := alice.LoadCredential(ctx); !ok {
		t.Fatalf("bob's Clear removed alice's credential")
	}
}

func TestNewCacheSelectsBackend(t *testing.T) {
	c, err := NewCache("", "x")
	if err != nil {
		t.Fatalf("NewCache without addr: %v", err)
	}
	if _, ok := c.(*MemoryCache); !ok {
		t.Fatalf("NewCache without addr: got %T, want *MemoryCache", c)
	}

	srv := miniredis.RunT(t)
	c, err = NewCache(srv.Addr(), "x")
	if err != nil {
		t.Fatalf("NewCache with addr %s: %v", srv.Addr(), err)
	}
	rc, ok := c.(*RedisCache)
	if !ok {
		t.Fatalf("NewCache with addr: got %T, want *RedisCache", c)
	}
	if err := rc.SaveCredential(context.Background(), identity.Credential{UID: "u1"}); err != nil {
		t.Fatalf("SaveCredential through NewCache: %v", err)
	}

	if _, err := NewCache("127.0.0.1:1", "x"); err == nil {
		t.Fatalf("NewCache with unreachable addr: want ping error")
	}
}
