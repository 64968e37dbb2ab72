package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/apiclient"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/identity"
)

const defaultCacheTTL = 30 * 24 * time.Hour

// NewCache builds the session cache from configuration: a Redis-backed
// cache when addr is set, an in-process cache otherwise. The Redis
// connection is pinged before use so a misconfigured address fails at
// startup rather than on the first save.
func NewCache(addr, name string) (Cache, error) {
	if addr == "" {
		return NewMemoryCache(), nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("session: redis ping %s: %w", addr, err)
	}
	return NewRedisCache(client, name), nil
}

// RedisCache persists the session cache in Redis so a restarted client
// process can restore its sign-in.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache builds a cache for one client identity, namespaced by name.
func NewRedisCache(client *redis.Client, name string) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: "session:" + name + ":",
		ttl:    defaultCacheTTL,
	}
}

func (c *RedisCache) SaveCredential(ctx context.Context, cred identity.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("session: marshal credential: %w", err)
	}
	return c.client.Set(ctx, c.prefix+"credential", data, c.ttl).Err()
}

func (c *RedisCache) LoadCredential(ctx context.Context) (identity.Credential, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+"credential").Result()
	if errors.Is(err, redis.Nil) {
		return identity.Credential{}, false, nil
	}
	if err != nil {
		return identity.Credential{}, false, err
	}
	var cred identity.Credential
	if err := json.Unmarshal([]byte(val), &cred); err != nil {
		return identity.Credential{}, false, fmt.Errorf("session: unmarshal credential: %w", err)
	}
	return cred, true, nil
}

func (c *RedisCache) SaveUser(ctx context.Context, user apiclient.VerifyResponse) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session: marshal user: %w", err)
	}
	return c.client.Set(ctx, c.prefix+"user", data, c.ttl).Err()
}

func (c *RedisCache) LoadUser(ctx context.Context) (apiclient.VerifyResponse, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+"user").Result()
	if errors.Is(err, redis.Nil) {
		return apiclient.VerifyResponse{}, false, nil
	}
	if err != nil {
		return apiclient.VerifyResponse{}, false, err
	}
	var user apiclient.VerifyResponse
	if err := json.Unmarshal([]byte(val), &user); err != nil {
		return apiclient.VerifyResponse{}, false, fmt.Errorf("session: unmarshal user: %w", err)
	}
	return user, true, nil
}

func (c *RedisCache) Clear(ctx context.Context) error {
	return c.client.Del(ctx, c.prefix+"credential", c.prefix+"user").Err()
}
