package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/role"
)

type staticTokens struct {
	current  atomic.Value
	refreshs atomic.Int32
}

func newStaticTokens(initial string) *staticTokens {
	s := &staticTokens{}
	s.current.Store(initial)
	return s
}

func (s *staticTokens) IDToken(context.Context) (string, error) {
	return s.current.Load().(string), nil
}

func (s *staticTokens) ForceRefresh(context.Context) (string, error) {
	s.refreshs.Add(1)
	s.current.Store("fresh-token")
	return "fresh-token", nil
}

func TestVerifySendsBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("authorization header = %q", got)
		}
		_ = json.NewEncoder(w).Encode(VerifyResponse{UID: "u1", Email: "p@x.com", Role: role.Police})
	}))
	defer srv.Close()

	client, err := New(srv.URL, newStaticTokens("tok-1"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	resp, err := client.Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if resp.Role != role.Police || resp.UID != "u1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestVerifyRetriesOnceAfter401(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer fresh-token" {
			t.Errorf("retry did not carry refreshed token: %q", got)
		}
		_ = json.NewEncoder(w).Encode(VerifyResponse{UID: "u1", Role: role.Citizen})
	}))
	defer srv.Close()

	tokens := newStaticTokens("stale-token")
	client, err := New(srv.URL, tokens)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.Verify(context.Background()); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
	if got := tokens.refreshs.Load(); got != 1 {
		t.Fatalf("expected 1 forced refresh, got %d", got)
	}
}

func TestVerifyGivesUpAfterSecond401(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := New(srv.URL, newStaticTokens("tok"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.Verify(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected exactly 2 calls (no further retry), got %d", got)
	}
}

func TestRegisterSurfacesBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "uid is required"})
	}))
	defer srv.Close()

	client, err := New(srv.URL, newStaticTokens("tok"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.Register(context.Background(), RegisterRequest{})
	if err == nil || err.Error() != "backend: uid is required (status 400)" {
		t.Fatalf("unexpected error: %v", err)
	}
}
