package session

import (
	"context"
	"sync"

	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/apiclient"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/identity"
)

// Cache is the convenience store for the current session: the persisted
// credential lets a restarted process restore its sign-in, and the last
// verify response spares the UI a round-trip. Cached values are never an
// authorization input; the manager re-verifies against the backend before
// trusting a role.
type Cache interface {
	SaveCredential(ctx context.Context, cred identity.Credential) error
	LoadCredential(ctx context.Context) (identity.Credential, bool, error)
	SaveUser(ctx context.Context, user apiclient.VerifyResponse) error
	LoadUser(ctx context.Context) (apiclient.VerifyResponse, bool, error)
	Clear(ctx context.Context) error
}

// MemoryCache keeps the session cache in process memory.
type MemoryCache struct {
	mu   sync.Mutex
	cred *identity.Credential
	user *apiclient.VerifyResponse
}

var _ Cache = (*MemoryCache)(nil)

func NewMemoryCache() *MemoryCache { return &MemoryCache{} }

func (c *MemoryCache) SaveCredential(_ context.Context, cred identity.Credential) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cred = &cred
	return nil
}

func (c *MemoryCache) LoadCredential(_ context.Context) (identity.Credential, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cred == nil {
		return identity.Credential{}, false, nil
	}
	return *c.cred, true, nil
}

func (c *MemoryCache) SaveUser(_ context.Context, user apiclient.VerifyResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = &user
	return nil
}

func (c *MemoryCache) LoadUser(_ context.Context) (apiclient.VerifyResponse, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return apiclient.VerifyResponse{}, false, nil
	}
	return *c.user, true, nil
}

func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cred = nil
	c.user = nil
	return nil
}
