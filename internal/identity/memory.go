package identity

import (
	"context"
	"maps"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used by tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	byEmail  map[string]string
	refresh  map[string]*RefreshToken
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*Account),
		byEmail:  make(map[string]string),
		refresh:  make(map[string]*RefreshToken),
		now:      time.Now,
	}
}

func (m *MemoryStore) CreateAccount(_ context.Context, account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.UID]; ok {
		return ErrEmailAlreadyInUse
	}
	if account.Email != "" {
		if _, ok := m.byEmail[account.Email]; ok {
			return ErrEmailAlreadyInUse
		}
	}
	now := m.now().UTC()
	clone := cloneAccount(account)
	clone.CreatedAt = now
	clone.UpdatedAt = now
	m.accounts[clone.UID] = clone
	if clone.Email != "" {
		m.byEmail[clone.Email] = clone.UID
	}
	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

func (m *MemoryStore) GetAccount(_ context.Context, uid string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	account, ok := m.accounts[uid]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return cloneAccount(account), nil
}

func (m *MemoryStore) GetAccountByEmail(_ context.Context, email string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	uid, ok := m.byEmail[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return cloneAccount(m.accounts[uid]), nil
}

func (m *MemoryStore) UpdateAccount(_ context.Context, uid string, upd AccountUpdate) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[uid]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if upd.Email != nil && *upd.Email != account.Email {
		if other, exists := m.byEmail[*upd.Email]; exists && other != uid {
			return nil, ErrEmailAlreadyInUse
		}
		delete(m.byEmail, account.Email)
		account.Email = *upd.Email
		if account.Email != "" {
			m.byEmail[account.Email] = uid
		}
	}
	if upd.PasswordHash != nil {
		account.PasswordHash = *upd.PasswordHash
	}
	if upd.EmailVerified != nil {
		account.EmailVerified = *upd.EmailVerified
	}
	if upd.Disabled != nil {
		account.Disabled = *upd.Disabled
	}
	account.UpdatedAt = m.now().UTC()
	return cloneAccount(account), nil
}

func (m *MemoryStore) SetCustomClaims(_ context.Context, uid string, claims map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[uid]
	if !ok {
		return ErrAccountNotFound
	}
	account.CustomClaims = maps.Clone(claims)
	account.UpdatedAt = m.now().UTC()
	return nil
}

func (m *MemoryStore) CreateRefreshToken(_ context.Context, tok *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *tok
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = m.now().UTC()
	}
	m.refresh[clone.ID] = &clone
	return nil
}

func (m *MemoryStore) FindRefreshToken(_ context.Context, id string) (*RefreshToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tok, ok := m.refresh[id]
	if !ok {
		return nil, ErrInvalidToken
	}
	clone := *tok
	return &clone, nil
}

func (m *MemoryStore) RevokeRefreshToken(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.refresh[id]
	if !ok {
		return ErrInvalidToken
	}
	tok.Revoked = true
	return nil
}

func (m *MemoryStore) RevokeRefreshTokensForUser(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tok := range m.refresh {
		if tok.UID == uid {
			tok.Revoked = true
		}
	}
	return nil
}

func cloneAccount(a *Account) *Account {
	clone := *a
	clone.CustomClaims = maps.Clone(a.CustomClaims)
	return &clone
}
