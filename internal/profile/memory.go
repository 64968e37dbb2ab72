package profile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/role"
)

// MemoryStore is an in-memory Store used by tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]Profile),
		now:      time.Now,
	}
}

func (m *MemoryStore) Upsert(_ context.Context, upsert Upsert) (Profile, error) {
	if upsert.UID == "" {
		return Profile{}, errors.New("profile: uid is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	p, ok := m.profiles[upsert.UID]
	if !ok {
		p = Profile{UID: upsert.UID, Role: role.Default, CreatedAt: now}
	}
	if upsert.Role != nil {
		p.Role = *upsert.Role
	}
	if upsert.Email != nil {
		p.Email = *upsert.Email
	}
	if upsert.FullName != nil {
		p.FullName = *upsert.FullName
	}
	if upsert.Phone != nil {
		p.Phone = *upsert.Phone
	}
	if upsert.Address != nil {
		p.Address = *upsert.Address
	}
	p.UpdatedAt = now
	m.profiles[upsert.UID] = p
	return p, nil
}

func (m *MemoryStore) Get(_ context.Context, uid string) (Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[uid]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}
