// Package session maintains the client-side identity state for one process:
// the current credential, the backend-resolved role, and the transitions
// between them. A Manager is an injectable object with an explicit
// lifecycle, so independent sessions can coexist in tests.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/apiclient"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/identity"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/obs"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/role"
)

// State is the session's authentication state. Loading is distinct from
// Unauthenticated so route guards can tell "not yet known" from "known to
// be logged out".
type State string

const (
	StateLoading         State = "LOADING"
	StateUnauthenticated State = "UNAUTHENTICATED"
	StateTokenObtained   State = "TOKEN_OBTAINED"
	StateAuthenticated   State = "AUTHENTICATED"
)

// ErrNotSignedIn is returned by token operations when no credential is held.
var ErrNotSignedIn = errors.New("session: not signed in")

// Authenticator is the identity-provider surface the manager drives.
// *identity.Service satisfies it.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (identity.Credential, error)
	SignUp(ctx context.Context, email, password string) (identity.Credential, error)
	Refresh(ctx context.Context, refreshToken string) (identity.Credential, error)
	SignOut(ctx context.Context, refreshToken string) error
}

// Backend resolves roles and registers profiles. *apiclient.Client
// satisfies it.
type Backend interface {
	Register(ctx context.Context, req apiclient.RegisterRequest) (apiclient.VerifyResponse, error)
	Verify(ctx context.Context) (apiclient.VerifyResponse, error)
}

// EventType classifies identity-provider level state changes observed out
// of band (restored sign-in, external sign-out, token expiry).
type EventType int

const (
	EventSignedIn EventType = iota
	EventSignedOut
)

// Event is one identity-provider state change.
type Event struct {
	Type       EventType
	Credential identity.Credential
}

// Snapshot is a point-in-time view of the session for authorization checks.
type Snapshot struct {
	State State
	Role  role.Role
	UID   string
}

// Manager owns the session state machine.
type Manager struct {
	auth    Authenticator
	backend Backend
	cache   Cache

	mu    sync.Mutex
	state State
	cred  *identity.Credential
	role  role.Role
	// epoch tags async role resolutions; sign-out bumps it so a resolution
	// that lands afterwards cannot resurrect session state.
	epoch uint64

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewManager builds a Manager in the Loading state. UseBackend must be
// called before Start or any operation that resolves roles.
func NewManager(auth Authenticator, cache Cache) (*Manager, error) {
	if auth == nil {
		return nil, errors.New("session: authenticator is required")
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Manager{
		auth:   auth,
		cache:  cache,
		state:  StateLoading,
		events: make(chan Event, 8),
		done:   make(chan struct{}),
	}, nil
}

// UseBackend wires the role-resolution backend. Split from the constructor
// because the backend's token source is the manager itself.
func (m *Manager) UseBackend(b Backend) { m.backend = b }

// Start restores any persisted sign-in and then consumes identity events
// until the context ends or Close is called.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	go m.run(ctx)
}

// Close stops the event listener. Safe to call more than once.
func (m *Manager) Close() {
	m.closeOnce.Do(func() { close(m.done) })
	m.wg.Wait()
}

// Notify feeds an identity-provider event into the listener.
func (m *Manager) Notify(ev Event) {
	select {
	case m.events <- ev:
	case <-m.done:
	}
}

// Snapshot returns the current session view.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{State: m.state, Role: m.role}
	if m.cred != nil {
		snap.UID = m.cred.UID
	}
	return snap
}

// SignIn authenticates, forces a token refresh so freshly set claims are
// embedded, and resolves the canonical role from the backend. Identity
// errors propagate unchanged for caller-side classification. A role
// resolution failure leaves the identity-level credential in place but the
// session is treated as unauthenticated.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	// Drop stale convenience state before a new login.
	if err := m.cache.Clear(ctx); err != nil {
		obs.LogEvent("warn", "session cache clear failed", map[string]any{"error": err.Error()})
	}
	cred, err := m.auth.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	epoch := m.setCredential(cred)

	fresh, err := m.auth.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		return err
	}
	m.swapCredential(epoch, fresh)

	_, err = m.resolveRole(ctx, epoch)
	return err
}

// SignUp creates the identity account, registers the profile with the
// declared role, and sets the local session role directly without a verify
// round-trip; the registration endpoint is the authority on which roles a
// public sign-up may claim.
func (m *Manager) SignUp(ctx context.Context, email, password, fullName, phone, address string, declared role.Role) error {
	if m.backend == nil {
		return errors.New("session: backend not configured")
	}
	cred, err := m.auth.SignUp(ctx, email, password)
	if err != nil {
		return err
	}
	epoch := m.setCredential(cred)

	registered, err := m.backend.Register(ctx, apiclient.RegisterRequest{
		UID:      cred.UID,
		FullName: fullName,
		Email:    email,
		Phone:    phone,
		Address:  address,
		Role:     string(declared),
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return nil
	}
	m.role = registered.Role
	m.state = StateAuthenticated
	if err := m.cache.SaveUser(ctx, registered); err != nil {
		obs.LogEvent("warn", "session cache write failed", map[string]any{"error": err.Error()})
	}
	if m.cred != nil {
		if err := m.cache.SaveCredential(ctx, *m.cred); err != nil {
			obs.LogEvent("warn", "session cache write failed", map[string]any{"error": err.Error()})
		}
	}
	return nil
}

// SignOut revokes the credential and clears all session state. Idempotent.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	var refreshToken string
	if m.cred != nil {
		refreshToken = m.cred.RefreshToken
	}
	m.cred = nil
	m.role = ""
	m.state = StateUnauthenticated
	m.epoch++
	m.mu.Unlock()

	if refreshToken != "" {
		if err := m.auth.SignOut(ctx, refreshToken); err != nil {
			return err
		}
	}
	return m.cache.Clear(ctx)
}

// RefreshRole re-resolves the role against the backend. A no-op without a
// credential. A result arriving after an intervening sign-out is discarded.
func (m *Manager) RefreshRole(ctx context.Context) error {
	m.mu.Lock()
	if m.cred == nil {
		m.mu.Unlock()
		return nil
	}
	epoch := m.epoch
	m.mu.Unlock()

	_, err := m.resolveRole(ctx, epoch)
	return err
}

// TokenSource -------------------------------------------------------------

// IDToken returns the currently held ID token.
func (m *Manager) IDToken(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return "", ErrNotSignedIn
	}
	return m.cred.IDToken, nil
}

// ForceRefresh re-issues the ID token so it embeds the claims currently on
// the account. The swapped-in credential is dropped if a sign-out happened
// while the refresh was in flight.
func (m *Manager) ForceRefresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.cred == nil {
		m.mu.Unlock()
		return "", ErrNotSignedIn
	}
	refreshToken := m.cred.RefreshToken
	epoch := m.epoch
	m.mu.Unlock()

	fresh, err := m.auth.Refresh(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return "", ErrNotSignedIn
	}
	m.cred = &fresh
	return fresh.IDToken, nil
}

// Internals ----------------------------------------------------------------

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	m.restore(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case ev := <-m.events:
			m.handleEvent(ctx, ev)
		}
	}
}

func (m *Manager) restore(ctx context.Context) {
	cred, ok, err := m.cache.LoadCredential(ctx)
	if err != nil {
		obs.LogEvent("warn", "session restore failed", map[string]any{"error": err.Error()})
	}
	if err != nil || !ok {
		m.mu.Lock()
		if m.state == StateLoading {
			m.state = StateUnauthenticated
		}
		m.mu.Unlock()
		return
	}
	m.handleEvent(ctx, Event{Type: EventSignedIn, Credential: cred})
}

func (m *Manager) handleEvent(ctx context.Context, ev Event) {
	switch ev.Type {
	case EventSignedIn:
		epoch := m.setCredential(ev.Credential)
		// Best-effort refresh on bootstrap: resolution still runs with the
		// held token and fails cleanly if it is unusable.
		if fresh, err := m.auth.Refresh(ctx, ev.Credential.RefreshToken); err == nil {
			m.swapCredential(epoch, fresh)
		} else {
			obs.LogEvent("warn", "bootstrap token refresh failed", map[string]any{"error": err.Error()})
		}
		if _, err := m.resolveRole(ctx, epoch); err != nil {
			obs.LogEvent("warn", "bootstrap role resolution failed", map[string]any{"error": err.Error()})
		}
	case EventSignedOut:
		m.mu.Lock()
		m.cred = nil
		m.role = ""
		m.state = StateUnauthenticated
		m.epoch++
		m.mu.Unlock()
		if err := m.cache.Clear(ctx); err != nil {
			obs.LogEvent("warn", "session cache clear failed", map[string]any{"error": err.Error()})
		}
	}
}

func (m *Manager) setCredential(cred identity.Credential) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = &cred
	m.state = StateTokenObtained
	return m.epoch
}

func (m *Manager) swapCredential(epoch uint64, cred identity.Credential) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return
	}
	m.cred = &cred
}

// resolveRole calls the backend verify endpoint and installs the canonical
// role. The network call runs unlocked; the result is discarded when the
// session epoch moved on in the meantime.
func (m *Manager) resolveRole(ctx context.Context, epoch uint64) (apiclient.VerifyResponse, error) {
	if m.backend == nil {
		return apiclient.VerifyResponse{}, errors.New("session: backend not configured")
	}
	user, err := m.backend.Verify(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return apiclient.VerifyResponse{}, nil
	}
	if err != nil {
		m.role = ""
		m.state = StateUnauthenticated
		return apiclient.VerifyResponse{}, err
	}
	m.role = user.Role
	m.state = StateAuthenticated
	if cacheErr := m.cache.SaveUser(ctx, user); cacheErr != nil {
		obs.LogEvent("warn", "session cache write failed", map[string]any{"error": cacheErr.Error()})
	}
	if m.cred != nil {
		if cacheErr := m.cache.SaveCredential(ctx, *m.cred); cacheErr != nil {
			obs.LogEvent("warn", "session cache write failed", map[string]any{"error": cacheErr.Error()})
		}
	}
	return user, nil
}
