// Package identity implements the identity backend: account records, custom
// claims, password sign-in, and issuance/verification of signed ID tokens
// with rotating refresh tokens.
package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/ids"
)

const (
	defaultIssuer     = "crimenet"
	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 30 * 24 * time.Hour

	minPasswordLength = 6
)

// Service provides account management and token issuance on top of a Store.
type Service struct {
	store Store
	now   func() time.Time

	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration

	// Per-email sign-in throttle.
	signInRate  rate.Limit
	signInBurst int
	limiterMu   sync.Mutex
	limiters    map[string]*rate.Limiter
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithIssuer overrides the token issuer claim.
func WithIssuer(issuer string) ServiceOption {
	return func(s *Service) error {
		if v := strings.TrimSpace(issuer); v != "" {
			s.issuer = v
		}
		return nil
	}
}

// WithAccessTTL configures ID token lifetime.
func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.accessTTL = ttl
		}
		return nil
	}
}

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
		return nil
	}
}

// WithSignInRateLimit configures the per-email sign-in throttle.
func WithSignInRateLimit(r rate.Limit, burst int) ServiceOption {
	return func(s *Service) error {
		if r > 0 && burst > 0 {
			s.signInRate = r
			s.signInBurst = burst
		}
		return nil
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewService constructs a Service. The signing secret is required.
func NewService(store Store, secret string, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("identity: store is required")
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("identity: token secret is required")
	}
	svc := &Service{
		store:       store,
		now:         time.Now,
		secret:      []byte(secret),
		issuer:      defaultIssuer,
		accessTTL:   defaultAccessTTL,
		refreshTTL:  defaultRefreshTTL,
		signInRate:  rate.Every(6 * time.Second),
		signInBurst: 10,
		limiters:    make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// SignUp creates an account for email/password and issues a credential.
func (s *Service) SignUp(ctx context.Context, email, password string) (Credential, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Credential{}, err
	}
	if len(password) < minPasswordLength {
		return Credential{}, ErrWeakPassword
	}
	if _, err := s.store.GetAccountByEmail(ctx, email); err == nil {
		return Credential{}, ErrEmailAlreadyInUse
	} else if !errors.Is(err, ErrAccountNotFound) {
		return Credential{}, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return Credential{}, err
	}
	account := &Account{
		UID:          ids.NewUID(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return Credential{}, err
	}
	return s.mintCredential(ctx, account)
}

// SignIn authenticates email/password and issues a credential.
func (s *Service) SignIn(ctx context.Context, email, password string) (Credential, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Credential{}, err
	}
	if !s.allowSignIn(email) {
		return Credential{}, ErrTooManyRequests
	}
	account, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Credential{}, ErrInvalidCredential
		}
		return Credential{}, err
	}
	if account.Disabled {
		return Credential{}, ErrInvalidCredential
	}
	if err := VerifyPassword(account.PasswordHash, password); err != nil {
		return Credential{}, ErrInvalidCredential
	}
	return s.mintCredential(ctx, account)
}

// Refresh rotates a refresh token and issues a credential whose ID token
// embeds the claims currently set on the account. This is the forced-refresh
// path: only a credential minted here is guaranteed to reflect claims
// changed after the previous issuance.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Credential, error) {
	tokenID, secret, err := splitRefreshToken(refreshToken)
	if err != nil {
		return Credential{}, ErrInvalidToken
	}
	record, err := s.store.FindRefreshToken(ctx, tokenID)
	if err != nil {
		return Credential{}, ErrInvalidToken
	}
	if record.Revoked || s.now().After(record.ExpiresAt) {
		return Credential{}, ErrInvalidToken
	}
	if !secureCompareHash(record.TokenHash, secret) {
		_ = s.store.RevokeRefreshToken(ctx, record.ID)
		return Credential{}, ErrInvalidToken
	}
	account, err := s.store.GetAccount(ctx, record.UID)
	if err != nil {
		return Credential{}, err
	}
	if account.Disabled {
		return Credential{}, ErrInvalidCredential
	}
	// Rotate: revoke old, issue new pair.
	if err := s.store.RevokeRefreshToken(ctx, record.ID); err != nil {
		return Credential{}, err
	}
	return s.mintCredential(ctx, account)
}

// SignOut revokes a refresh token. Unknown or malformed tokens are ignored
// so the operation stays idempotent.
func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	tokenID, _, err := splitRefreshToken(refreshToken)
	if err != nil {
		return nil
	}
	record, err := s.store.FindRefreshToken(ctx, tokenID)
	if err != nil {
		return nil
	}
	return s.store.RevokeRefreshToken(ctx, record.ID)
}

// Admin surface ------------------------------------------------------------

// GetAccount looks up an account by uid.
func (s *Service) GetAccount(ctx context.Context, uid string) (*Account, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, fmt.Errorf("identity: uid is required")
	}
	return s.store.GetAccount(ctx, uid)
}

// CreateAccount creates an account at a caller-chosen uid.
func (s *Service) CreateAccount(ctx context.Context, params NewAccountParams) (*Account, error) {
	params.UID = strings.TrimSpace(params.UID)
	if params.UID == "" {
		return nil, fmt.Errorf("identity: uid is required")
	}
	account := &Account{
		UID:           params.UID,
		EmailVerified: params.EmailVerified,
	}
	if params.Email != "" {
		email, err := normalizeEmail(params.Email)
		if err != nil {
			return nil, err
		}
		account.Email = email
	}
	if params.Password != "" {
		if len(params.Password) < minPasswordLength {
			return nil, ErrWeakPassword
		}
		hash, err := HashPassword(params.Password)
		if err != nil {
			return nil, err
		}
		account.PasswordHash = hash
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// UpdateAccount applies a partial mutation and returns the refreshed record.
func (s *Service) UpdateAccount(ctx context.Context, uid string, upd AccountUpdate) (*Account, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, fmt.Errorf("identity: uid is required")
	}
	if upd.Email != nil {
		email, err := normalizeEmail(*upd.Email)
		if err != nil {
			return nil, err
		}
		upd.Email = &email
	}
	return s.store.UpdateAccount(ctx, uid, upd)
}

// HashAndUpdatePassword hashes a plaintext password into an AccountUpdate.
func HashAndUpdatePassword(upd *AccountUpdate, password string) error {
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	upd.PasswordHash = &hash
	return nil
}

// SetCustomClaims replaces the account's custom claims with the given
// object. Tokens already issued keep their embedded snapshot until refreshed.
func (s *Service) SetCustomClaims(ctx context.Context, uid string, claims map[string]any) error {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return fmt.Errorf("identity: uid is required")
	}
	if claims == nil {
		claims = map[string]any{}
	}
	return s.store.SetCustomClaims(ctx, uid, claims)
}

// Internals ----------------------------------------------------------------

func (s *Service) mintCredential(ctx context.Context, account *Account) (Credential, error) {
	now := s.now()
	idToken, exp, err := s.signIDToken(account, now)
	if err != nil {
		return Credential{}, err
	}
	refreshString, record, err := s.generateRefreshToken(account.UID, now)
	if err != nil {
		return Credential{}, err
	}
	if err := s.store.CreateRefreshToken(ctx, record); err != nil {
		return Credential{}, err
	}
	return Credential{
		UID:          account.UID,
		Email:        account.Email,
		IDToken:      idToken,
		RefreshToken: refreshString,
		ExpiresAt:    exp,
	}, nil
}

func (s *Service) generateRefreshToken(uid string, now time.Time) (string, *RefreshToken, error) {
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", nil, err
	}
	secret := base64.RawURLEncoding.EncodeToString(secretBytes)
	tokenID := ids.New()
	sum := sha256.Sum256([]byte(secret))
	record := &RefreshToken{
		ID:        tokenID,
		UID:       uid,
		TokenHash: hex.EncodeToString(sum[:]),
		ExpiresAt: now.Add(s.refreshTTL),
	}
	return tokenID + "." + secret, record, nil
}

func (s *Service) allowSignIn(email string) bool {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()
	lim, ok := s.limiters[email]
	if !ok {
		lim = rate.NewLimiter(s.signInRate, s.signInBurst)
		s.limiters[email] = lim
	}
	return lim.Allow()
}

func splitRefreshToken(raw string) (id, secret string, err error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.New("invalid refresh token format")
	}
	return parts[0], parts[1], nil
}

func secureCompareHash(expectedHash, secret string) bool {
	sum := sha256.Sum256([]byte(secret))
	actual := hex.EncodeToString(sum[:])
	if len(expectedHash) != len(actual) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expectedHash), []byte(actual)) == 1
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", ErrInvalidEmail
	}
	return email, nil
}
