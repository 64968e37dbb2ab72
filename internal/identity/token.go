package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// idTokenClaims is the wire shape of a signed ID token. Custom claims are a
// snapshot of the account's claims at signing time.
type idTokenClaims struct {
	Email         string         `json:"email,omitempty"`
	EmailVerified bool           `json:"email_verified,omitempty"`
	Custom        map[string]any `json:"claims,omitempty"`
	jwt.RegisteredClaims
}

func (s *Service) signIDToken(account *Account, now time.Time) (string, time.Time, error) {
	exp := now.Add(s.accessTTL)
	claims := idTokenClaims{
		Email:         account.Email,
		EmailVerified: account.EmailVerified,
		Custom:        account.CustomClaims,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   account.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// VerifyIDToken checks the token signature and required claims and returns
// the embedded identity. The claims it carries may be stale relative to the
// account; callers resolving authorization must consult the profile store.
func (s *Service) VerifyIDToken(token string) (Token, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Token{}, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &idTokenClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return Token{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*idTokenClaims)
	if !ok || !parsed.Valid {
		return Token{}, ErrInvalidToken
	}
	if err := s.validateClaims(claims); err != nil {
		return Token{}, ErrInvalidToken
	}
	return Token{
		UID:       claims.Subject,
		Email:     claims.Email,
		Claims:    claims.Custom,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *Service) validateClaims(claims *idTokenClaims) error {
	if claims.Issuer != s.issuer {
		return fmt.Errorf("unexpected issuer: %s", claims.Issuer)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject missing")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return errors.New("timestamps missing")
	}
	now := s.now().UTC()
	if now.After(claims.ExpiresAt.Time) {
		return errors.New("token expired")
	}
	// Allow a small clock skew of 5 seconds when validating issued-at.
	if claims.IssuedAt.Time.After(now.Add(5 * time.Second)) {
		return errors.New("token issued in the future")
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return errors.New("token expiry precedes issued-at")
	}
	return nil
}
