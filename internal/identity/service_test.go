package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func newTestService(t *testing.T, opts ...ServiceOption) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	svc, err := NewService(store, "test-secret", opts...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, store
}

func TestSignUpAndSignIn(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cred, err := svc.SignUp(ctx, "User@Example.com", "secret123")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if cred.UID == "" || cred.IDToken == "" || cred.RefreshToken == "" {
		t.Fatalf("incomplete credential: %+v", cred)
	}
	if cred.Email != "user@example.com" {
		t.Fatalf("email not normalized: %s", cred.Email)
	}

	if _, err := svc.SignUp(ctx, "user@example.com", "secret123"); !errors.Is(err, ErrEmailAlreadyInUse) {
		t.Fatalf("expected ErrEmailAlreadyInUse, got %v", err)
	}

	again, err := svc.SignIn(ctx, "user@example.com", "secret123")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if again.UID != cred.UID {
		t.Fatalf("uid changed between sign-up and sign-in")
	}

	if _, err := svc.SignIn(ctx, "user@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
	if _, err := svc.SignIn(ctx, "nobody@example.com", "secret123"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential for unknown email, got %v", err)
	}
}

func TestSignUpValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "not-an-email", "secret123"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := svc.SignUp(ctx, "a@b.com", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestTokenCarriesClaimsSnapshot(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cred, err := svc.SignUp(ctx, "p@x.com", "secret123")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	// Claims set after issuance do not appear in the already-held token.
	if err := svc.SetCustomClaims(ctx, cred.UID, map[string]any{"role": "POLICE"}); err != nil {
		t.Fatalf("SetCustomClaims: %v", err)
	}
	stale, err := svc.VerifyIDToken(cred.IDToken)
	if err != nil {
		t.Fatalf("VerifyIDToken: %v", err)
	}
	if stale.RoleClaim() != "" {
		t.Fatalf("stale token unexpectedly carries role %q", stale.RoleClaim())
	}

	// A forced refresh mints a token embedding the current claims.
	fresh, err := svc.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	tok, err := svc.VerifyIDToken(fresh.IDToken)
	if err != nil {
		t.Fatalf("VerifyIDToken(fresh): %v", err)
	}
	if tok.RoleClaim() != "POLICE" {
		t.Fatalf("fresh token role claim = %q, want POLICE", tok.RoleClaim())
	}

	// Refresh rotation: the old refresh token is spent.
	if _, err := svc.Refresh(ctx, cred.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected rotated refresh token to be rejected, got %v", err)
	}
}

func TestSetCustomClaimsReplaces(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	cred, err := svc.SignUp(ctx, "c@x.com", "secret123")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if err := svc.SetCustomClaims(ctx, cred.UID, map[string]any{"role": "CITIZEN", "extra": "x"}); err != nil {
		t.Fatalf("SetCustomClaims: %v", err)
	}
	if err := svc.SetCustomClaims(ctx, cred.UID, map[string]any{"role": "POLICE"}); err != nil {
		t.Fatalf("SetCustomClaims: %v", err)
	}
	account, err := store.GetAccount(ctx, cred.UID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if len(account.CustomClaims) != 1 || account.CustomClaims["role"] != "POLICE" {
		t.Fatalf("claims were merged, not replaced: %v", account.CustomClaims)
	}
}

func TestSignOutIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cred, err := svc.SignUp(ctx, "s@x.com", "secret123")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if err := svc.SignOut(ctx, cred.RefreshToken); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if err := svc.SignOut(ctx, cred.RefreshToken); err != nil {
		t.Fatalf("second SignOut: %v", err)
	}
	if err := svc.SignOut(ctx, "garbage"); err != nil {
		t.Fatalf("SignOut with malformed token: %v", err)
	}
	if _, err := svc.Refresh(ctx, cred.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected revoked refresh token to be rejected, got %v", err)
	}
}

func TestSignInThrottle(t *testing.T) {
	svc, _ := newTestService(t, WithSignInRateLimit(rate.Limit(0.001), 2))
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "t@x.com", "secret123"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	_, _ = svc.SignIn(ctx, "t@x.com", "secret123")
	_, _ = svc.SignIn(ctx, "t@x.com", "secret123")
	if _, err := svc.SignIn(ctx, "t@x.com", "secret123"); !errors.Is(err, ErrTooManyRequests) {
		t.Fatalf("expected ErrTooManyRequests, got %v", err)
	}
}

func TestVerifyIDTokenRejectsExpired(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	clock := issued
	svc, _ := newTestService(t,
		WithAccessTTL(time.Hour),
		WithClock(func() time.Time { return clock }),
	)
	ctx := context.Background()

	cred, err := svc.SignUp(ctx, "e@x.com", "secret123")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	clock = time.Now()
	if _, err := svc.VerifyIDToken(cred.IDToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token rejection, got %v", err)
	}
}

func TestVerifyIDTokenRejectsGarbage(t *testing.T) {
	svc, _ := newTestService(t)
	for _, tok := range []string{"", "abc", "a.b.c"} {
		if _, err := svc.VerifyIDToken(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", tok, err)
		}
	}
}
