package identity

import "time"

// Account is the identity-store record for one uid. CustomClaims carries the
// claims embedded into tokens at issue time; "role" is the only key the rest
// of the system reads.
type Account struct {
	UID           string         `json:"uid"`
	Email         string         `json:"email,omitempty"`
	EmailVerified bool           `json:"email_verified"`
	PasswordHash  string         `json:"-"`
	Disabled      bool           `json:"disabled"`
	CustomClaims  map[string]any `json:"custom_claims,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// AccountUpdate describes a partial account mutation. Nil fields are left
// untouched.
type AccountUpdate struct {
	Email         *string
	PasswordHash  *string
	EmailVerified *bool
	Disabled      *bool
}

// NewAccountParams are the inputs accepted when creating an account at a
// caller-chosen uid (the provisioner path). Password may be empty for
// accounts that will only ever be provisioned.
type NewAccountParams struct {
	UID           string
	Email         string
	Password      string
	EmailVerified bool
}

// Credential is what a successful sign-in, sign-up or refresh hands the
// client: a signed ID token plus the rotating refresh token.
type Credential struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email,omitempty"`
	IDToken      string    `json:"id_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Token is a verified ID token. Claims is the custom-claims snapshot taken
// when the token was signed; it can lag the account's current claims until a
// forced refresh re-issues the token.
type Token struct {
	UID       string
	Email     string
	Claims    map[string]any
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RoleClaim returns the "role" custom claim embedded in the token, or ""
// when absent. Authorization decisions must not trust this value directly;
// the verify endpoint resolves the canonical role from the profile store.
func (t Token) RoleClaim() string {
	if t.Claims == nil {
		return ""
	}
	if s, ok := t.Claims["role"].(string); ok {
		return s
	}
	return ""
}

// RefreshToken is the persisted half of a refresh credential. The secret
// half lives only with the client; TokenHash stores its sha256.
type RefreshToken struct {
	ID        string
	UID       string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}
