package identity

import "context"

// Store describes persistence operations required by the identity backend.
type Store interface {
	CreateAccount(ctx context.Context, account *Account) error
	GetAccount(ctx context.Context, uid string) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	UpdateAccount(ctx context.Context, uid string, upd AccountUpdate) (*Account, error)

	// SetCustomClaims replaces the full claims object for uid. There are no
	// merge semantics: keys absent from claims are destroyed.
	SetCustomClaims(ctx context.Context, uid string, claims map[string]any) error

	CreateRefreshToken(ctx context.Context, tok *RefreshToken) error
	FindRefreshToken(ctx context.Context, id string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string) error
	RevokeRefreshTokensForUser(ctx context.Context, uid string) error
}
