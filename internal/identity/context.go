package identity

import (
	"context"
	"strings"

	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/role"
)

type userContextKey struct{}
type tokenContextKey struct{}

// AuthenticatedUser is the per-request identity attached by the bearer
// middleware after token verification and role resolution.
type AuthenticatedUser struct {
	UID   string
	Email string
	Role  role.Role
}

// ContextWithUser stores the authenticated user in the context.
func ContextWithUser(ctx context.Context, user AuthenticatedUser) context.Context {
	user.UID = strings.TrimSpace(user.UID)
	return context.WithValue(ctx, userContextKey{}, &user)
}

// UserFromContext extracts the authenticated user from the context.
func UserFromContext(ctx context.Context) (AuthenticatedUser, bool) {
	if ctx == nil {
		return AuthenticatedUser{}, false
	}
	v, ok := ctx.Value(userContextKey{}).(*AuthenticatedUser)
	if !ok || v == nil || v.UID == "" {
		return AuthenticatedUser{}, false
	}
	return *v, true
}

// UIDFromContext returns just the authenticated uid.
func UIDFromContext(ctx context.Context) (string, bool) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return "", false
	}
	return user.UID, true
}

// ContextWithToken stores the raw bearer token inside the context.
func ContextWithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext returns the bearer token if it was previously attached.
func TokenFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(tokenContextKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
