package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/identity"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/obs"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/profile"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/role"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}

// withAuth verifies the bearer token and resolves the caller's role from
// the profile store. The token's embedded role claim is deliberately not
// consulted: claims may predate the latest role change.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			observeVerifyReject(r)
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		tok, err := a.identity.VerifyIDToken(token)
		if err != nil {
			if errors.Is(err, identity.ErrInvalidToken) {
				observeVerifyReject(r)
				writeError(w, r, http.StatusUnauthorized, "invalid token")
			} else {
				writeError(w, r, http.StatusInternalServerError, "authentication error")
			}
			return
		}

		resolved := role.Default
		switch p, err := a.profiles.Get(r.Context(), tok.UID); {
		case err == nil:
			resolved = p.Role
		case errors.Is(err, profile.ErrNotFound):
			// No profile yet (fresh sign-up): least-privileged default.
		default:
			writeError(w, r, http.StatusInternalServerError, "role resolution failed")
			return
		}

		ctx := identity.ContextWithUser(r.Context(), identity.AuthenticatedUser{
			UID:   tok.UID,
			Email: tok.Email,
			Role:  resolved,
		})
		ctx = identity.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func observeVerifyReject(r *http.Request) {
	if r.URL.Path == "/api/auth/verify" {
		obs.ObserveVerify("invalid_token")
	}
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
