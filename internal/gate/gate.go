// Package gate decides whether a session may reach a protected surface.
// The decision logic is a pure function over the session snapshot so the
// same table backs route guarding, browser redirects, and the server-side
// middleware.
package gate

import (
	"encoding/json"
	"net/http"

	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/identity"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/role"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/session"
)

// LoginPath is the default target for unauthenticated sessions.
const LoginPath = "/login"

// Action is the outcome kind of an access decision.
type Action int

const (
	// ActionWait means the session state is not known yet; render nothing
	// and decide again once it settles.
	ActionWait Action = iota
	// ActionAllow grants access to the protected surface.
	ActionAllow
	// ActionRedirect denies access and names where to send the session.
	ActionRedirect
)

// Decision is the result of evaluating a session against a route's
// allowed roles.
type Decision struct {
	Action Action
	Target string
}

// Decide evaluates a session snapshot against the roles a route admits.
// A session that is still loading waits; an unauthenticated one is sent to
// fallback (LoginPath when empty); an authenticated one with the wrong role
// is sent to its own home rather than shown an error. The home mapping
// treats unknown roles as citizen, never admin.
func Decide(snap session.Snapshot, fallback string, allowed ...role.Role) Decision {
	if fallback == "" {
		fallback = LoginPath
	}
	switch snap.State {
	case session.StateLoading:
		return Decision{Action: ActionWait}
	case session.StateAuthenticated:
	default:
		return Decision{Action: ActionRedirect, Target: fallback}
	}
	if len(allowed) == 0 {
		return Decision{Action: ActionAllow}
	}
	for _, r := range allowed {
		if snap.Role == r {
			return Decision{Action: ActionAllow}
		}
	}
	return Decision{Action: ActionRedirect, Target: snap.Role.HomePath()}
}

// Require is HTTP middleware enforcing the decision table on API requests.
// It expects an authenticated user in the request context; a missing user
// is a 401 and a wrong role is a 403.
func Require(allowed ...role.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := identity.UserFromContext(r.Context())
			if !ok {
				deny(w, http.StatusUnauthorized, "authentication required")
				return
			}
			snap := session.Snapshot{State: session.StateAuthenticated, Role: user.Role, UID: user.UID}
			if d := Decide(snap, "", allowed...); d.Action != ActionAllow {
				deny(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Redirect is HTTP middleware for browser navigation. It evaluates the
// snapshot supplied per request and answers redirects with 303 so the
// browser re-issues a GET. A still-loading session gets a 503 with
// Retry-After rather than a premature redirect.
func Redirect(snapshot func(*http.Request) session.Snapshot, fallback string, allowed ...role.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch d := Decide(snapshot(r), fallback, allowed...); d.Action {
			case ActionAllow:
				next.ServeHTTP(w, r)
			case ActionRedirect:
				http.Redirect(w, r, d.Target, http.StatusSeeOther)
			default:
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusServiceUnavailable)
			}
		})
	}
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
