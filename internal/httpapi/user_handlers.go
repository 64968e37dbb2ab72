package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/identity"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/profile"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/role"
)

// handleGetUser serves GET /api/users/{uid}. Callers may read their own
// profile; ADMIN may read anyone's.
func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	uid := strings.TrimPrefix(r.URL.Path, "/api/users/")
	if uid == "" || strings.Contains(uid, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	caller, ok := identity.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	if caller.UID != uid && caller.Role != role.Admin {
		writeError(w, r, http.StatusForbidden, "insufficient role")
		return
	}

	p, err := a.profiles.Get(r.Context(), uid)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "profile read failed")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
