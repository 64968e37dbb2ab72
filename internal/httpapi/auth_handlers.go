package httpapi

import (
	"net/http"
	"strings"

	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/audit"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/identity"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/obs"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/profile"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/role"
)

type registerRequest struct {
	UID      string `json:"uid"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Role     string `json:"role"`
}

type verifyResponse struct {
	UID   string    `json:"uid"`
	Email string    `json:"email"`
	Role  role.Role `json:"role"`
}

// handleRegister upserts the caller's profile and records the role claim.
// Self-registration may only claim CITIZEN; granting POLICE or ADMIN
// requires the caller to already hold ADMIN.
func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	caller, ok := identity.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	uid := strings.TrimSpace(req.UID)
	if uid == "" {
		writeError(w, r, http.StatusBadRequest, "uid is required")
		return
	}
	if strings.TrimSpace(req.FullName) == "" {
		writeError(w, r, http.StatusBadRequest, "fullName is required")
		return
	}

	requested := role.Default
	if strings.TrimSpace(req.Role) != "" {
		var err error
		requested, err = role.Parse(req.Role)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}
	if caller.Role != role.Admin {
		if uid != caller.UID {
			writeError(w, r, http.StatusForbidden, "cannot register another account")
			return
		}
		if requested != role.Citizen {
			writeError(w, r, http.StatusForbidden, "public registration grants CITIZEN only")
			return
		}
	}

	upsert := profile.Upsert{UID: uid, Role: &requested}
	if v := strings.TrimSpace(req.Email); v != "" {
		upsert.Email = &v
	}
	if v := strings.TrimSpace(req.FullName); v != "" {
		upsert.FullName = &v
	}
	if v := strings.TrimSpace(req.Phone); v != "" {
		upsert.Phone = &v
	}
	if v := strings.TrimSpace(req.Address); v != "" {
		upsert.Address = &v
	}

	stored, err := a.profiles.Upsert(r.Context(), upsert)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "profile write failed")
		return
	}
	if err := a.identity.SetCustomClaims(r.Context(), uid, map[string]any{"role": string(requested)}); err != nil {
		writeError(w, r, http.StatusInternalServerError, "claims update failed")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"target_uid": uid,
		"role":       string(requested),
	})
	writeJSON(w, http.StatusCreated, stored)
}

// handleVerify is the canonical role resolution: the bearer middleware has
// already verified the token and read the role from the profile store.
func (a *API) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	caller, ok := identity.UserFromContext(r.Context())
	if !ok {
		obs.ObserveVerify("invalid_token")
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	obs.ObserveVerify("ok")
	writeJSON(w, http.StatusOK, verifyResponse{
		UID:   caller.UID,
		Email: caller.Email,
		Role:  caller.Role,
	})
}
