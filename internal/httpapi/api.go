// Package httpapi is the HTTP layer of the CrimeNet backend: the auth
// endpoints consumed by the session manager, profile reads, and the
// operational probes.
package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/identity"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/obs"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/profile"
)

// ReadyProbe pings the backing database for /readyz.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP surface.
type API struct {
	mux        *http.ServeMux
	identity   *identity.Service
	profiles   profile.Store
	readyProbe ReadyProbe
	version    string
}

// New wires the routes.
func New(idSvc *identity.Service, profiles profile.Store, rp ReadyProbe, version string) (*API, error) {
	if idSvc == nil {
		return nil, errors.New("httpapi: identity service is required")
	}
	if profiles == nil {
		return nil, errors.New("httpapi: profile store is required")
	}
	a := &API{
		mux:        http.NewServeMux(),
		identity:   idSvc,
		profiles:   profiles,
		readyProbe: rp,
		version:    version,
	}

	a.mux.HandleFunc("/api/auth/register", a.handleRegister)
	a.mux.HandleFunc("/api/auth/verify", a.handleVerify)
	a.mux.HandleFunc("/api/users/", a.handleGetUser)

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a, nil
}

// Handler returns the full server handler: metrics instrumentation around
// the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 20, 10)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = RequestID(h)
	h = Logging(h)
	return obs.Instrument(h)
}

// --- Probes ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "crimenet-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "crimenet-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
