// Command smoke-auth runs a sign-up/verify/sign-out round against a live
// API server. It shares the server's database and token secret
// (CRIMENET_PG_DSN, CRIMENET_TOKEN_SECRET) and, when CRIMENET_REDIS_ADDR is
// set, persists the session cache in Redis the way a client deployment
// would.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/apiclient"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/config"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/gate"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/identity"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/role"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/session"
)

func main() {
	apiAddr := os.Getenv("CRIMENET_API_ADDR")
	if apiAddr == "" {
		apiAddr = "http://localhost:8080"
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseDSN == "" {
		log.Fatalf("CRIMENET_PG_DSN is required: smoke-auth signs up against the server's store")
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	svc, err := identity.NewService(identity.NewPGStore(db), cfg.TokenSecret)
	if err != nil {
		log.Fatalf("identity service: %v", err)
	}

	cache, err := session.NewCache(cfg.RedisAddr, "smoke-auth")
	if err != nil {
		log.Fatalf("session cache: %v", err)
	}

	mgr, err := session.NewManager(svc, cache)
	if err != nil {
		log.Fatalf("session manager: %v", err)
	}
	client, err := apiclient.New(apiAddr, mgr)
	if err != nil {
		log.Fatalf("api client at %s: %v", apiAddr, err)
	}
	mgr.UseBackend(client)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	email := fmt.Sprintf("smoke-%d@crimenet.local", rand.Int())
	if err := mgr.SignUp(ctx, email, "smoke-pass-123", "Smoke Tester", "", "", role.Citizen); err != nil {
		log.Fatalf("sign up %s: %v", email, err)
	}

	snap := mgr.Snapshot()
	if snap.State != session.StateAuthenticated || snap.Role != role.Citizen {
		log.Fatalf("unexpected session after sign-up: state=%s role=%s", snap.State, snap.Role)
	}
	uid := snap.UID
	if d := gate.Decide(snap, "", role.Citizen); d.Action != gate.ActionAllow {
		log.Fatalf("citizen route denied: action=%d target=%s", d.Action, d.Target)
	}

	if err := mgr.RefreshRole(ctx); err != nil {
		log.Fatalf("verify: %v", err)
	}

	if err := mgr.SignOut(ctx); err != nil {
		log.Fatalf("sign out: %v", err)
	}
	if snap = mgr.Snapshot(); snap.State != session.StateUnauthenticated {
		log.Fatalf("session survived sign-out: state=%s", snap.State)
	}

	fmt.Printf("✅ auth smoke test passed: uid=%s email=%s\n", uid, email)
}
