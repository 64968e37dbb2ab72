package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/config"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/httpapi"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/identity"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/obs"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/profile"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	var (
		db       *sql.DB
		idStore  identity.Store
		profiles profile.Store
	)
	if cfg.DatabaseDSN != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		idStore = identity.NewPGStore(db)
		profiles = profile.NewPGStore(db)
	} else {
		// In-memory stores for local development without a database.
		idStore = identity.NewMemoryStore()
		profiles = profile.NewMemoryStore()
	}

	idSvc, err := identity.NewService(idStore, cfg.TokenSecret)
	if err != nil {
		log.Fatalf("identity service: %v", err)
	}

	api, err := httpapi.New(idSvc, profiles, httpapi.ReadyProbe{DB: db}, version)
	if err != nil {
		log.Fatalf("http api: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting crimenet-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
