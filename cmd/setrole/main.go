// Command setrole is the administrative provisioner: it creates or updates
// one account, replaces its role claim, and upserts the matching profile.
// Partial failure leaves the stores partially provisioned; re-running with
// the same arguments converges.
//
// Usage:
//
//	setrole <uid> <role> [email] [password] [fullName]
//
// Credentials come from CRIMENET_SERVICE_ACCOUNT (inline JSON) or
// CRIMENET_SERVICE_ACCOUNT_FILE (path).
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/config"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/identity"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/profile"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/provision"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/role"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: setrole <uid> <role> [email] [password] [fullName]")
	}
	uid := args[0]
	r, err := role.Parse(args[1])
	if err != nil {
		return err
	}
	var email, password, fullName string
	if len(args) > 2 {
		email = args[2]
	}
	if len(args) > 3 {
		password = args[3]
	}
	if len(args) > 4 {
		fullName = args[4]
	}

	sa, err := config.LoadServiceAccount()
	if err != nil {
		return err
	}
	if sa.DatabaseDSN == "" {
		return fmt.Errorf("service account is missing database_dsn")
	}

	db, err := sql.Open("pgx", sa.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	idSvc, err := identity.NewService(identity.NewPGStore(db), sa.TokenSecret)
	if err != nil {
		return err
	}
	prov, err := provision.New(idSvc, profile.NewPGStore(db))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := prov.Run(ctx, provision.Input{
		UID:      uid,
		Role:     r,
		Email:    email,
		Password: password,
		FullName: fullName,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Success: uid=%s role=%s email=%s\n", result.Account.UID, r, result.Profile.Email)
	return nil
}
