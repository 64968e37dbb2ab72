// Package provision reconciles the identity store, the claims object and the
// profile document for one uid. Every step is idempotent; the three writes
// run sequentially without a surrounding transaction, so a failed run leaves
// the earlier steps in place and is repaired by re-running with the same
// inputs.
package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/audit"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/identity"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/profile"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/role"
)

// Input is one administrative provisioning request.
type Input struct {
	UID      string
	Role     role.Role
	Email    string
	Password string
	FullName string
}

// Result summarizes what a Run converged to.
type Result struct {
	Account *identity.Account
	Profile profile.Profile
}

// Provisioner wires the identity admin surface to the profile store.
type Provisioner struct {
	identity *identity.Service
	profiles profile.Store
}

func New(identitySvc *identity.Service, profiles profile.Store) (*Provisioner, error) {
	if identitySvc == nil || profiles == nil {
		return nil, errors.New("provision: identity service and profile store are required")
	}
	return &Provisioner{identity: identitySvc, profiles: profiles}, nil
}

// EnsureAccount looks up the account at uid and converges it onto the
// supplied email/password. A missing account is created. Any change forces
// emailVerified to true; that flag only ever moves upward here.
func (p *Provisioner) EnsureAccount(ctx context.Context, uid, email, password string) (*identity.Account, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, errors.New("provision: uid is required")
	}

	account, err := p.identity.GetAccount(ctx, uid)
	if err != nil {
		if !errors.Is(err, identity.ErrAccountNotFound) {
			return nil, err
		}
		created, err := p.identity.CreateAccount(ctx, identity.NewAccountParams{
			UID:           uid,
			Email:         email,
			Password:      password,
			EmailVerified: true,
		})
		if err != nil {
			return nil, err
		}
		_ = audit.LogEvent(ctx, "provision.account.create", map[string]any{"uid": uid})
		return created, nil
	}

	var upd identity.AccountUpdate
	changed := false
	if email != "" && account.Email != strings.ToLower(strings.TrimSpace(email)) {
		e := email
		upd.Email = &e
		changed = true
	}
	if password != "" && identity.VerifyPassword(account.PasswordHash, password) != nil {
		// Only a genuinely new password counts as a change; re-running with
		// the stored one stays a no-op.
		if err := identity.HashAndUpdatePassword(&upd, password); err != nil {
			return nil, err
		}
		changed = true
	}
	if !changed {
		return account, nil
	}
	verified := true
	upd.EmailVerified = &verified
	updated, err := p.identity.UpdateAccount(ctx, uid, upd)
	if err != nil {
		return nil, err
	}
	_ = audit.LogEvent(ctx, "provision.account.update", map[string]any{"uid": uid})
	return updated, nil
}

// SetRole replaces the account's custom claims with {role}. Claims previously
// present are destroyed; sessions holding older tokens keep the stale
// snapshot until they force a refresh.
func (p *Provisioner) SetRole(ctx context.Context, uid string, r role.Role) error {
	if !r.Valid() {
		return fmt.Errorf("provision: invalid role %q", r)
	}
	if err := p.identity.SetCustomClaims(ctx, uid, map[string]any{"role": string(r)}); err != nil {
		return err
	}
	return audit.LogEvent(ctx, "provision.role.set", map[string]any{"uid": uid, "role": string(r)})
}

// UpsertProfile merge-writes the profile document for uid.
func (p *Provisioner) UpsertProfile(ctx context.Context, uid string, r role.Role, email, fullName string) (profile.Profile, error) {
	upsert := profile.Upsert{UID: uid}
	if r != "" {
		if !r.Valid() {
			return profile.Profile{}, fmt.Errorf("provision: invalid role %q", r)
		}
		upsert.Role = &r
	}
	if email != "" {
		e := strings.ToLower(strings.TrimSpace(email))
		upsert.Email = &e
	}
	if fullName != "" {
		n := fullName
		upsert.FullName = &n
	}
	return p.profiles.Upsert(ctx, upsert)
}

// Run executes ensure-account, set-role and upsert-profile in order. The
// first failure aborts the run; there is no rollback. Re-running with the
// same inputs converges all three stores.
func (p *Provisioner) Run(ctx context.Context, in Input) (Result, error) {
	if strings.TrimSpace(in.UID) == "" {
		return Result{}, errors.New("provision: uid is required")
	}
	if !in.Role.Valid() {
		return Result{}, fmt.Errorf("provision: invalid role %q", in.Role)
	}

	account, err := p.EnsureAccount(ctx, in.UID, in.Email, in.Password)
	if err != nil {
		return Result{}, fmt.Errorf("ensure account: %w", err)
	}
	if err := p.SetRole(ctx, in.UID, in.Role); err != nil {
		return Result{}, fmt.Errorf("set role: %w", err)
	}
	// Re-read so the result reflects the claims just written.
	account, err = p.identity.GetAccount(ctx, in.UID)
	if err != nil {
		return Result{}, fmt.Errorf("reload account: %w", err)
	}
	email := in.Email
	if email == "" {
		email = account.Email
	}
	prof, err := p.UpsertProfile(ctx, in.UID, in.Role, email, in.FullName)
	if err != nil {
		return Result{}, fmt.Errorf("upsert profile: %w", err)
	}
	return Result{Account: account, Profile: prof}, nil
}
