package profile

import (
	"context"
	"database/sql"
	"errors"

	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/role"
)

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	db *sql.DB
}

var _ Store = (*PGStore)(nil)

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

// Upsert merge-writes the profile row. Fields passed as nil map to SQL nulls
// and coalesce away against the existing row, so absent inputs never erase
// stored values.
func (s *PGStore) Upsert(ctx context.Context, upsert Upsert) (Profile, error) {
	if upsert.UID == "" {
		return Profile{}, errors.New("profile: uid is required")
	}
	var roleArg any
	if upsert.Role != nil {
		roleArg = string(*upsert.Role)
	}
	row := s.db.QueryRowContext(ctx, `
		insert into profiles(uid, role, email, full_name, phone, address)
		values($1, coalesce($2, 'CITIZEN'), $3, $4, $5, $6)
		on conflict (uid) do update set
			role       = coalesce($2, profiles.role),
			email      = coalesce($3, profiles.email),
			full_name  = coalesce($4, profiles.full_name),
			phone      = coalesce($5, profiles.phone),
			address    = coalesce($6, profiles.address),
			updated_at = now()
		returning uid, role, email, full_name, phone, address, created_at, updated_at
	`, upsert.UID, roleArg, nullable(upsert.Email), nullable(upsert.FullName),
		nullable(upsert.Phone), nullable(upsert.Address))
	return scanProfile(row)
}

func (s *PGStore) Get(ctx context.Context, uid string) (Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		select uid, role, email, full_name, phone, address, created_at, updated_at
		from profiles where uid=$1
	`, uid)
	return scanProfile(row)
}

func scanProfile(row *sql.Row) (Profile, error) {
	var (
		p                            Profile
		roleRaw                      string
		email, fullName, phone, addr sql.NullString
	)
	if err := row.Scan(&p.UID, &roleRaw, &email, &fullName, &phone, &addr, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	p.Role = role.Role(roleRaw)
	p.Email = email.String
	p.FullName = fullName.String
	p.Phone = phone.String
	p.Address = addr.String
	return p, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
