package identity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgErrUniqueViolation = "23505"

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	db *sql.DB
}

var _ Store = (*PGStore)(nil)

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) CreateAccount(ctx context.Context, account *Account) error {
	claims, err := json.Marshal(account.CustomClaims)
	if err != nil {
		return err
	}
	var email any
	if account.Email != "" {
		email = account.Email
	}
	row := s.db.QueryRowContext(ctx, `
		insert into accounts(uid, email, email_verified, password_hash, disabled, custom_claims)
		values($1,$2,$3,$4,$5,$6)
		returning created_at, updated_at
	`, account.UID, email, account.EmailVerified, account.PasswordHash, account.Disabled, claims)
	if err := row.Scan(&account.CreatedAt, &account.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrEmailAlreadyInUse
		}
		return err
	}
	return nil
}

func (s *PGStore) GetAccount(ctx context.Context, uid string) (*Account, error) {
	row := s.db.QueryRowContext(ctx, `
		select uid, email, email_verified, password_hash, disabled, custom_claims, created_at, updated_at
		from accounts where uid=$1
	`, uid)
	return scanAccount(row)
}

func (s *PGStore) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	row := s.db.QueryRowContext(ctx, `
		select uid, email, email_verified, password_hash, disabled, custom_claims, created_at, updated_at
		from accounts where email=$1
	`, email)
	return scanAccount(row)
}

func (s *PGStore) UpdateAccount(ctx context.Context, uid string, upd AccountUpdate) (*Account, error) {
	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.Email != nil {
		sets = append(sets, fmt.Sprintf("email = $%d", idx))
		args = append(args, *upd.Email)
		idx++
	}
	if upd.PasswordHash != nil {
		sets = append(sets, fmt.Sprintf("password_hash = $%d", idx))
		args = append(args, *upd.PasswordHash)
		idx++
	}
	if upd.EmailVerified != nil {
		sets = append(sets, fmt.Sprintf("email_verified = $%d", idx))
		args = append(args, *upd.EmailVerified)
		idx++
	}
	if upd.Disabled != nil {
		sets = append(sets, fmt.Sprintf("disabled = $%d", idx))
		args = append(args, *upd.Disabled)
		idx++
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update accounts set %s where uid = $%d`, strings.Join(sets, ", "), idx)
		args = append(args, uid)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, ErrEmailAlreadyInUse
			}
			return nil, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if aff == 0 {
			return nil, ErrAccountNotFound
		}
	}
	return s.GetAccount(ctx, uid)
}

func (s *PGStore) SetCustomClaims(ctx context.Context, uid string, claims map[string]any) error {
	payload, err := json.Marshal(claims)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		update accounts set custom_claims = $1, updated_at = now() where uid = $2
	`, payload, uid)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *PGStore) CreateRefreshToken(ctx context.Context, tok *RefreshToken) error {
	_, err := s.db.ExecContext(ctx, `
		insert into refresh_tokens(id, uid, token_hash, expires_at, revoked)
		values($1,$2,$3,$4,$5)
	`, tok.ID, tok.UID, tok.TokenHash, tok.ExpiresAt, tok.Revoked)
	return err
}

func (s *PGStore) FindRefreshToken(ctx context.Context, id string) (*RefreshToken, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, uid, token_hash, expires_at, created_at, revoked
		from refresh_tokens where id=$1
	`, id)
	var tok RefreshToken
	if err := row.Scan(&tok.ID, &tok.UID, &tok.TokenHash, &tok.ExpiresAt, &tok.CreatedAt, &tok.Revoked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return &tok, nil
}

func (s *PGStore) RevokeRefreshToken(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `update refresh_tokens set revoked = true where id=$1`, id)
	return err
}

func (s *PGStore) RevokeRefreshTokensForUser(ctx context.Context, uid string) error {
	_, err := s.db.ExecContext(ctx, `update refresh_tokens set revoked = true where uid=$1`, uid)
	return err
}

func scanAccount(row *sql.Row) (*Account, error) {
	var (
		account Account
		email   sql.NullString
		claims  []byte
	)
	if err := row.Scan(&account.UID, &email, &account.EmailVerified, &account.PasswordHash,
		&account.Disabled, &claims, &account.CreatedAt, &account.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	account.Email = email.String
	if len(claims) > 0 {
		_ = json.Unmarshal(claims, &account.CustomClaims)
	}
	return &account, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}
