package identity

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func accountColumns() []string {
	return []string{"uid", "email", "email_verified", "password_hash", "disabled", "custom_claims", "created_at", "updated_at"}
}

func TestPGGetAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("select uid, email, email_verified.*from accounts where uid=").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(accountColumns()).
			AddRow("u1", "p@x.com", true, "hash", false, []byte(`{"role":"POLICE"}`), now, now))

	store := NewPGStore(db)
	account, err := store.GetAccount(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if account.Email != "p@x.com" || !account.EmailVerified {
		t.Fatalf("unexpected account: %+v", account)
	}
	if account.CustomClaims["role"] != "POLICE" {
		t.Fatalf("claims not decoded: %v", account.CustomClaims)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGGetAccountNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select uid, email, email_verified.*from accounts where uid=").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	store := NewPGStore(db)
	if _, err := store.GetAccount(context.Background(), "missing"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestPGUpdateAccountPartialSet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	email := "new@x.com"
	verified := true
	now := time.Now().UTC()

	mock.ExpectExec(`update accounts set email = \$1, email_verified = \$2, updated_at = now\(\) where uid = \$3`).
		WithArgs(email, verified, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("select uid, email, email_verified.*from accounts where uid=").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(accountColumns()).
			AddRow("u1", email, true, "hash", false, []byte(`{}`), now, now))

	store := NewPGStore(db)
	account, err := store.UpdateAccount(context.Background(), "u1", AccountUpdate{Email: &email, EmailVerified: &verified})
	if err != nil {
		t.Fatalf("UpdateAccount: %v", err)
	}
	if account.Email != email {
		t.Fatalf("email not updated: %s", account.Email)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGSetCustomClaimsUnknownUID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("update accounts set custom_claims").
		WithArgs(sqlmock.AnyArg(), "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPGStore(db)
	err = store.SetCustomClaims(context.Background(), "ghost", map[string]any{"role": "ADMIN"})
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
