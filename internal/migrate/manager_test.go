package migrate

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestUpSkipsAppliedAndRunsPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	src := fstest.MapFS{
		"001_accounts.up.sql": &fstest.MapFile{Data: []byte("create table accounts (uid text primary key);")},
		"002_profiles.up.sql": &fstest.MapFile{Data: []byte("create table profiles (uid text primary key);")},
	}

	mock.ExpectExec("create table if not exists schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create table if not exists schema_seeds").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("001_accounts.up.sql"))
	mock.ExpectBegin()
	mock.ExpectExec("create table profiles").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec("insert into schema_migrations").
		WithArgs("002_profiles.up.sql", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewManager(db, src).Up(context.Background()); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDownRequiresDownFile(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	src := fstest.MapFS{
		"001_accounts.up.sql": &fstest.MapFile{Data: []byte("create table accounts (uid text primary key);")},
	}

	mock.ExpectExec("create table if not exists schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create table if not exists schema_seeds").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from schema_migrations order by applied_at asc").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("001_accounts.up.sql"))

	err = NewManager(db, src).Down(context.Background())
	if err == nil {
		t.Fatal("expected error for missing down migration")
	}
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements(`insert into t values ('a;b'); create index i on t(x);`)
	if len(stmts) != 2 {
		t.Fatalf("got %d statements, want 2: %q", len(stmts), stmts)
	}
	if stmts[0] != `insert into t values ('a;b');` {
		t.Fatalf("semicolon inside string split incorrectly: %q", stmts[0])
	}
}
