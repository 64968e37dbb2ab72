package profile

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/role"
)

func TestPGUpsertSendsNullsForAbsentFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("insert into profiles").
		WithArgs("u1", "POLICE", "p@x.com", nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"uid", "role", "email", "full_name", "phone", "address", "created_at", "updated_at"}).
			AddRow("u1", "POLICE", "p@x.com", "Pat Officer", nil, nil, now, now))

	store := NewPGStore(db)
	p, err := store.Upsert(context.Background(), Upsert{
		UID:   "u1",
		Role:  roleptr(role.Police),
		Email: strptr("p@x.com"),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if p.Role != role.Police || p.FullName != "Pat Officer" {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
