package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/role"
)

func strptr(s string) *string { return &s }

func roleptr(r role.Role) *role.Role { return &r }

func TestUpsertDefaultsRoleToCitizen(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	p, err := store.Upsert(ctx, Upsert{UID: "u1", Email: strptr("a@b.com")})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if p.Role != role.Citizen {
		t.Fatalf("default role = %s, want CITIZEN", p.Role)
	}
	if p.UpdatedAt.IsZero() {
		t.Fatalf("updated_at not stamped")
	}
}

func TestUpsertMergeNeverDeletesFields(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Upsert(ctx, Upsert{
		UID:      "u1",
		Role:     roleptr(role.Police),
		Email:    strptr("p@x.com"),
		FullName: strptr("Pat Officer"),
		Phone:    strptr("555-0101"),
	}); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}

	// A later write naming only role must leave all other fields intact.
	p, err := store.Upsert(ctx, Upsert{UID: "u1", Role: roleptr(role.Admin)})
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if p.Role != role.Admin {
		t.Fatalf("role = %s, want ADMIN", p.Role)
	}
	if p.Email != "p@x.com" || p.FullName != "Pat Officer" || p.Phone != "555-0101" {
		t.Fatalf("merge write erased fields: %+v", p)
	}
}

func TestUpsertIsRepeatable(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	in := Upsert{UID: "u1", Role: roleptr(role.Police), Email: strptr("p@x.com")}
	first, err := store.Upsert(ctx, in)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	second, err := store.Upsert(ctx, in)
	if err != nil {
		t.Fatalf("repeat Upsert: %v", err)
	}
	first.UpdatedAt = second.UpdatedAt
	if first != second {
		t.Fatalf("repeated upsert diverged:\n first: %+v\nsecond: %+v", first, second)
	}
}

func TestGetMissing(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Get(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
