// Package profile stores the per-uid user profile document. The profile's
// role field, not the token claim, is the source of truth for role
// resolution at the verify endpoint.
package profile

import (
	"context"
	"errors"
	"time"

	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/role"
)

var ErrNotFound = errors.New("profile: not found")

// Profile is the application-side user record, keyed one-to-one with the
// identity account's uid.
type Profile struct {
	UID       string    `json:"uid"`
	Role      role.Role `json:"role"`
	Email     string    `json:"email,omitempty"`
	FullName  string    `json:"fullName,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Upsert is a merge-write: nil fields leave the stored value untouched and
// are never deleted. Role defaults to CITIZEN when the document does not
// exist yet and no role is supplied. UpdatedAt is always stamped with the
// store's server clock.
type Upsert struct {
	UID      string
	Role     *role.Role
	Email    *string
	FullName *string
	Phone    *string
	Address  *string
}

// Store describes profile persistence.
type Store interface {
	Upsert(ctx context.Context, upsert Upsert) (Profile, error)
	Get(ctx context.Context, uid string) (Profile, error)
}
