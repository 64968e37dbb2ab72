// Package role defines the closed set of application roles and the
// dashboard routing attached to them.
package role

import (
	"fmt"
	"strings"
)

// Role is one of the three application roles. The set is closed: unknown
// values are rejected at input boundaries rather than carried through.
type Role string

const (
	Citizen Role = "CITIZEN"
	Police  Role = "POLICE"
	Admin   Role = "ADMIN"
)

// Default is the role granted when none was recorded for an account.
const Default = Citizen

// All lists every valid role.
var All = []Role{Citizen, Police, Admin}

// Parse normalizes and validates a raw role string.
func Parse(raw string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case Citizen:
		return Citizen, nil
	case Police:
		return Police, nil
	case Admin:
		return Admin, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Valid reports whether r is a member of the closed set.
func (r Role) Valid() bool {
	switch r {
	case Citizen, Police, Admin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// HomePath returns the dashboard path users of this role land on.
// Unrecognized roles resolve to the citizen dashboard, never the admin one.
func (r Role) HomePath() string {
	switch r {
	case Admin:
		return "/admin/dashboard"
	case Police:
		return "/police/dashboard"
	default:
		return "/citizen/dashboard"
	}
}
