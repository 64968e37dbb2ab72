package identity

import "errors"

// Error taxonomy mirrored from the identity provider's public codes. Callers
// classify with errors.Is; anything outside this set is a backend error and
// propagates unchanged.
var (
	ErrAccountNotFound   = errors.New("identity: account not found")
	ErrInvalidCredential = errors.New("identity: invalid credential")
	ErrEmailAlreadyInUse = errors.New("identity: email already in use")
	ErrWeakPassword      = errors.New("identity: weak password")
	ErrInvalidEmail      = errors.New("identity: invalid email")
	ErrTooManyRequests   = errors.New("identity: too many requests")
	ErrInvalidToken      = errors.New("identity: invalid token")
)
