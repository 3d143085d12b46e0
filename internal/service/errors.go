package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for the outcomes the API layer must distinguish. All of
// them mean the operation had no side effects. Note that a duplicate or
// unknown-guest check-in is not in this list: those are first-class
// CheckInResult outcomes, not errors.
var (
	// ErrInvalidCredentials covers both unknown username and password
	// mismatch. The two cases are deliberately indistinguishable so the
	// login endpoint cannot be used to enumerate usernames.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrAccountDisabled means the credentials were valid but the account
	// has been deactivated.
	ErrAccountDisabled = errors.New("account is disabled")

	// ErrForbidden covers role, ownership and assignment violations.
	ErrForbidden = errors.New("forbidden")

	// ErrDuplicateUsername means the requested username is already taken
	// (case-sensitive exact match).
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrNotFound means an entity id did not resolve.
	ErrNotFound = errors.New("not found")

	// ErrInvalidQuota means an event quota outside [1,100] was requested.
	ErrInvalidQuota = errors.New("event quota must be between 1 and 100")
)

// ValidationError reports a missing or malformed required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
