package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy for the sharing core. The HTTP adapter maps each kind to a
// status code; no error message ever carries another organization's data.
var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrBudgetExceeded = errors.New("query budget exhausted")

	// ErrContention is returned after bounded retries on the clustering or
	// budget locks. Callers may safely retry the whole request: no partial
	// state is left behind.
	ErrContention = errors.New("contention, retry")
)

// ValidationError rejects malformed or out-of-enumeration input before any
// side effect happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
