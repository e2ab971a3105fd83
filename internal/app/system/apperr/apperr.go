// Package apperr defines the error taxonomy shared by stores, services and
// HTTP handlers.
//
// Services return these (possibly wrapped) and handlers map them to status
// codes with errors.Is / errors.As. Reads return ErrNotFound instead of a zero
// value so callers can tell an absent document from a failed query.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration means a required secret or connection string is missing.
	ErrConfiguration = errors.New("configuration missing")

	// ErrVerification means a signed payload failed verification.
	ErrVerification = errors.New("verification failed")

	// ErrNotFound means a referenced document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput means parameters or a payload were malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicate means a unique key (username, org id) is already taken.
	ErrDuplicate = errors.New("duplicate key")
)

// PersistenceError wraps a failed document-store operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence wraps err as a PersistenceError for op. Sentinel errors from
// this package pass through untouched so errors.Is keeps working on them.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{ErrNotFound, ErrInvalidInput, ErrConfiguration, ErrVerification} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return &PersistenceError{Op: op, Err: err}
}

// Invalid returns an ErrInvalidInput carrying a human-readable reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// NotFound returns an ErrNotFound naming what was missing.
func NotFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

// IsPersistence reports whether err carries a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
