// Package apperrors defines the error kinds shared by the storage, service and HTTP layers.
// Callers wrap one of these sentinels and classify with errors.Is.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrAuth         = errors.New("authentication failed")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrInvalidOrder = errors.New("invalid order")
	ErrStorage      = errors.New("storage failure")
)

// Validation wraps ErrValidation with a human readable reason.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Storage marks err as a storage failure while keeping it in the chain.
// Errors that already carry a kind are returned unchanged.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if Classified(err) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// Classified reports whether err already wraps one of the sentinels above.
func Classified(err error) bool {
	for _, kind := range []error{ErrValidation, ErrAuth, ErrForbidden, ErrNotFound, ErrConflict, ErrInvalidOrder, ErrStorage} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
