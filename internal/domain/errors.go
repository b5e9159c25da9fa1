package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a request missing a required field or carrying a bad value.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks a duplicate username, favourite or share.
	ErrConflict = errors.New("conflict")
	// ErrNotFound marks a lookup with no match. Deletes never return it.
	ErrNotFound = errors.New("not found")
	// ErrPersistence marks a storage failure. Nothing was written.
	ErrPersistence = errors.New("persistence failure")
)

// Validationf builds an ErrValidation with a message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Conflictf builds an ErrConflict with a message.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Persistence wraps a storage error so callers can match ErrPersistence
// while keeping the cause.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
