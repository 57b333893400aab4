// internal/domain/models/errors.go
package models

import (
	"errors"
	"fmt"
)

// Shared error taxonomy. Every component surfaces failures through
// these so callers can branch with errors.Is / errors.As regardless of
// which layer produced them.
var (
	// ErrPermissionDenied means the actor lacks the capability. Never
	// retried; surfaced verbatim to the caller.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound means a referenced message, conversation, class,
	// department, or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyVoted is the idempotent rejection of a duplicate vote.
	// The earlier vote stands; callers need not alarm on it.
	ErrAlreadyVoted = errors.New("already voted")

	// ErrStoreUnavailable is a transient failure from the backing
	// store. The core never retries internally; callers own the retry
	// policy.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError reports malformed input together with the offending
// field. Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError for a field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StoreUnavailable wraps a backing-store failure so that
// errors.Is(err, ErrStoreUnavailable) holds while the cause stays
// visible in logs.
func StoreUnavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
