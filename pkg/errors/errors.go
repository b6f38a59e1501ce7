// Package errors provides common domain error types for the parley backend.
//
// This package defines sentinel errors for common domain conditions like "not found"
// or "validation error" that can be used across all packages. Using typed errors
// enables consistent error handling patterns with errors.Is() checks.
//
// Usage:
//
//	import perrors "github.com/parleyhq/parley/pkg/errors"
//
//	// Return a domain error
//	return nil, perrors.ErrNotFound
//
//	// Check for domain errors
//	if perrors.IsNotFound(err) {
//	    // handle not found case
//	}
package errors

import "errors"

// Domain errors - common sentinel errors for domain conditions.
var (
	// ErrNotFound indicates no row satisfies the id+ownership predicate,
	// or a referenced entity is absent.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates invalid input or validation failure. Rejected
	// before any I/O is performed.
	ErrValidation = errors.New("validation error")

	// ErrUnauthenticated indicates no valid caller identity is present.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate key).
	ErrConflict = errors.New("conflict")

	// ErrProvider indicates the remote video provider definitively rejected
	// an operation. Never retried.
	ErrProvider = errors.New("video provider error")

	// ErrProviderUnavailable indicates a transient video provider failure
	// (timeout, 5xx). Safe to retry for idempotent operations.
	ErrProviderUnavailable = errors.New("video provider unavailable")
)

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether any error in err's chain is ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnauthenticated reports whether any error in err's chain is ErrUnauthenticated.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// IsConflict reports whether any error in err's chain is ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsProvider reports whether any error in err's chain is ErrProvider or
// ErrProviderUnavailable.
func IsProvider(err error) bool {
	return errors.Is(err, ErrProvider) || errors.Is(err, ErrProviderUnavailable)
}

// IsRetryable reports whether err represents a transient failure that is safe
// to retry for idempotent operations.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}
