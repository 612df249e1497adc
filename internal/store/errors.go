package store

import "errors"

var (
	// ErrNotFound means no active record exists for the code.
	ErrNotFound = errors.New("link not found")
	// ErrCodeConflict means an active record already holds the code.
	// Callers retry with a fresh candidate.
	ErrCodeConflict = errors.New("code already active")
)

// IsNotFound reports whether err is a not-found condition.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err indicates a code collision.
func IsConflict(err error) bool { return errors.Is(err, ErrCodeConflict) }
