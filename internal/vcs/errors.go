package vcs

import "errors"

// Sentinel errors for the engine's failure taxonomy. Callers classify with
// errors.Is; messages carry the specifics.
var (
	// ErrNotFound signals an absent branch, commit or content reference.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals an optimistic head-advance race. Retryable: the
	// caller should re-read the branch head and try again.
	ErrConflict = errors.New("conflict")

	// ErrInvalidState signals an operation that cannot proceed in the
	// project's current state, e.g. a merge with no main branch.
	ErrInvalidState = errors.New("invalid state")
)

// IsRetryable reports whether the error is a transient race the caller may
// retry with a fresh read.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
