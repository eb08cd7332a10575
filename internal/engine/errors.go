package engine

import (
	"errors"
	"fmt"
)

// RunError reports a problem with a stored run, as opposed to the build
// itself (see geometry.BuildError).
type RunError struct {
	// Code identifies the error category.
	Code RunErrorCode

	// Message is a human-readable description.
	Message string

	// RunID identifies the affected run, when known.
	RunID string

	// Err is the underlying cause, if any.
	Err error
}

// RunErrorCode categorizes run errors.
type RunErrorCode string

const (
	// ErrCodeNoStore indicates an operation that needs a build store.
	ErrCodeNoStore RunErrorCode = "NO_STORE"

	// ErrCodeRunNotFound indicates the run id is not in the store.
	ErrCodeRunNotFound RunErrorCode = "RUN_NOT_FOUND"

	// ErrCodeCorruptRun indicates a stored run that cannot be rebuilt.
	ErrCodeCorruptRun RunErrorCode = "CORRUPT_RUN"

	// ErrCodeStoreWrite indicates the build ran but could not be recorded.
	ErrCodeStoreWrite RunErrorCode = "STORE_WRITE"
)

// Error implements the error interface.
func (e *RunError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.RunID != "" {
		msg += fmt.Sprintf(" (run=%s)", e.RunID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RunError) Unwrap() error {
	return e.Err
}

// IsRunNotFound returns true if err reports a missing run.
// Uses errors.As to handle wrapped errors.
func IsRunNotFound(err error) bool {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code == ErrCodeRunNotFound
	}
	return false
}

// IsStoreWriteError returns true if the build could not be recorded.
func IsStoreWriteError(err error) bool {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code == ErrCodeStoreWrite
	}
	return false
}
