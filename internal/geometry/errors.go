package geometry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode categorizes build errors.
type ErrorCode string

const (
	// ErrCodeGeometry indicates a surface or cell that cannot be synthesized,
	// or a kernel operation that failed.
	ErrCodeGeometry ErrorCode = "GEOMETRY_ERROR"

	// ErrCodeConsistency indicates the registry diverged from the kernel.
	ErrCodeConsistency ErrorCode = "CONSISTENCY_ERROR"

	// ErrCodeConfiguration indicates options or deck structure the builder
	// cannot run with (universe cycles, depth and radius quotas).
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
)

// BuildError is returned by CreateGeometry. Every error aborts the build.
type BuildError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// CellID identifies the affected cell (0 when not cell-specific).
	CellID int

	// SurfaceID identifies the affected surface (0 when not surface-specific).
	SurfaceID int

	// Expected and Observed carry counts for consistency errors.
	Expected int
	Observed int

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)

	var ctx []string
	if e.CellID != 0 {
		ctx = append(ctx, fmt.Sprintf("cell=%d", e.CellID))
	}
	if e.SurfaceID != 0 {
		ctx = append(ctx, fmt.Sprintf("surface=%d", e.SurfaceID))
	}
	if e.Code == ErrCodeConsistency {
		ctx = append(ctx, fmt.Sprintf("expected=%d", e.Expected), fmt.Sprintf("observed=%d", e.Observed))
	}
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ctx = append(ctx, k+"="+e.Details[k])
	}
	if len(ctx) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(ctx, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *BuildError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code ErrorCode) bool {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// IsGeometryError reports whether err is a geometry error.
// Uses errors.As to handle wrapped errors.
func IsGeometryError(err error) bool {
	return hasCode(err, ErrCodeGeometry)
}

// IsConsistencyError reports whether err is a consistency error.
func IsConsistencyError(err error) bool {
	return hasCode(err, ErrCodeConsistency)
}

// IsConfigurationError reports whether err is a configuration error.
func IsConfigurationError(err error) bool {
	return hasCode(err, ErrCodeConfiguration)
}

// NewGeometryError creates a geometry error for a cell.
func NewGeometryError(cellID int, err error, format string, args ...any) *BuildError {
	return &BuildError{
		Code:    ErrCodeGeometry,
		Message: fmt.Sprintf(format, args...),
		CellID:  cellID,
		Err:     err,
	}
}

// NewConsistencyError creates a consistency error with expected and observed counts.
func NewConsistencyError(expected, observed int, format string, args ...any) *BuildError {
	return &BuildError{
		Code:     ErrCodeConsistency,
		Message:  fmt.Sprintf(format, args...),
		Expected: expected,
		Observed: observed,
	}
}

// NewConfigurationError creates a configuration error.
func NewConfigurationError(format string, args ...any) *BuildError {
	return &BuildError{
		Code:    ErrCodeConfiguration,
		Message: fmt.Sprintf(format, args...),
	}
}
