package harness

import (
	"github.com/roach88/cellcad/internal/engine"
	"github.com/roach88/cellcad/internal/kernel"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if the build outcome and every assertion match.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Journal contains every kernel call in order, up to the failing call
	// when the build failed.
	Journal []kernel.Operation `json:"journal"`

	// BuildError is the build failure, empty when the build succeeded.
	BuildError string `json:"build_error,omitempty"`

	// Report is the engine report, kept for callers that inspect the model.
	Report *engine.Report `json:"-"`
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Errors:  []string{},
		Journal: []kernel.Operation{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
