package harness

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/cellcad/internal/engine"
	"github.com/roach88/cellcad/internal/geometry"
	"github.com/roach88/cellcad/internal/kernel"
	"github.com/roach88/cellcad/internal/queryir"
	"github.com/roach88/cellcad/internal/store"
)

// journalTail is how many trailing operations an assertion failure shows.
const journalTail = 8

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string             // Assertion type for categorization
	Expected string             // Human-readable expected outcome
	Actual   string             // Human-readable actual outcome
	Journal  []kernel.Operation // Journal for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Journal) > 0 {
		tail := e.Journal
		if len(tail) > journalTail {
			tail = tail[len(tail)-journalTail:]
		}
		fmt.Fprintf(&buf, "\nJournal tail (%d of %d):\n", len(tail), len(e.Journal))
		for _, op := range tail {
			fmt.Fprintf(&buf, "  %s\n", op)
		}
	}

	return buf.String()
}

// AssertionContext carries the build outcome assertions run against.
type AssertionContext struct {
	Ctx   context.Context
	Store *store.Store
	RunID string

	// Report is nil when deck validation failed.
	Report *engine.Report

	// BuildErr is the validation or build failure, nil on success.
	BuildErr error
}

func (c *AssertionContext) journal() []kernel.Operation {
	if c.Report == nil {
		return nil
	}
	return c.Report.Journal
}

func (c *AssertionContext) result() *geometry.Result {
	if c.Report == nil {
		return nil
	}
	return c.Report.Result
}

// EvaluateAssertions checks every assertion and returns the failure
// messages in assertion order.
//
// A build that fails without an error assertion yields a single failure;
// the remaining assertions are not evaluated.
func EvaluateAssertions(s *Scenario, actx *AssertionContext) []string {
	expected, wantErr := s.expectsError()
	if actx.BuildErr != nil && !wantErr {
		return []string{(&AssertionError{
			Type:     "build",
			Expected: "build to succeed",
			Actual:   actx.BuildErr.Error(),
			Journal:  actx.journal(),
		}).Error()}
	}
	if wantErr && actx.BuildErr == nil {
		return []string{(&AssertionError{
			Type:     AssertError,
			Expected: describeExpectedError(expected),
			Actual:   "build succeeded",
		}).Error()}
	}

	var errs []string
	for _, a := range s.Assertions {
		if err := evaluate(a, actx); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertError:
		return assertError(actx, a)
	case AssertOperationCount:
		return assertOperationCount(actx, a)
	}

	res := actx.result()
	if res == nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: "a build result",
			Actual:   "the build failed",
			Journal:  actx.journal(),
		}
	}

	switch a.Type {
	case AssertGroupMembers:
		return assertGroupMembers(res, a)
	case AssertGroupAbsent:
		return assertGroupAbsent(res, a)
	case AssertBodyCount:
		if got := len(res.Handles); got != *a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d solids", *a.Count),
				Actual:   fmt.Sprintf("%d solids: %v", got, res.Handles),
			}
		}
	case AssertNamePresent:
		return assertNamePresent(res, a)
	case AssertLatticeNodes:
		if got := len(res.LatticeNodes); got != *a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d occupied lattice nodes", *a.Count),
				Actual:   fmt.Sprintf("%d occupied lattice nodes", got),
			}
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// assertGroupMembers compares a group with the solids of the listed cells
// (as a set) and/or with a member count.
func assertGroupMembers(res *geometry.Result, a Assertion) error {
	members, ok := res.Group(a.Group)
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("group %q", a.Group),
			Actual:   fmt.Sprintf("no such group; groups: %s", groupNames(res)),
		}
	}

	if a.Count != nil && len(members) != *a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d members in %q", *a.Count, a.Group),
			Actual:   fmt.Sprintf("%d members: %v", len(members), members),
		}
	}

	if len(a.Cells) == 0 {
		return nil
	}
	var want []kernel.Handle
	for _, id := range a.Cells {
		hs := res.HandlesNamed(geometry.CellName(id))
		if len(hs) == 0 {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("cell %d in %q", id, a.Group),
				Actual:   fmt.Sprintf("no solid named %s", geometry.CellName(id)),
			}
		}
		want = append(want, hs...)
	}
	if !sameHandles(want, members) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%q = solids of cells %v %v", a.Group, a.Cells, sortedHandles(want)),
			Actual:   fmt.Sprintf("%v", sortedHandles(members)),
		}
	}
	return nil
}

func assertGroupAbsent(res *geometry.Result, a Assertion) error {
	if members, ok := res.Group(a.Group); ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("no group %q", a.Group),
			Actual:   fmt.Sprintf("group with %d members", len(members)),
		}
	}
	return nil
}

func assertNamePresent(res *geometry.Result, a Assertion) error {
	got := len(res.HandlesNamed(a.Name))
	if a.Count != nil {
		if got != *a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d solids named %q", *a.Count, a.Name),
				Actual:   fmt.Sprintf("%d solids", got),
			}
		}
		return nil
	}
	if got == 0 {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("a solid named %q", a.Name),
			Actual:   "no such name",
		}
	}
	return nil
}

// assertOperationCount counts journal entries in the store, so it also
// covers the persisted form of the journal.
func assertOperationCount(actx *AssertionContext, a Assertion) error {
	var filter []queryir.Predicate
	filter = append(filter, queryir.OpIs{Op: a.Op})
	if a.Failed {
		filter = append(filter, queryir.Failed{})
	}
	ops, err := actx.Store.ReadOperations(actx.Ctx, queryir.Operations{
		Run:    actx.RunID,
		Filter: queryir.AllOf(filter...),
	})
	if err != nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("journal query for %s", a.Op),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	if len(ops) != *a.Count {
		what := a.Op
		if a.Failed {
			what = "failed " + what
		}
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d %s calls", *a.Count, what),
			Actual:   fmt.Sprintf("%d calls", len(ops)),
			Journal:  ops,
		}
	}
	return nil
}

func assertError(actx *AssertionContext, a Assertion) error {
	err := actx.BuildErr
	if a.Code != "" && !buildErrorMatches(err, a.Code) {
		return &AssertionError{
			Type:     a.Type,
			Expected: describeExpectedError(a),
			Actual:   err.Error(),
			Journal:  actx.journal(),
		}
	}
	if a.Contains != "" && !strings.Contains(err.Error(), a.Contains) {
		return &AssertionError{
			Type:     a.Type,
			Expected: describeExpectedError(a),
			Actual:   err.Error(),
			Journal:  actx.journal(),
		}
	}
	return nil
}

func describeExpectedError(a Assertion) string {
	var parts []string
	if a.Code != "" {
		parts = append(parts, "code "+a.Code)
	}
	if a.Contains != "" {
		parts = append(parts, fmt.Sprintf("message containing %q", a.Contains))
	}
	return "build failure with " + strings.Join(parts, " and ")
}

// errorCode returns the build error code carried by err, or "".
func errorCode(err error) string {
	var be *geometry.BuildError
	if errors.As(err, &be) {
		return string(be.Code)
	}
	return ""
}

func groupNames(res *geometry.Result) string {
	names := make([]string, len(res.Groups))
	for i, g := range res.Groups {
		names[i] = g.Name
	}
	return strings.Join(names, ", ")
}

func sortedHandles(hs []kernel.Handle) []kernel.Handle {
	out := append([]kernel.Handle(nil), hs...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sameHandles(a, b []kernel.Handle) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := sortedHandles(a), sortedHandles(b)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}
