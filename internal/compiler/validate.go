package compiler

import (
	"fmt"

	"github.com/roach88/cellcad/internal/deck"
)

// Validation error codes (E100-E199)
const (
	ErrDuplicateSurface   = "E101" // surface id declared twice
	ErrDuplicateCell      = "E102" // cell id declared twice
	ErrDuplicateTransform = "E103" // transform id declared twice
	ErrUndefinedSurface   = "E104" // geom references an unknown surface
	ErrUndefinedUniverse  = "E105" // fill references a universe with no cells
	ErrUniverseCycle      = "E106" // universes fill each other
	ErrInvalidLattice     = "E107" // lattice shape or fill array inconsistent
	ErrInvalidImportance  = "E108" // negative importance
	ErrMissingFill        = "E109" // lattice without any fill
	ErrMissingBoundary    = "E110" // geom-less cell that is not a plain container
)

// ValidationError represents a deck validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled deck for structural errors.
// Returns all errors found (does not fail-fast).
func Validate(d *deck.Deck) []ValidationError {
	var errs []ValidationError

	surfaceIDs := make(map[int]bool)
	for i, s := range d.Surfaces {
		if surfaceIDs[s.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("surfaces[%d].id", i),
				Message: fmt.Sprintf("duplicate surface id %d", s.ID),
				Code:    ErrDuplicateSurface,
			})
		}
		surfaceIDs[s.ID] = true
	}

	transformIDs := make(map[int]bool)
	for i, t := range d.Transforms {
		if transformIDs[t.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("transforms[%d].id", i),
				Message: fmt.Sprintf("duplicate transform id %d", t.ID),
				Code:    ErrDuplicateTransform,
			})
		}
		transformIDs[t.ID] = true
	}

	cellIDs := make(map[int]bool)
	universes := make(map[int]bool)
	for _, c := range d.Cells {
		universes[c.Universe] = true
	}

	for i := range d.Cells {
		c := &d.Cells[i]
		field := fmt.Sprintf("cells[%d]", i)

		if cellIDs[c.ID] {
			errs = append(errs, ValidationError{
				Field:   field + ".id",
				Message: fmt.Sprintf("duplicate cell id %d", c.ID),
				Code:    ErrDuplicateCell,
			})
		}
		cellIDs[c.ID] = true

		if len(c.Geom) == 0 {
			switch {
			case c.Lattice != nil:
				errs = append(errs, ValidationError{
					Field:   field + ".geom",
					Message: fmt.Sprintf("lattice cell %d needs a boundary for its element", c.ID),
					Code:    ErrMissingBoundary,
				})
			case c.Fill == nil:
				errs = append(errs, ValidationError{
					Field:   field + ".geom",
					Message: fmt.Sprintf("cell %d has neither a boundary nor a fill", c.ID),
					Code:    ErrMissingBoundary,
				})
			}
		}

		reported := make(map[int]bool)
		for _, tok := range c.Geom {
			if tok.Kind != deck.TokenSurface {
				continue
			}
			id := abs(tok.Value)
			if !surfaceIDs[id] && !reported[id] {
				reported[id] = true
				errs = append(errs, ValidationError{
					Field:   field + ".geom",
					Message: fmt.Sprintf("cell %d references undefined surface %d", c.ID, id),
					Code:    ErrUndefinedSurface,
				})
			}
		}

		for particle, imp := range c.Importances {
			if imp < 0 {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.importance.%s", field, particle),
					Message: fmt.Sprintf("importance %g is negative", imp),
					Code:    ErrInvalidImportance,
				})
			}
		}

		if c.Fill != nil && !universes[c.Fill.Universe] {
			errs = append(errs, ValidationError{
				Field:   field + ".fill",
				Message: fmt.Sprintf("cell %d is filled with universe %d, which has no cells", c.ID, c.Fill.Universe),
				Code:    ErrUndefinedUniverse,
			})
		}

		if c.Lattice != nil {
			errs = append(errs, validateLattice(c, field, universes)...)
		}
	}

	for _, cyc := range AnalyzeUniverses(d) {
		errs = append(errs, ValidationError{
			Field:   "universes",
			Message: cyc.Message,
			Code:    ErrUniverseCycle,
		})
	}

	return errs
}

func validateLattice(c *deck.Cell, field string, universes map[int]bool) []ValidationError {
	var errs []ValidationError
	lat := c.Lattice
	field += ".lattice"

	invalid := func(sub, format string, args ...any) {
		errs = append(errs, ValidationError{
			Field:   field + sub,
			Message: fmt.Sprintf(format, args...),
			Code:    ErrInvalidLattice,
		})
	}

	if n := lat.Dims(); n < 1 || n > 3 {
		invalid(".pitch", "lattice needs 1 to 3 pitch vectors, got %d", n)
	}
	for i, p := range lat.Pitch {
		if p.Len() == 0 {
			invalid(fmt.Sprintf(".pitch[%d]", i), "pitch vector is zero")
		}
	}

	if lat.IsFixedSize() {
		if len(lat.Ranges) != lat.Dims() {
			invalid(".range", "%d ranges for %d pitch vectors", len(lat.Ranges), lat.Dims())
		}
		for i, r := range lat.Ranges {
			if r.Len() == 0 {
				invalid(fmt.Sprintf(".range[%d]", i), "empty range [%d, %d]", r.Min, r.Max)
			}
		}
		if len(lat.Fills) > 0 && len(lat.Fills) != lat.NodeCount() {
			invalid(".fill", "%d fill entries for %d nodes", len(lat.Fills), lat.NodeCount())
		}
	} else if len(lat.Fills) > 0 {
		invalid(".fill", "per-node fills need declared ranges")
	}

	if len(lat.Fills) == 0 && c.Fill == nil {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("lattice cell %d has no fill", c.ID),
			Code:    ErrMissingFill,
		})
	}

	for i, f := range lat.Fills {
		if f.Universe != c.Universe && !universes[f.Universe] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.fill[%d]", field, i),
				Message: fmt.Sprintf("lattice node is filled with universe %d, which has no cells", f.Universe),
				Code:    ErrUndefinedUniverse,
			})
		}
	}

	return errs
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
