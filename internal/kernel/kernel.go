package kernel

import (
	"fmt"

	"github.com/roach88/cellcad/internal/deck"
)

// Handle is an opaque reference to a kernel entity.
type Handle uint64

// Nil is the absent handle.
const Nil Handle = 0

// String renders the handle for logs and journals.
func (h Handle) String() string {
	if h == Nil {
		return "nil"
	}
	return fmt.Sprintf("#%d", uint64(h))
}

// Substitution records that Old was retired and replaced by New.
// New == Nil means Old was consumed without replacement.
type Substitution struct {
	Old Handle `json:"old"`
	New Handle `json:"new"`
}

// Result is the outcome of a solid-altering operation.
type Result struct {
	Handle        Handle         `json:"handle"`
	Substitutions []Substitution `json:"substitutions,omitempty"`
}

// Kernel is the geometry kernel contract consumed by the geometry core.
//
// Implementations are not required to be reentrant; the core calls them
// from a single goroutine.
type Kernel interface {
	// CreatePrimitive builds a solid from a bounded region descriptor.
	CreatePrimitive(r Region) (Handle, error)

	// Copy duplicates a solid. The original stays valid.
	Copy(h Handle) (Handle, error)

	// Intersect keeps the points in both blank and tool.
	Intersect(blank, tool Handle) (Result, error)

	// Unite keeps the points in either blank or tool.
	Unite(blank, tool Handle) (Result, error)

	// Subtract keeps the points of blank not in tool.
	Subtract(blank, tool Handle) (Result, error)

	// Transform applies a rigid placement to h.
	Transform(h Handle, t deck.Transform) (Result, error)

	// Delete retires h.
	Delete(h Handle) error

	// IsEmpty reports whether h encloses no volume.
	IsEmpty(h Handle) (bool, error)

	// BoundingBox returns a box enclosing h (possibly conservative).
	BoundingBox(h Handle) (Box, error)

	// Valid reports whether h refers to a live entity.
	Valid(h Handle) bool

	// Bodies returns a snapshot of every live entity.
	Bodies() []Handle

	// SetName assigns a kernel-visible name to h.
	SetName(h Handle, name string) error

	// CreateGroup creates a named entity group containing hs.
	CreateGroup(name string, hs []Handle) error

	// Imprint imprints the given bodies against each other.
	Imprint(hs []Handle) ([]Substitution, error)

	// Merge merges coincident topology of the given bodies. Faces closer
	// than tolerance fuse; tolerance <= 0 selects the kernel default.
	Merge(hs []Handle, tolerance float64) ([]Substitution, error)
}
