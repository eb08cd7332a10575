package geometry

import (
	"fmt"
	"strings"
)

// UniverseGuard bounds recursion through nested universes.
//
// The guard keeps the stack of universes currently being expanded. Entering
// a universe already on the stack means the fill graph is self-referential
// and would recurse forever; entering past maxDepth means the nesting is
// deeper than the build allows. Both fail with a configuration error
// instead of exhausting the call stack.
//
// A universe may appear many times in a build (once per fill or lattice
// node); only nesting inside itself is a cycle.
type UniverseGuard struct {
	maxDepth int
	stack    []int
	active   map[int]bool
	peak     int
}

// NewUniverseGuard creates a guard allowing maxDepth nested universes.
func NewUniverseGuard(maxDepth int) *UniverseGuard {
	return &UniverseGuard{
		maxDepth: maxDepth,
		active:   make(map[int]bool),
	}
}

// Enter pushes u onto the expansion stack.
func (g *UniverseGuard) Enter(u int) error {
	var err *BuildError
	switch {
	case g.active[u]:
		err = NewConfigurationError("universe %d fills itself", u)
	case len(g.stack) >= g.maxDepth:
		err = NewConfigurationError("universe nesting exceeds max depth %d", g.maxDepth)
	}
	if err != nil {
		err.Details = map[string]string{"path": g.pathString(u)}
		return err
	}
	g.stack = append(g.stack, u)
	g.active[u] = true
	if len(g.stack) > g.peak {
		g.peak = len(g.stack)
	}
	return nil
}

// Exit pops the innermost universe.
func (g *UniverseGuard) Exit() {
	if len(g.stack) == 0 {
		return
	}
	u := g.stack[len(g.stack)-1]
	g.stack = g.stack[:len(g.stack)-1]
	delete(g.active, u)
}

// Depth returns the number of universes being expanded.
func (g *UniverseGuard) Depth() int { return len(g.stack) }

// Peak returns the deepest nesting reached.
func (g *UniverseGuard) Peak() int { return g.peak }

// Path returns the expansion stack, outermost first.
func (g *UniverseGuard) Path() []int {
	return append([]int(nil), g.stack...)
}

func (g *UniverseGuard) pathString(next int) string {
	parts := make([]string, 0, len(g.stack)+1)
	for _, u := range g.stack {
		parts = append(parts, fmt.Sprintf("%d", u))
	}
	parts = append(parts, fmt.Sprintf("%d", next))
	return strings.Join(parts, " -> ")
}
