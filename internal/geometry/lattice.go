package geometry

import (
	"context"
	"strconv"

	"github.com/roach88/cellcad/internal/deck"
	"github.com/roach88/cellcad/internal/kernel"
	"github.com/roach88/cellcad/internal/metrics"
)

// LatticeNode identifies one occupied lattice node of a cell.
type LatticeNode struct {
	Cell int `json:"cell"`
	X    int `json:"x"`
	Y    int `json:"y"`
	Z    int `json:"z"`
}

// latticeRun is the state shared by every node of one lattice expansion.
type latticeRun struct {
	cell     *deck.Cell
	trcl     deck.Transform
	shell    *HandleSet // [cell shell], never consumed by a node
	bound    *HandleSet // [lattice shell] or empty when unbounded
	shellBox kernel.Box
	boundBox kernel.Box
	acc      *HandleSet
}

func (r *latticeRun) bounded() bool { return r.bound.Len() > 0 }

// defineLatticeCell repeats a lattice cell's fill across its nodes.
func (b *Builder) defineLatticeCell(ctx context.Context, c *deck.Cell, embed bool, latticeShell kernel.Handle) ([]kernel.Handle, error) {
	shell, err := b.synthesize(c)
	if err != nil {
		return nil, err
	}
	if shell == kernel.Nil {
		return nil, NewGeometryError(c.ID, nil, "lattice cell has no boundary")
	}

	if !embed {
		if c.Trcl != nil {
			if shell, err = b.tracker.Transform(shell, *c.Trcl); err != nil {
				return nil, NewGeometryError(c.ID, err, "cell transform failed")
			}
		}
		b.acceptSolid(shell, c, c.Material, c.Density)
		return []kernel.Handle{shell}, nil
	}

	run := &latticeRun{
		cell:  c,
		trcl:  deck.Identity(),
		shell: b.tracker.Track(shell),
		bound: b.tracker.Track(latticeShell),
		acc:   b.tracker.Track(),
	}
	defer b.tracker.Release(run.shell)
	defer b.tracker.Release(run.bound)
	defer b.tracker.Release(run.acc)
	if c.Trcl != nil {
		run.trcl = *c.Trcl
	}

	if run.shellBox, err = b.tracker.BoundingBox(shell); err != nil {
		return nil, NewGeometryError(c.ID, err, "lattice cell bounding box")
	}
	if run.bounded() {
		if run.boundBox, err = b.tracker.BoundingBox(latticeShell); err != nil {
			return nil, NewGeometryError(c.ID, err, "lattice shell bounding box")
		}
	}

	lat := c.Lattice
	if lat.IsFixedSize() {
		rx, ry, rz := lat.Range(0), lat.Range(1), lat.Range(2)
		for z := rz.Min; z <= rz.Max; z++ {
			for y := ry.Min; y <= ry.Max; y++ {
				for x := rx.Min; x <= rx.Max; x++ {
					if _, err := b.defineLatticeNode(ctx, run, x, y, z); err != nil {
						return nil, err
					}
				}
			}
		}
	} else {
		if !run.bounded() {
			err := NewConfigurationError("infinite lattice needs a bounding container")
			err.CellID = c.ID
			return nil, err
		}
		if err := b.expandInfinite(ctx, run); err != nil {
			return nil, err
		}
	}

	if err := b.tracker.Delete(run.shell.At(0)); err != nil {
		return nil, NewGeometryError(c.ID, err, "deleting lattice cell shell")
	}
	return run.acc.Handles(), nil
}

// defineLatticeNode builds node (x, y, z) and reports whether any solid of
// it survived clipping to the lattice shell.
func (b *Builder) defineLatticeNode(ctx context.Context, run *latticeRun, x, y, z int) (bool, error) {
	c := run.cell
	lat := c.Lattice
	placement := deck.Translate(lat.NodeOffset(x, y, z)).Compose(run.trcl)

	if run.bounded() && !run.shellBox.Transform(placement).Intersects(run.boundBox) {
		b.stats.LatticeNodesSkipped++
		b.metrics.LatticeNode(metrics.NodeSkipped)
		return false, nil
	}

	fill, err := lat.FillForNode(x, y, z, c.Fill)
	if err != nil {
		return false, NewGeometryError(c.ID, err, "lattice fill")
	}

	placed, err := b.tracker.Copy(run.shell.At(0))
	if err != nil {
		return false, NewGeometryError(c.ID, err, "copying lattice cell shell")
	}
	if placed, err = b.tracker.Transform(placed, placement); err != nil {
		return false, NewGeometryError(c.ID, err, "placing lattice node (%d,%d,%d)", x, y, z)
	}

	contents := b.tracker.Track()
	defer b.tracker.Release(contents)

	if fill.Universe == c.Universe {
		// A node filled with the lattice's own universe is the bare cell,
		// carrying the lattice cell's material.
		b.acceptSolid(placed, c, c.Material, c.Density)
		contents.Add(placed)
	} else {
		fillTr := placement
		if fill.Transform != nil {
			fillTr = placement.Compose(*fill.Transform)
		}
		hs, err := b.defineUniverse(ctx, fill.Universe, placed, fillTr)
		if err != nil {
			return false, err
		}
		contents.Add(hs...)
	}

	occupied := false
	i := 0
	for i < contents.Len() {
		h := contents.At(i)
		if run.bounded() {
			tool, err := b.tracker.Copy(run.bound.At(0))
			if err != nil {
				return false, NewGeometryError(c.ID, err, "copying lattice shell")
			}
			if h, err = b.tracker.Intersect(h, tool); err != nil {
				return false, NewGeometryError(c.ID, err, "clipping lattice node (%d,%d,%d)", x, y, z)
			}
		}
		empty, err := b.tracker.IsEmpty(h)
		if err != nil {
			return false, NewGeometryError(c.ID, err, "emptiness test")
		}
		if empty {
			if err := b.dropSolid(h); err != nil {
				return false, NewGeometryError(c.ID, err, "dropping empty node solid")
			}
			continue
		}
		run.acc.Add(h)
		occupied = true
		i++
	}

	if occupied {
		b.stats.LatticeNodesOccupied++
		b.metrics.LatticeNode(metrics.NodeOccupied)
		b.nodes = append(b.nodes, LatticeNode{Cell: c.ID, X: x, Y: y, Z: z})
	} else {
		b.stats.LatticeNodesEmpty++
		b.metrics.LatticeNode(metrics.NodeEmpty)
	}
	b.trace(ctx, "lattice node", "cell", c.ID, "x", x, "y", y, "z", z, "occupied", occupied)
	return occupied, nil
}

// emptyRun counts consecutive unoccupied steps of an infinite-lattice search.
type emptyRun struct {
	limit int
	extra bool // ignore empties until something is found
	found bool
	run   int
}

// observe records one step and reports whether the search should stop.
func (e *emptyRun) observe(occupied bool) bool {
	if occupied {
		e.found = true
		e.run = 0
		return false
	}
	if e.extra && !e.found {
		return false
	}
	e.run++
	return e.run >= e.limit
}

// expandInfinite floods an unbounded lattice outward from node (0,0,0).
//
// One-dimensional lattices walk the +x and -x rays independently; each ray
// stops after the empty-run limit of consecutive empty nodes. Two- and
// three-dimensional lattices walk Chebyshev rings of growing radius and stop
// after the limit of consecutive empty rings.
func (b *Builder) expandInfinite(ctx context.Context, run *latticeRun) error {
	limit := b.opts.EmptyRunLimit()
	maxRadius := b.opts.Lattice.MaxRadius
	c := run.cell

	radiusExceeded := func(found bool) error {
		if !found {
			// Nothing within reach; the lattice lies outside its container.
			return nil
		}
		err := NewConfigurationError("infinite lattice search did not terminate")
		err.CellID = c.ID
		err.Details = map[string]string{"max_radius": strconv.Itoa(maxRadius)}
		return err
	}

	if c.Lattice.Dims() == 1 {
		origin, err := b.defineLatticeNode(ctx, run, 0, 0, 0)
		if err != nil {
			return err
		}
		for _, dir := range []int{1, -1} {
			state := &emptyRun{limit: limit, extra: b.opts.ExtraEffort, found: origin}
			for r := 1; ; r++ {
				if r > maxRadius {
					if err := radiusExceeded(state.found); err != nil {
						return err
					}
					break
				}
				occupied, err := b.defineLatticeNode(ctx, run, dir*r, 0, 0)
				if err != nil {
					return err
				}
				if state.observe(occupied) {
					break
				}
			}
		}
		return nil
	}

	state := &emptyRun{limit: limit, extra: b.opts.ExtraEffort}
	for r := 0; ; r++ {
		if r > maxRadius {
			return radiusExceeded(state.found)
		}
		occupied, err := b.defineRing(ctx, run, r)
		if err != nil {
			return err
		}
		if state.observe(occupied) {
			return nil
		}
	}
}

// defineRing builds every node at Chebyshev distance r from the origin,
// z outermost and x fastest.
func (b *Builder) defineRing(ctx context.Context, run *latticeRun, r int) (bool, error) {
	rz := 0
	if run.cell.Lattice.Dims() >= 3 {
		rz = r
	}
	found := false
	for z := -rz; z <= rz; z++ {
		for y := -r; y <= r; y++ {
			for x := -r; x <= r; x++ {
				if chebyshev(x, y, z) != r {
					continue
				}
				occupied, err := b.defineLatticeNode(ctx, run, x, y, z)
				if err != nil {
					return false, err
				}
				found = found || occupied
			}
		}
	}
	return found, nil
}

func chebyshev(x, y, z int) int {
	return max(abs(x), abs(y), abs(z))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
