package geometry

import (
	"context"

	"github.com/roach88/cellcad/internal/deck"
	"github.com/roach88/cellcad/internal/kernel"
)

// defineUniverse builds every cell of universe u and places the results.
//
// With a container, the container is moved into universe-local coordinates
// (the inverse of tr), each child is clipped to a copy of it, children that
// clip to nothing are dropped, the container is deleted and the survivors
// are moved back under tr. A universe made of a single lattice cell takes
// the container as its lattice shell instead of clipping.
//
// The container is consumed.
func (b *Builder) defineUniverse(ctx context.Context, u int, container kernel.Handle, tr deck.Transform) ([]kernel.Handle, error) {
	if err := b.guard.Enter(u); err != nil {
		if container != kernel.Nil {
			_ = b.tracker.Delete(container)
		}
		return nil, err
	}
	defer b.guard.Exit()
	b.stats.Universes++

	cells := b.deck.CellsOfUniverse(u)
	if len(cells) == 0 {
		if container != kernel.Nil {
			_ = b.tracker.Delete(container)
		}
		return nil, NewGeometryError(0, nil, "universe %d has no cells", u)
	}
	b.trace(ctx, "enter universe", "universe", u, "cells", len(cells), "contained", container != kernel.Nil, "path", b.guard.Path())

	held := b.tracker.Track(container)
	defer b.tracker.Release(held)

	if container != kernel.Nil {
		local, err := b.tracker.Transform(container, tr.Inverse())
		if err != nil {
			return nil, NewGeometryError(0, err, "moving container into universe %d", u)
		}
		container = local
	}

	acc := b.tracker.Track()
	defer b.tracker.Release(acc)

	if container != kernel.Nil && len(cells) == 1 && cells[0].IsLattice() {
		hs, err := b.defineCell(ctx, cells[0], b.opts.EmbedUniverses, held.At(0))
		if err != nil {
			return nil, err
		}
		acc.Add(hs...)
	} else {
		for _, c := range cells {
			hs, err := b.defineCell(ctx, c, b.opts.EmbedUniverses, kernel.Nil)
			if err != nil {
				return nil, err
			}
			acc.Add(hs...)
		}
		if held.Len() > 0 {
			if err := b.clipToContainer(ctx, acc, held); err != nil {
				return nil, err
			}
		}
	}

	if held.Len() > 0 {
		if err := b.tracker.Delete(held.At(0)); err != nil {
			return nil, NewGeometryError(0, err, "deleting container of universe %d", u)
		}
	}

	if !tr.IsIdentity() {
		for i := 0; i < acc.Len(); i++ {
			if _, err := b.tracker.Transform(acc.At(i), tr); err != nil {
				return nil, NewGeometryError(0, err, "placing universe %d", u)
			}
		}
	}

	b.trace(ctx, "exit universe", "universe", u, "solids", acc.Len())
	return acc.Handles(), nil
}

// clipToContainer intersects every solid in acc with a copy of the
// container held in held[0]. Solids clipped to nothing are deleted and
// leave acc.
func (b *Builder) clipToContainer(ctx context.Context, acc, held *HandleSet) error {
	i := 0
	for i < acc.Len() {
		child := acc.At(i)
		tool, err := b.tracker.Copy(held.At(0))
		if err != nil {
			return NewGeometryError(0, err, "copying container")
		}
		clipped, err := b.tracker.Intersect(child, tool)
		if err != nil {
			return NewGeometryError(0, err, "clipping to container")
		}
		empty, err := b.tracker.IsEmpty(clipped)
		if err != nil {
			return NewGeometryError(0, err, "emptiness test")
		}
		if empty {
			b.trace(ctx, "dropped solid outside container", "handle", clipped.String())
			if err := b.dropSolid(clipped); err != nil {
				return NewGeometryError(0, err, "dropping empty solid")
			}
			continue
		}
		i++
	}
	return nil
}
