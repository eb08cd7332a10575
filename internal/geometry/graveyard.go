package geometry

import (
	"context"

	"github.com/roach88/cellcad/internal/kernel"
)

// graveyardMargin is the outer cube's extra half-width relative to the inner cube.
const graveyardMargin = 1.0 / 50

// makeGraveyard builds the bounding shell around the assembly: an outer
// cube minus an origin-centered inner cube enclosing every result solid.
func (b *Builder) makeGraveyard(ctx context.Context, results *HandleSet) (kernel.Handle, error) {
	extent := kernel.EmptyBox()
	for _, h := range results.Handles() {
		box, err := b.tracker.BoundingBox(h)
		if err != nil {
			return kernel.Nil, NewGeometryError(0, err, "bounding box of %s", h)
		}
		extent = extent.Union(box)
	}
	w := extent.FarthestExtent()
	if w == 0 {
		w = b.world
	}

	outer, err := b.tracker.CreatePrimitive(kernel.Cube(w + w*graveyardMargin))
	if err != nil {
		return kernel.Nil, NewGeometryError(0, err, "graveyard outer cube")
	}
	inner, err := b.tracker.CreatePrimitive(kernel.Cube(w))
	if err != nil {
		return kernel.Nil, NewGeometryError(0, err, "graveyard inner cube")
	}
	shell, err := b.tracker.Subtract(outer, inner)
	if err != nil {
		return kernel.Nil, NewGeometryError(0, err, "graveyard shell")
	}

	b.expected++
	b.tracker.Registry().Group(graveyardGroupName(b.opts.UWUWNames)).Add(shell)
	b.trace(ctx, "graveyard", "half_width", w, "handle", shell.String())
	return shell, nil
}
