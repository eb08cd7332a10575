package geometry

import (
	"context"
	"sort"

	"github.com/roach88/cellcad/internal/deck"
	"github.com/roach88/cellcad/internal/kernel"
)

// defineCell builds the solids of one cell in its universe's coordinates.
//
//   - No fill: the synthesized solid under TRCL, tagged once.
//   - Fill: the shell under TRCL, consumed as the container of the fill
//     universe expanded under TRCL∘fill transform. With embed false the
//     bare shell is returned instead.
//   - Lattice: the cell shell is repeated across lattice nodes clipped to
//     latticeShell (the container of the lattice universe, possibly Nil).
func (b *Builder) defineCell(ctx context.Context, c *deck.Cell, embed bool, latticeShell kernel.Handle) ([]kernel.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.stats.Cells++
	b.metrics.CellDefined()
	b.trace(ctx, "define cell", "cell", c.ID, "universe", c.Universe, "fill", c.HasFill(), "lattice", c.IsLattice())

	if c.IsLattice() {
		return b.defineLatticeCell(ctx, c, embed, latticeShell)
	}

	shell, err := b.synthesize(c)
	if err != nil {
		return nil, err
	}
	if shell != kernel.Nil && c.Trcl != nil {
		if shell, err = b.tracker.Transform(shell, *c.Trcl); err != nil {
			return nil, NewGeometryError(c.ID, err, "cell transform failed")
		}
	}

	if !c.HasFill() {
		if shell == kernel.Nil {
			return nil, NewGeometryError(c.ID, nil, "cell has neither boundary nor fill")
		}
		b.acceptSolid(shell, c, c.Material, c.Density)
		return []kernel.Handle{shell}, nil
	}

	if !embed {
		if shell == kernel.Nil {
			b.trace(ctx, "pure container skipped in shell preview", "cell", c.ID)
			return nil, nil
		}
		b.acceptSolid(shell, c, c.Material, c.Density)
		return []kernel.Handle{shell}, nil
	}

	fillTr := deck.Identity()
	if c.Trcl != nil {
		fillTr = *c.Trcl
	}
	if c.Fill.Transform != nil {
		fillTr = fillTr.Compose(*c.Fill.Transform)
	}
	return b.defineUniverse(ctx, c.Fill.Universe, shell, fillTr)
}

// acceptSolid counts h as a result solid and tags it.
func (b *Builder) acceptSolid(h kernel.Handle, c *deck.Cell, material int, density float64) {
	b.expected++
	b.tag(h, c, material, density)
}

// dropSolid deletes a counted solid whose volume turned out empty.
func (b *Builder) dropSolid(h kernel.Handle) error {
	if err := b.tracker.Delete(h); err != nil {
		return err
	}
	b.expected--
	return nil
}

// tag requests the metadata of a leaf solid. Tags land in the registry
// and reach the kernel only when the build finalizes.
func (b *Builder) tag(h kernel.Handle, c *deck.Cell, material int, density float64) {
	reg := b.tracker.Registry()
	if b.opts.TagMaterials && material != 0 {
		reg.Group(MaterialGroupName(material, density, b.opts.UWUWNames)).Add(h)
	}
	if b.opts.TagImportances && len(c.Importances) > 0 {
		particles := make([]string, 0, len(c.Importances))
		for p := range c.Importances {
			particles = append(particles, p)
		}
		sort.Strings(particles)
		for _, p := range particles {
			reg.Group(ImportanceGroupName(p, c.Importances[p])).Add(h)
		}
	}
	if b.opts.TagCellIDs {
		reg.AddEntity(h, CellName(c.ID))
	}
	for _, label := range c.Labels {
		reg.Group(label).Add(h)
	}
}
