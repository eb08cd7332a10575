package geometry

import (
	"errors"

	"github.com/roach88/cellcad/internal/deck"
	"github.com/roach88/cellcad/internal/kernel"
	"github.com/roach88/cellcad/internal/volume"
)

// synthesize folds a cell's boundary expression into one solid in the
// cell's local coordinates. It returns Nil for a cell with no boundary
// terms (a pure container).
//
// The expression is RPN. Operands live on a tracked stack, so a boolean
// result replaces its blank in place and the tool drops off the top.
func (b *Builder) synthesize(c *deck.Cell) (kernel.Handle, error) {
	if len(c.Geom) == 0 {
		return kernel.Nil, nil
	}

	stack := b.tracker.Track()
	defer b.tracker.Release(stack)

	for _, tok := range c.Geom {
		switch tok.Kind {
		case deck.TokenSurface:
			h, err := b.surfaceSolid(c, tok.Value)
			if err != nil {
				b.discard(stack)
				return kernel.Nil, err
			}
			stack.Add(h)

		case deck.TokenIntersect, deck.TokenUnion:
			if stack.Len() < 2 {
				b.discard(stack)
				return kernel.Nil, NewGeometryError(c.ID, nil, "malformed boundary expression: %s needs two operands", tok)
			}
			blank, tool := stack.At(stack.Len()-2), stack.Last()
			var (
				r   kernel.Handle
				err error
			)
			if tok.Kind == deck.TokenIntersect {
				r, err = b.tracker.Intersect(blank, tool)
			} else {
				r, err = b.tracker.Unite(blank, tool)
			}
			if err != nil {
				b.discard(stack)
				return kernel.Nil, NewGeometryError(c.ID, err, "boolean %s failed", tok.Kind)
			}
			if stack.Last() != r {
				b.discard(stack)
				return kernel.Nil, NewConsistencyError(1, 0, "kernel result %s did not replace its blank", r)
			}

		case deck.TokenComplement:
			if stack.Len() < 1 {
				return kernel.Nil, NewGeometryError(c.ID, nil, "malformed boundary expression: complement needs an operand")
			}
			operand := stack.Last()
			world, err := b.tracker.CreatePrimitive(kernel.WorldSphere(b.world))
			if err != nil {
				b.discard(stack)
				return kernel.Nil, NewGeometryError(c.ID, err, "world sphere")
			}
			r, err := b.tracker.Subtract(world, operand)
			if err != nil {
				if derr := b.tracker.Delete(world); derr != nil {
					b.logger.Debug("discard failed", "handle", world.String(), "error", derr)
				}
				b.discard(stack)
				return kernel.Nil, NewGeometryError(c.ID, err, "complement failed")
			}
			stack.Add(r)

		default:
			b.discard(stack)
			return kernel.Nil, NewGeometryError(c.ID, nil, "unknown boundary token %q", tok.Kind)
		}
	}

	if stack.Len() != 1 {
		b.discard(stack)
		return kernel.Nil, NewGeometryError(c.ID, nil, "malformed boundary expression: %d operands left", stack.Len())
	}
	return stack.Last(), nil
}

// surfaceSolid builds the bounded region of one signed surface reference.
func (b *Builder) surfaceSolid(c *deck.Cell, signed int) (kernel.Handle, error) {
	id, sense := signed, -1
	if signed > 0 {
		sense = 1
	} else {
		id = -signed
	}
	s, ok := b.deck.Surface(id)
	if !ok {
		e := NewGeometryError(c.ID, nil, "undefined surface")
		e.SurfaceID = id
		return kernel.Nil, e
	}
	region, err := volume.Region(s, sense, b.world)
	if err != nil {
		e := NewGeometryError(c.ID, err, "surface cannot be bounded")
		e.SurfaceID = id
		var se *volume.SurfaceError
		if errors.As(err, &se) {
			e.Details = map[string]string{"type": se.Type}
		}
		return kernel.Nil, e
	}
	h, err := b.tracker.CreatePrimitive(region)
	if err != nil {
		e := NewGeometryError(c.ID, err, "primitive construction failed")
		e.SurfaceID = id
		return kernel.Nil, e
	}
	return h, nil
}

// discard deletes every solid still held by s. Used on the failure path so
// an aborted build leaves no orphaned intermediates behind.
func (b *Builder) discard(s *HandleSet) {
	for _, h := range s.Handles() {
		if err := b.tracker.Delete(h); err != nil {
			b.logger.Debug("discard failed", "handle", h.String(), "error", err)
		}
	}
}
