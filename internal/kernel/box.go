package kernel

import (
	"math"

	"github.com/roach88/cellcad/internal/deck"
)

// Box is an axis-aligned bounding box.
type Box struct {
	Min deck.Vec3 `json:"min"`
	Max deck.Vec3 `json:"max"`
}

// EmptyBox returns a box containing nothing; it is the identity of Union.
func EmptyBox() Box {
	inf := math.Inf(1)
	return Box{Min: deck.Vec3{inf, inf, inf}, Max: deck.Vec3{-inf, -inf, -inf}}
}

// IsEmpty reports whether the box has no extent on some axis.
func (b Box) IsEmpty() bool {
	for i := 0; i < 3; i++ {
		if b.Max[i] < b.Min[i] {
			return true
		}
	}
	return false
}

// Union returns the smallest box enclosing b and o.
func (b Box) Union(o Box) Box {
	if b.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return b
	}
	var r Box
	for i := 0; i < 3; i++ {
		r.Min[i] = math.Min(b.Min[i], o.Min[i])
		r.Max[i] = math.Max(b.Max[i], o.Max[i])
	}
	return r
}

// Intersect returns the overlap of b and o (possibly empty).
func (b Box) Intersect(o Box) Box {
	var r Box
	for i := 0; i < 3; i++ {
		r.Min[i] = math.Max(b.Min[i], o.Min[i])
		r.Max[i] = math.Min(b.Max[i], o.Max[i])
	}
	return r
}

// Intersects reports whether b and o overlap.
func (b Box) Intersects(o Box) bool {
	return !b.Intersect(o).IsEmpty()
}

// Contains reports whether p lies inside b.
func (b Box) Contains(p deck.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Transform returns the box enclosing b's corners mapped through t.
func (b Box) Transform(t deck.Transform) Box {
	if b.IsEmpty() {
		return b
	}
	out := EmptyBox()
	for i := 0; i < 8; i++ {
		corner := deck.Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			corner[0] = b.Max[0]
		}
		if i&2 != 0 {
			corner[1] = b.Max[1]
		}
		if i&4 != 0 {
			corner[2] = b.Max[2]
		}
		p := t.Apply(corner)
		out = out.Union(Box{Min: p, Max: p})
	}
	return out
}

// FarthestExtent returns the largest absolute coordinate of b.
func (b Box) FarthestExtent() float64 {
	if b.IsEmpty() {
		return 0
	}
	m := 0.0
	for i := 0; i < 3; i++ {
		m = math.Max(m, math.Abs(b.Min[i]))
		m = math.Max(m, math.Abs(b.Max[i]))
	}
	return m
}
