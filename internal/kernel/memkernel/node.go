package memkernel

import (
	"math"

	"github.com/roach88/cellcad/internal/deck"
	"github.com/roach88/cellcad/internal/kernel"
)

// node is one vertex of an immutable CSG tree.
//
// contains tests the closed point set. interior tests its open interior,
// under-approximated for unions. classify bounds the node over a box.
type node interface {
	contains(p deck.Vec3) bool
	interior(p deck.Vec3) bool
	classify(b kernel.Box) class
	bounds() kernel.Box
}

type primNode struct {
	r kernel.Region
}

func (n primNode) rawContains(p deck.Vec3) bool {
	r := n.r
	switch r.Kind {
	case kernel.RegionBox:
		for i := 0; i < 3; i++ {
			if p[i] < r.Min[i] || p[i] > r.Max[i] {
				return false
			}
		}
		return true
	case kernel.RegionSphere:
		return p.Sub(r.Center).Len() <= r.Radius
	case kernel.RegionCylinder:
		d := p.Sub(r.Center)
		h := d.Dot(r.Axis.Unit())
		if math.Abs(h) > r.HalfLength {
			return false
		}
		return d.Dot(d)-h*h <= r.Radius*r.Radius
	case kernel.RegionHalfSpace:
		return r.Normal.Dot(p) <= r.Offset
	}
	return false
}

func (n primNode) contains(p deck.Vec3) bool {
	in := n.rawContains(p)
	if n.r.Outside {
		in = !in
	}
	if n.r.Outside || n.r.Kind == kernel.RegionHalfSpace {
		return in && p.Len() <= n.r.World
	}
	return in
}

func (n primNode) rawInterior(p deck.Vec3) bool {
	r := n.r
	switch r.Kind {
	case kernel.RegionBox:
		for i := 0; i < 3; i++ {
			if p[i] <= r.Min[i] || p[i] >= r.Max[i] {
				return false
			}
		}
		return true
	case kernel.RegionSphere:
		return p.Sub(r.Center).Len() < r.Radius
	case kernel.RegionCylinder:
		d := p.Sub(r.Center)
		h := d.Dot(r.Axis.Unit())
		if math.Abs(h) >= r.HalfLength {
			return false
		}
		return d.Dot(d)-h*h < r.Radius*r.Radius
	case kernel.RegionHalfSpace:
		return r.Normal.Dot(p) < r.Offset
	}
	return false
}

func (n primNode) interior(p deck.Vec3) bool {
	var in bool
	if n.r.Outside {
		in = !n.rawContains(p)
	} else {
		in = n.rawInterior(p)
	}
	if n.r.Outside || n.r.Kind == kernel.RegionHalfSpace {
		return in && p.Len() < n.r.World
	}
	return in
}

func (n primNode) classify(b kernel.Box) class {
	c := classifyRegion(n.r, b)
	if n.r.Outside {
		c = c.complement()
	}
	if n.r.Outside || n.r.Kind == kernel.RegionHalfSpace {
		c = c.and(classifyBall(deck.Vec3{}, n.r.World, b))
	}
	return c
}

func (n primNode) bounds() kernel.Box {
	r := n.r
	world := kernel.Box{
		Min: deck.Vec3{-r.World, -r.World, -r.World},
		Max: deck.Vec3{r.World, r.World, r.World},
	}
	if r.Outside {
		return world
	}
	switch r.Kind {
	case kernel.RegionBox:
		return kernel.Box{Min: r.Min, Max: r.Max}
	case kernel.RegionSphere:
		rv := deck.Vec3{r.Radius, r.Radius, r.Radius}
		return kernel.Box{Min: r.Center.Sub(rv), Max: r.Center.Add(rv)}
	case kernel.RegionCylinder:
		a := r.Axis.Unit()
		var ext deck.Vec3
		for i := 0; i < 3; i++ {
			ext[i] = math.Abs(a[i])*r.HalfLength + r.Radius*math.Sqrt(math.Max(0, 1-a[i]*a[i]))
		}
		return kernel.Box{Min: r.Center.Sub(ext), Max: r.Center.Add(ext)}
	case kernel.RegionHalfSpace:
		// Axis-aligned planes tighten one side of the world cube.
		axis, nonzero := -1, 0
		for i := 0; i < 3; i++ {
			if r.Normal[i] != 0 {
				axis = i
				nonzero++
			}
		}
		if nonzero == 1 {
			bound := r.Offset / r.Normal[axis]
			if r.Normal[axis] > 0 {
				world.Max[axis] = math.Min(world.Max[axis], bound)
			} else {
				world.Min[axis] = math.Max(world.Min[axis], bound)
			}
		}
		return world
	}
	return kernel.EmptyBox()
}

type intersectNode struct {
	a, b node
	box  kernel.Box
}

func newIntersectNode(a, b node) intersectNode {
	return intersectNode{a: a, b: b, box: a.bounds().Intersect(b.bounds())}
}

func (n intersectNode) contains(p deck.Vec3) bool { return n.a.contains(p) && n.b.contains(p) }
func (n intersectNode) interior(p deck.Vec3) bool { return n.a.interior(p) && n.b.interior(p) }
func (n intersectNode) bounds() kernel.Box        { return n.box }

func (n intersectNode) classify(b kernel.Box) class {
	c := n.a.classify(b)
	if c == classOut {
		return c
	}
	return c.and(n.b.classify(b))
}

type unionNode struct {
	a, b node
	box  kernel.Box
}

func newUnionNode(a, b node) unionNode {
	return unionNode{a: a, b: b, box: a.bounds().Union(b.bounds())}
}

func (n unionNode) contains(p deck.Vec3) bool { return n.a.contains(p) || n.b.contains(p) }
func (n unionNode) interior(p deck.Vec3) bool { return n.a.interior(p) || n.b.interior(p) }
func (n unionNode) bounds() kernel.Box        { return n.box }

func (n unionNode) classify(b kernel.Box) class {
	c := n.a.classify(b)
	if c == classIn {
		return c
	}
	return c.or(n.b.classify(b))
}

type subtractNode struct {
	a, b node
}

func (n subtractNode) contains(p deck.Vec3) bool { return n.a.contains(p) && !n.b.contains(p) }
func (n subtractNode) interior(p deck.Vec3) bool { return n.a.interior(p) && !n.b.contains(p) }
func (n subtractNode) bounds() kernel.Box        { return n.a.bounds() }

func (n subtractNode) classify(b kernel.Box) class {
	c := n.a.classify(b)
	if c == classOut {
		return c
	}
	return c.and(n.b.classify(b).complement())
}

type transformNode struct {
	child node
	fwd   deck.Transform
	inv   deck.Transform
	box   kernel.Box
}

func newTransformNode(child node, t deck.Transform) transformNode {
	return transformNode{
		child: child,
		fwd:   t,
		inv:   t.Inverse(),
		box:   child.bounds().Transform(t),
	}
}

func (n transformNode) contains(p deck.Vec3) bool { return n.child.contains(n.inv.Apply(p)) }
func (n transformNode) interior(p deck.Vec3) bool { return n.child.interior(n.inv.Apply(p)) }
func (n transformNode) bounds() kernel.Box        { return n.box }

// classify tests the child over the box enclosing b's preimage.
func (n transformNode) classify(b kernel.Box) class {
	return n.child.classify(b.Transform(n.inv))
}
