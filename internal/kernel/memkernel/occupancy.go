package memkernel

import (
	"math"

	"github.com/roach88/cellcad/internal/deck"
	"github.com/roach88/cellcad/internal/kernel"
)

// class bounds a solid over a box: classOut when no interior point of the
// box is inside the solid, classIn when every one is.
type class int

const (
	classMixed class = iota
	classOut
	classIn
)

func (c class) complement() class {
	switch c {
	case classOut:
		return classIn
	case classIn:
		return classOut
	}
	return classMixed
}

func (c class) and(o class) class {
	switch {
	case c == classOut || o == classOut:
		return classOut
	case c == classIn && o == classIn:
		return classIn
	}
	return classMixed
}

func (c class) or(o class) class {
	switch {
	case c == classIn || o == classIn:
		return classIn
	case c == classOut && o == classOut:
		return classOut
	}
	return classMixed
}

// linearRange returns the range of n·p over b.
func linearRange(n deck.Vec3, b kernel.Box) (lo, hi float64) {
	for i := 0; i < 3; i++ {
		if n[i] >= 0 {
			lo += n[i] * b.Min[i]
			hi += n[i] * b.Max[i]
		} else {
			lo += n[i] * b.Max[i]
			hi += n[i] * b.Min[i]
		}
	}
	return lo, hi
}

func classifyBall(c deck.Vec3, radius float64, b kernel.Box) class {
	var closest, farthest deck.Vec3
	for i := 0; i < 3; i++ {
		closest[i] = math.Max(b.Min[i], math.Min(c[i], b.Max[i])) - c[i]
		farthest[i] = math.Max(math.Abs(b.Min[i]-c[i]), math.Abs(b.Max[i]-c[i]))
	}
	switch {
	case closest.Len() >= radius:
		return classOut
	case farthest.Len() <= radius:
		return classIn
	}
	return classMixed
}

func classifyRegion(r kernel.Region, b kernel.Box) class {
	switch r.Kind {
	case kernel.RegionBox:
		in := true
		for i := 0; i < 3; i++ {
			if b.Max[i] <= r.Min[i] || b.Min[i] >= r.Max[i] {
				return classOut
			}
			if b.Min[i] < r.Min[i] || b.Max[i] > r.Max[i] {
				in = false
			}
		}
		if in {
			return classIn
		}
	case kernel.RegionSphere:
		return classifyBall(r.Center, r.Radius, b)
	case kernel.RegionHalfSpace:
		lo, hi := linearRange(r.Normal, b)
		switch {
		case lo >= r.Offset:
			return classOut
		case hi <= r.Offset:
			return classIn
		}
	case kernel.RegionCylinder:
		a := r.Axis.Unit()
		lo, hi := linearRange(a, b)
		off := a.Dot(r.Center)
		lo, hi = lo-off, hi-off
		if lo >= r.HalfLength || hi <= -r.HalfLength {
			return classOut
		}
		// Radial distance is convex, so its maximum sits on a corner. Its
		// minimum is bounded through the center, being 1-Lipschitz.
		radial := func(p deck.Vec3) float64 {
			d := p.Sub(r.Center)
			h := d.Dot(a)
			return math.Sqrt(math.Max(0, d.Dot(d)-h*h))
		}
		far := 0.0
		for _, p := range corners(b) {
			far = math.Max(far, radial(p))
		}
		if radial(center(b))-halfDiagonal(b) >= r.Radius {
			return classOut
		}
		if lo >= -r.HalfLength && hi <= r.HalfLength && far <= r.Radius {
			return classIn
		}
	}
	return classMixed
}

func corners(b kernel.Box) [8]deck.Vec3 {
	var out [8]deck.Vec3
	for i := range out {
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				out[i][axis] = b.Max[axis]
			} else {
				out[i][axis] = b.Min[axis]
			}
		}
	}
	return out
}

func center(b kernel.Box) deck.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

func halfDiagonal(b kernel.Box) float64 {
	return b.Max.Sub(b.Min).Len() / 2
}

// split halves b across its longest axis.
func split(b kernel.Box) (kernel.Box, kernel.Box) {
	axis := 0
	for i := 1; i < 3; i++ {
		if b.Max[i]-b.Min[i] > b.Max[axis]-b.Min[axis] {
			axis = i
		}
	}
	mid := (b.Min[axis] + b.Max[axis]) / 2
	lo, hi := b, b
	lo.Max[axis] = mid
	hi.Min[axis] = mid
	return lo, hi
}

// resolutionFloor is the smallest box, relative to the starting one, that
// occupied still subdivides.
const resolutionFloor = 1e-9

// occupied reports whether n has interior points inside root. Mixed boxes
// are halved breadth first. Inconclusive searches, out of budget or below
// the resolution floor, report occupied.
func occupied(n node, root kernel.Box, budget int) bool {
	floor := halfDiagonal(root) * resolutionFloor
	queue := []kernel.Box{root}
	for visited := 0; len(queue) > 0; visited++ {
		if visited >= budget {
			return true
		}
		b := queue[0]
		queue = queue[1:]
		switch n.classify(b) {
		case classOut:
			continue
		case classIn:
			return true
		}
		if n.interior(center(b)) || halfDiagonal(b) < floor {
			return true
		}
		lo, hi := split(b)
		queue = append(queue, lo, hi)
	}
	return false
}

// literal is one primitive of an intersection chain, placed in world
// coordinates by t. flipped marks a primitive that was subtracted.
type literal struct {
	r       kernel.Region
	t       deck.Transform
	flipped bool
}

// conjuncts collects the primitives every point of n must satisfy.
func conjuncts(n node, t deck.Transform, out []literal) []literal {
	switch n := n.(type) {
	case primNode:
		return append(out, literal{r: n.r, t: t})
	case intersectNode:
		return conjuncts(n.b, t, conjuncts(n.a, t, out))
	case subtractNode:
		out = conjuncts(n.a, t, out)
		if tool, ok := primitive(n.b, t); ok {
			tool.flipped = true
			out = append(out, tool)
		}
		return out
	case transformNode:
		return conjuncts(n.child, t.Compose(n.fwd), out)
	}
	return out
}

// primitive unwraps transforms down to a single primitive.
func primitive(n node, t deck.Transform) (literal, bool) {
	switch n := n.(type) {
	case primNode:
		return literal{r: n.r, t: t}, true
	case transformNode:
		return primitive(n.child, t.Compose(n.fwd))
	}
	return literal{}, false
}

// placedRegion is a literal's surface in world coordinates with its sense
// folded into outside.
type placedRegion struct {
	kind    kernel.RegionKind
	p, q    deck.Vec3 // center and axis, normal, or box corners
	radius  float64
	length  float64 // half length, or plane offset
	outside bool
	scale   float64
}

func place(l literal) (placedRegion, bool) {
	r := l.r
	out := placedRegion{kind: r.Kind, outside: r.Outside != l.flipped}
	switch r.Kind {
	case kernel.RegionSphere:
		out.p, out.radius = l.t.Apply(r.Center), r.Radius
		out.scale = out.p.Len() + r.Radius
	case kernel.RegionCylinder:
		out.p, out.q = l.t.Apply(r.Center), l.t.ApplyVector(r.Axis.Unit())
		out.radius, out.length = r.Radius, r.HalfLength
		out.scale = out.p.Len() + r.Radius + r.HalfLength
	case kernel.RegionHalfSpace:
		n := l.t.ApplyVector(r.Normal)
		size := n.Len()
		offset := r.Offset + n.Dot(l.t.Translation)
		out.q, out.length = n.Scale(1/size), offset/size
		if out.outside {
			out.q, out.length, out.outside = out.q.Scale(-1), -out.length, false
		}
		out.scale = 1 + math.Abs(out.length)
	case kernel.RegionBox:
		if l.t.Rotation != nil && *l.t.Rotation != deck.Identity3 {
			return out, false
		}
		out.p, out.q = r.Min.Add(l.t.Translation), r.Max.Add(l.t.Translation)
		out.scale = math.Max(out.p.Len(), out.q.Len())
	default:
		return out, false
	}
	return out, true
}

const matchTolerance = 1e-12

func near(a, b, scale float64) bool {
	return math.Abs(a-b) <= matchTolerance*(1+scale)
}

func nearVec(a, b deck.Vec3, scale float64) bool {
	return a.Sub(b).Len() <= matchTolerance*(1+scale)
}

// complementary reports whether a and b are the two sides of one surface.
func complementary(a, b placedRegion) bool {
	if a.kind != b.kind {
		return false
	}
	scale := math.Max(a.scale, b.scale)
	if a.kind == kernel.RegionHalfSpace {
		return nearVec(a.q, b.q.Scale(-1), 1) && near(a.length, -b.length, scale)
	}
	if a.outside == b.outside {
		return false
	}
	switch a.kind {
	case kernel.RegionSphere:
		return nearVec(a.p, b.p, scale) && near(a.radius, b.radius, scale)
	case kernel.RegionCylinder:
		sameAxis := nearVec(a.q, b.q, 1) || nearVec(a.q, b.q.Scale(-1), 1)
		return sameAxis && nearVec(a.p, b.p, scale) &&
			near(a.radius, b.radius, scale) && near(a.length, b.length, scale)
	case kernel.RegionBox:
		return nearVec(a.p, b.p, scale) && nearVec(a.q, b.q, scale)
	}
	return false
}

// opposedSurfaces reports whether n intersects some surface with its own
// complement. Such a solid is confined to that surface.
func opposedSurfaces(n node) bool {
	lits := conjuncts(n, deck.Identity(), nil)
	placed := make([]placedRegion, 0, len(lits))
	for _, l := range lits {
		if p, ok := place(l); ok {
			placed = append(placed, p)
		}
	}
	for i := range placed {
		for j := i + 1; j < len(placed); j++ {
			if complementary(placed[i], placed[j]) {
				return true
			}
		}
	}
	return false
}
