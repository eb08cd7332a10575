package volume

import (
	"fmt"
	"math"

	"github.com/roach88/cellcad/internal/deck"
	"github.com/roach88/cellcad/internal/kernel"
)

// WorldMargin scales the largest surface extent into the world size.
const WorldMargin = 1.2

// MinWorld is the world size used when a deck has no boundable surface.
const MinWorld = 1.0

// SurfaceError reports a surface that cannot become a bounded region.
type SurfaceError struct {
	ID     int
	Type   string
	Reason string
}

func (e *SurfaceError) Error() string {
	return fmt.Sprintf("surface %d (%s): %s", e.ID, e.Type, e.Reason)
}

func surfaceErr(s *deck.Surface, format string, args ...any) error {
	return &SurfaceError{ID: s.ID, Type: s.Type, Reason: fmt.Sprintf(format, args...)}
}

// paramCount is the number of coefficients each supported type takes.
var paramCount = map[string]int{
	"p":   4,
	"px":  1,
	"py":  1,
	"pz":  1,
	"so":  1,
	"s":   4,
	"sx":  2,
	"sy":  2,
	"sz":  2,
	"c/x": 3,
	"c/y": 3,
	"c/z": 3,
	"cx":  1,
	"cy":  1,
	"cz":  1,
	"rpp": 6,
	"sph": 4,
	"rcc": 7,
}

// Supported reports whether the surface type can be bounded.
func Supported(surfaceType string) bool {
	_, ok := paramCount[surfaceType]
	return ok
}

func checkParams(s *deck.Surface) error {
	want, ok := paramCount[s.Type]
	if !ok {
		return surfaceErr(s, "unsupported surface type")
	}
	if len(s.Params) != want {
		return surfaceErr(s, "expected %d parameters, got %d", want, len(s.Params))
	}
	for i, p := range s.Params {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return surfaceErr(s, "parameter %d is not finite", i)
		}
	}
	return nil
}

func axisVec(axis int) deck.Vec3 {
	var v deck.Vec3
	v[axis] = 1
	return v
}

// axisOf maps the trailing letter of an axis-specific mnemonic to 0, 1 or 2.
func axisOf(t string) int {
	switch t[len(t)-1] {
	case 'x':
		return 0
	case 'y':
		return 1
	default:
		return 2
	}
}

// shape describes a surface in primitive terms before a sense is applied.
type shape struct {
	kind       kernel.RegionKind
	min, max   deck.Vec3
	center     deck.Vec3
	axis       deck.Vec3
	normal     deck.Vec3
	radius     float64
	halfLength float64 // < 0 means unbounded along the axis
	offset     float64
}

func describe(s *deck.Surface) (shape, error) {
	if err := checkParams(s); err != nil {
		return shape{}, err
	}
	p := s.Params
	switch s.Type {
	case "p":
		n := deck.Vec3{p[0], p[1], p[2]}
		if n.Len() == 0 {
			return shape{}, surfaceErr(s, "plane has zero normal")
		}
		return shape{kind: kernel.RegionHalfSpace, normal: n, offset: p[3]}, nil
	case "px", "py", "pz":
		return shape{kind: kernel.RegionHalfSpace, normal: axisVec(axisOf(s.Type)), offset: p[0]}, nil
	case "so":
		return sphere(s, deck.Vec3{}, p[0])
	case "s", "sph":
		return sphere(s, deck.Vec3{p[0], p[1], p[2]}, p[3])
	case "sx", "sy", "sz":
		c := axisVec(axisOf(s.Type)).Scale(p[0])
		return sphere(s, c, p[1])
	case "cx", "cy", "cz":
		return infiniteCylinder(s, axisOf(s.Type), deck.Vec3{}, p[0])
	case "c/x", "c/y", "c/z":
		axis := axisOf(s.Type)
		var c deck.Vec3
		j := 0
		for i := 0; i < 3; i++ {
			if i == axis {
				continue
			}
			c[i] = p[j]
			j++
		}
		return infiniteCylinder(s, axis, c, p[2])
	case "rpp":
		min := deck.Vec3{p[0], p[2], p[4]}
		max := deck.Vec3{p[1], p[3], p[5]}
		for i := 0; i < 3; i++ {
			if max[i] <= min[i] {
				return shape{}, surfaceErr(s, "box has empty extent on axis %d", i)
			}
		}
		return shape{kind: kernel.RegionBox, min: min, max: max}, nil
	case "rcc":
		base := deck.Vec3{p[0], p[1], p[2]}
		h := deck.Vec3{p[3], p[4], p[5]}
		if h.Len() == 0 {
			return shape{}, surfaceErr(s, "cylinder has zero height")
		}
		if p[6] <= 0 {
			return shape{}, surfaceErr(s, "radius must be positive, got %g", p[6])
		}
		return shape{
			kind:       kernel.RegionCylinder,
			center:     base.Add(h.Scale(0.5)),
			axis:       h.Unit(),
			radius:     p[6],
			halfLength: h.Len() / 2,
		}, nil
	}
	return shape{}, surfaceErr(s, "unsupported surface type")
}

func sphere(s *deck.Surface, c deck.Vec3, r float64) (shape, error) {
	if r <= 0 {
		return shape{}, surfaceErr(s, "radius must be positive, got %g", r)
	}
	return shape{kind: kernel.RegionSphere, center: c, radius: r}, nil
}

func infiniteCylinder(s *deck.Surface, axis int, c deck.Vec3, r float64) (shape, error) {
	if r <= 0 {
		return shape{}, surfaceErr(s, "radius must be positive, got %g", r)
	}
	return shape{kind: kernel.RegionCylinder, center: c, axis: axisVec(axis), radius: r, halfLength: -1}, nil
}

// Region returns the bounded region on one side of s. sense < 0 selects the
// inside (or low side of a plane); sense > 0 the outside.
func Region(s *deck.Surface, sense int, world float64) (kernel.Region, error) {
	if sense == 0 {
		return kernel.Region{}, surfaceErr(s, "zero sense")
	}
	if world <= 0 {
		return kernel.Region{}, fmt.Errorf("world size must be positive, got %g", world)
	}
	sh, err := describe(s)
	if err != nil {
		return kernel.Region{}, err
	}

	r := kernel.Region{Kind: sh.kind, World: world}
	switch sh.kind {
	case kernel.RegionHalfSpace:
		if sense < 0 {
			r.Normal, r.Offset = sh.normal, sh.offset
		} else {
			r.Normal, r.Offset = sh.normal.Scale(-1), -sh.offset
		}
		return r, nil
	case kernel.RegionBox:
		r.Min, r.Max = sh.min, sh.max
	case kernel.RegionSphere:
		r.Center, r.Radius = sh.center, sh.radius
	case kernel.RegionCylinder:
		r.Center, r.Axis, r.Radius, r.HalfLength = sh.center, sh.axis, sh.radius, sh.halfLength
		if r.HalfLength < 0 {
			// Unbounded along the axis: reach past the world sphere on both sides.
			r.HalfLength = world + sh.center.Len()
		}
	}
	r.Outside = sense > 0
	return r, nil
}

// FarthestExtent returns the distance from the origin to the farthest
// finite feature of s. Planes report their distance from the origin;
// infinite cylinders report their radial reach.
func FarthestExtent(s *deck.Surface) (float64, error) {
	sh, err := describe(s)
	if err != nil {
		return 0, err
	}
	switch sh.kind {
	case kernel.RegionHalfSpace:
		return math.Abs(sh.offset) / sh.normal.Len(), nil
	case kernel.RegionSphere:
		return sh.center.Len() + sh.radius, nil
	case kernel.RegionBox:
		var corner deck.Vec3
		for i := 0; i < 3; i++ {
			corner[i] = math.Max(math.Abs(sh.min[i]), math.Abs(sh.max[i]))
		}
		return corner.Len(), nil
	case kernel.RegionCylinder:
		if sh.halfLength < 0 {
			return sh.center.Len() + sh.radius, nil
		}
		ends := sh.axis.Scale(sh.halfLength)
		return math.Max(sh.center.Add(ends).Len(), sh.center.Sub(ends).Len()) + sh.radius, nil
	}
	return 0, surfaceErr(s, "unsupported surface type")
}

// SurfaceDistance is one row of the surface distance report.
type SurfaceDistance struct {
	ID       int     `json:"id"`
	Type     string  `json:"type"`
	Distance float64 `json:"distance"`
	Error    string  `json:"error,omitempty"`
}

// Distances reports FarthestExtent for every surface in declaration order.
// Unboundable surfaces carry their error instead of a distance.
func Distances(d *deck.Deck) []SurfaceDistance {
	out := make([]SurfaceDistance, 0, len(d.Surfaces))
	for i := range d.Surfaces {
		s := &d.Surfaces[i]
		row := SurfaceDistance{ID: s.ID, Type: s.Type}
		dist, err := FarthestExtent(s)
		if err != nil {
			row.Error = err.Error()
		} else {
			row.Distance = dist
		}
		out = append(out, row)
	}
	return out
}

// MaxTranslation returns the longest displacement among the deck's
// transforms, including inline cell and fill transforms.
func MaxTranslation(d *deck.Deck) float64 {
	m := 0.0
	for _, t := range d.Transforms {
		m = math.Max(m, t.TranslationLength())
	}
	for _, c := range d.Cells {
		if c.Trcl != nil {
			m = math.Max(m, c.Trcl.TranslationLength())
		}
		if c.Fill != nil && c.Fill.Transform != nil {
			m = math.Max(m, c.Fill.Transform.TranslationLength())
		}
		if c.Lattice != nil {
			for _, f := range c.Lattice.Fills {
				if f.Transform != nil {
					m = math.Max(m, f.Transform.TranslationLength())
				}
			}
		}
	}
	return m
}

// WorldSize returns the radius of the world sphere enclosing the deck:
// WorldMargin × (largest surface extent + largest translation).
// Unboundable surfaces are skipped here and reported when a cell uses them.
func WorldSize(d *deck.Deck) float64 {
	extent := 0.0
	for i := range d.Surfaces {
		dist, err := FarthestExtent(&d.Surfaces[i])
		if err != nil {
			continue
		}
		extent = math.Max(extent, dist)
	}
	w := WorldMargin * (extent + MaxTranslation(d))
	if w < MinWorld {
		return MinWorld
	}
	return w
}
