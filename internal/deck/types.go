package deck

import "fmt"

// RootUniverse is the universe id of the outermost coordinate system.
const RootUniverse = 0

// Deck is a compiled geometry description.
type Deck struct {
	Title      string      `json:"title"`
	Surfaces   []Surface   `json:"surfaces"`
	Transforms []Transform `json:"transforms"`
	Cells      []Cell      `json:"cells"` // declaration order (CRITICAL: never reorder)

	surfaceIndex   map[int]int
	transformIndex map[int]int
	cellIndex      map[int]int
}

// Surface is a geometric surface card: a type mnemonic plus parameters.
type Surface struct {
	ID     int       `json:"id"`
	Type   string    `json:"type"`   // "so", "px", "c/z", "rpp", ...
	Params []float64 `json:"params"` // type-specific coefficients
}

// Cell is a region bounded by signed surfaces combined by set operations.
type Cell struct {
	ID          int                `json:"id"`
	Geom        []Token            `json:"geom"` // RPN boundary expression
	Material    int                `json:"material"`
	Density     float64            `json:"density"`
	Importances map[string]float64 `json:"importances,omitempty"`
	Universe    int                `json:"universe"`
	Fill        *Fill              `json:"fill,omitempty"`
	Trcl        *Transform         `json:"trcl,omitempty"`
	Lattice     *Lattice           `json:"lattice,omitempty"`
	Labels      []string           `json:"labels,omitempty"`
}

// HasFill reports whether the cell is filled with another universe.
func (c *Cell) HasFill() bool {
	return c.Fill != nil || c.Lattice != nil
}

// IsLattice reports whether the cell repeats its fill across a lattice.
func (c *Cell) IsLattice() bool {
	return c.Lattice != nil
}

// SurfaceCount returns the number of surface references in the boundary expression.
func (c *Cell) SurfaceCount() int {
	n := 0
	for _, tok := range c.Geom {
		if tok.Kind == TokenSurface {
			n++
		}
	}
	return n
}

// Fill names the universe that fills a cell and its placement.
type Fill struct {
	Universe  int        `json:"universe"`
	Transform *Transform `json:"transform,omitempty"`
}

// LatticeKind distinguishes rectangular and hexagonal lattices.
type LatticeKind string

const (
	LatticeRect LatticeKind = "rect"
	LatticeHex  LatticeKind = "hex"
)

// IndexRange is an inclusive integer range along one lattice axis.
type IndexRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Len returns the number of indices in the range.
func (r IndexRange) Len() int {
	if r.Max < r.Min {
		return 0
	}
	return r.Max - r.Min + 1
}

// Lattice repeats a cell's fill across an integer index grid.
//
// Pitch holds one vector per finite direction (1 to 3). A lattice with
// Ranges set is fixed-size; otherwise it is infinite and every node is
// filled with the cell's Fill.
type Lattice struct {
	Kind   LatticeKind  `json:"kind"`
	Pitch  []Vec3       `json:"pitch"`
	Ranges []IndexRange `json:"ranges,omitempty"` // one per pitch vector when fixed-size
	Fills  []Fill       `json:"fills,omitempty"`  // per node, x fastest; empty = use Cell.Fill
}

// Dims returns the number of finite lattice directions.
func (l *Lattice) Dims() int {
	return len(l.Pitch)
}

// IsFixedSize reports whether the lattice has declared index bounds.
func (l *Lattice) IsFixedSize() bool {
	return len(l.Ranges) > 0
}

// Range returns the index range for axis (0=x, 1=y, 2=z).
// Axes beyond the lattice's dimensionality collapse to [0,0].
func (l *Lattice) Range(axis int) IndexRange {
	if axis < len(l.Ranges) {
		return l.Ranges[axis]
	}
	return IndexRange{}
}

// NodeCount returns the number of declared nodes of a fixed-size lattice.
func (l *Lattice) NodeCount() int {
	if !l.IsFixedSize() {
		return 0
	}
	n := 1
	for axis := 0; axis < 3; axis++ {
		n *= l.Range(axis).Len()
	}
	return n
}

// NodeOffset returns the translation of node (x, y, z) relative to node (0, 0, 0).
func (l *Lattice) NodeOffset(x, y, z int) Vec3 {
	idx := [3]int{x, y, z}
	var off Vec3
	for axis, p := range l.Pitch {
		if axis > 2 {
			break
		}
		off = off.Add(p.Scale(float64(idx[axis])))
	}
	return off
}

// FillForNode returns the fill of node (x, y, z), falling back to def when
// the lattice carries no per-node fill array.
func (l *Lattice) FillForNode(x, y, z int, def *Fill) (Fill, error) {
	if len(l.Fills) == 0 {
		if def == nil {
			return Fill{}, fmt.Errorf("lattice node (%d,%d,%d) has no fill", x, y, z)
		}
		return *def, nil
	}
	rx, ry, rz := l.Range(0), l.Range(1), l.Range(2)
	if x < rx.Min || x > rx.Max || y < ry.Min || y > ry.Max || z < rz.Min || z > rz.Max {
		return Fill{}, fmt.Errorf("lattice node (%d,%d,%d) outside declared ranges", x, y, z)
	}
	i := (x - rx.Min) + rx.Len()*((y-ry.Min)+ry.Len()*(z-rz.Min))
	if i >= len(l.Fills) {
		return Fill{}, fmt.Errorf("lattice node (%d,%d,%d) beyond fill array (%d entries)", x, y, z, len(l.Fills))
	}
	return l.Fills[i], nil
}

// TokenKind identifies one RPN boundary-expression token.
type TokenKind string

const (
	TokenSurface    TokenKind = "surface"    // signed surface reference
	TokenIntersect  TokenKind = "intersect"  // implicit adjacency
	TokenUnion      TokenKind = "union"      // ':'
	TokenComplement TokenKind = "complement" // '#'
)

// Token is one element of a cell's RPN boundary expression.
// For TokenSurface, Value is the signed surface id (negative = inside).
type Token struct {
	Kind  TokenKind `json:"kind"`
	Value int       `json:"value,omitempty"`
}

// String renders the token in half-space notation.
func (t Token) String() string {
	switch t.Kind {
	case TokenSurface:
		return fmt.Sprintf("%d", t.Value)
	case TokenIntersect:
		return "∩"
	case TokenUnion:
		return ":"
	case TokenComplement:
		return "#"
	default:
		return "?"
	}
}
