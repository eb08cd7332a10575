package deck

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDeck() *Deck {
	return New("sample",
		[]Surface{{ID: 1, Type: "so", Params: []float64{5}}, {ID: 2, Type: "px", Params: []float64{1}}},
		[]Transform{{ID: 7, Translation: Vec3{1, 2, 3}}},
		[]Cell{
			{ID: 10, Geom: []Token{{Kind: TokenSurface, Value: -1}}, Universe: 0},
			{ID: 20, Geom: []Token{{Kind: TokenSurface, Value: 2}}, Universe: 3},
			{ID: 30, Geom: []Token{{Kind: TokenSurface, Value: 1}}, Universe: 0},
			{ID: 40, Geom: []Token{{Kind: TokenSurface, Value: -2}}, Universe: 3},
		},
	)
}

func TestDeckLookups(t *testing.T) {
	d := sampleDeck()

	s, ok := d.Surface(2)
	require.True(t, ok)
	assert.Equal(t, "px", s.Type)

	_, ok = d.Surface(99)
	assert.False(t, ok)

	tr, ok := d.Transform(7)
	require.True(t, ok)
	assert.Equal(t, Vec3{1, 2, 3}, tr.Translation)

	c, ok := d.Cell(30)
	require.True(t, ok)
	assert.Equal(t, 0, c.Universe)
}

func TestCellsOfUniverseKeepsDeclarationOrder(t *testing.T) {
	d := sampleDeck()

	root := d.CellsOfUniverse(0)
	require.Len(t, root, 2)
	assert.Equal(t, 10, root[0].ID)
	assert.Equal(t, 30, root[1].ID)

	u3 := d.CellsOfUniverse(3)
	require.Len(t, u3, 2)
	assert.Equal(t, 20, u3[0].ID)
	assert.Equal(t, 40, u3[1].ID)

	assert.Equal(t, []int{0, 3}, d.Universes())
}

func TestLookupAfterJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(sampleDeck())
	require.NoError(t, err)

	var d Deck
	require.NoError(t, json.Unmarshal(data, &d))

	// Index is rebuilt lazily
	c, ok := d.Cell(40)
	require.True(t, ok)
	assert.Equal(t, 3, c.Universe)
}

func TestHashStable(t *testing.T) {
	h1, err := Hash(sampleDeck())
	require.NoError(t, err)
	h2, err := Hash(sampleDeck())
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	other := sampleDeck()
	other.Cells[0].Material = 4
	h3, err := Hash(other)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestTransformComposeAndInverse(t *testing.T) {
	// 90 degree rotation about z
	rot := Matrix3{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}}
	a := Transform{Translation: Vec3{10, 0, 0}, Rotation: &rot}
	b := Translate(Vec3{0, 5, 0})

	p := Vec3{1, 0, 0}

	// a∘b applies b first
	got := a.Compose(b).Apply(p)
	want := a.Apply(b.Apply(p))
	assertVecNear(t, want, got)

	back := a.Inverse().Apply(a.Apply(p))
	assertVecNear(t, p, back)

	assert.True(t, Identity().IsIdentity())
	assert.False(t, a.IsIdentity())
	assert.InDelta(t, 10.0, a.TranslationLength(), 1e-12)
}

func TestLatticeNodeOffsetAndFill(t *testing.T) {
	l := &Lattice{
		Kind:   LatticeRect,
		Pitch:  []Vec3{{2, 0, 0}, {0, 3, 0}},
		Ranges: []IndexRange{{Min: -1, Max: 1}, {Min: 0, Max: 1}},
		Fills: []Fill{
			{Universe: 1}, {Universe: 2}, {Universe: 3},
			{Universe: 4}, {Universe: 5}, {Universe: 6},
		},
	}

	assert.Equal(t, 2, l.Dims())
	assert.True(t, l.IsFixedSize())
	assert.Equal(t, 6, l.NodeCount())
	assert.Equal(t, Vec3{-2, 3, 0}, l.NodeOffset(-1, 1, 0))

	f, err := l.FillForNode(-1, 0, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, f.Universe)

	f, err = l.FillForNode(0, 1, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, f.Universe)

	_, err = l.FillForNode(2, 0, 0, nil)
	assert.Error(t, err)
}

func TestInfiniteLatticeUsesDefaultFill(t *testing.T) {
	l := &Lattice{Kind: LatticeRect, Pitch: []Vec3{{1, 0, 0}}}
	assert.False(t, l.IsFixedSize())
	assert.Equal(t, 0, l.NodeCount())

	f, err := l.FillForNode(100, 0, 0, &Fill{Universe: 9})
	require.NoError(t, err)
	assert.Equal(t, 9, f.Universe)

	_, err = l.FillForNode(0, 0, 0, nil)
	assert.Error(t, err)
}

func TestCellPredicates(t *testing.T) {
	c := Cell{ID: 1, Geom: []Token{
		{Kind: TokenSurface, Value: -1},
		{Kind: TokenSurface, Value: 2},
		{Kind: TokenIntersect},
	}}
	assert.False(t, c.HasFill())
	assert.False(t, c.IsLattice())
	assert.Equal(t, 2, c.SurfaceCount())

	c.Fill = &Fill{Universe: 2}
	assert.True(t, c.HasFill())
}

func assertVecNear(t *testing.T, want, got Vec3) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.False(t, math.Abs(want[i]-got[i]) > 1e-9, "component %d: want %v got %v", i, want, got)
	}
}
