package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cellcad/internal/deck"
)

func surf(id int) deck.Token { return deck.Token{Kind: deck.TokenSurface, Value: id} }

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func validDeck() *deck.Deck {
	return deck.New("ok",
		[]deck.Surface{{ID: 1, Type: "so", Params: []float64{5}}, {ID: 2, Type: "so", Params: []float64{1}}},
		nil,
		[]deck.Cell{
			{ID: 1, Geom: []deck.Token{surf(-1)}, Fill: &deck.Fill{Universe: 1}},
			{ID: 2, Geom: []deck.Token{surf(-2)}, Universe: 1, Material: 1, Density: 1},
			{ID: 3, Geom: []deck.Token{surf(2)}, Universe: 1},
		},
	)
}

func TestValidateValidDeck(t *testing.T) {
	assert.Empty(t, Validate(validDeck()))
}

func TestValidateDuplicates(t *testing.T) {
	d := validDeck()
	d.Surfaces = append(d.Surfaces, deck.Surface{ID: 1, Type: "px", Params: []float64{0}})
	d.Transforms = []deck.Transform{{ID: 4}, {ID: 4}}
	d.Cells = append(d.Cells, deck.Cell{ID: 2, Geom: []deck.Token{surf(1)}})
	d.Reindex()

	errs := Validate(d)
	assert.ElementsMatch(t, []string{ErrDuplicateSurface, ErrDuplicateTransform, ErrDuplicateCell}, codes(errs))
	assert.Equal(t, "surfaces[2].id", errs[0].Field)
}

func TestValidateUndefinedSurface(t *testing.T) {
	d := validDeck()
	d.Cells[1].Geom = []deck.Token{surf(-9), surf(9), {Kind: deck.TokenIntersect}}

	errs := Validate(d)
	require.Len(t, errs, 1, "a surface is reported once per cell")
	assert.Equal(t, ErrUndefinedSurface, errs[0].Code)
	assert.Equal(t, "cells[1].geom", errs[0].Field)
	assert.Contains(t, errs[0].Message, "surface 9")
}

func TestValidateUndefinedUniverse(t *testing.T) {
	d := validDeck()
	d.Cells[0].Fill.Universe = 5

	errs := Validate(d)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUndefinedUniverse, errs[0].Code)
}

func TestValidateNegativeImportance(t *testing.T) {
	d := validDeck()
	d.Cells[1].Importances = map[string]float64{"n": -1}

	errs := Validate(d)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrInvalidImportance, errs[0].Code)
	assert.Equal(t, "cells[1].importance.n", errs[0].Field)
}

func TestValidateUniverseCycle(t *testing.T) {
	d := validDeck()
	d.Cells[2].Fill = &deck.Fill{Universe: 1}

	errs := Validate(d)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUniverseCycle, errs[0].Code)
	assert.Contains(t, errs[0].Message, "1 -> 1")
}

func TestValidateMissingBoundary(t *testing.T) {
	d := validDeck()
	d.Cells[0].Geom = nil
	assert.Empty(t, Validate(d), "a filled cell may omit its boundary")

	d.Cells[2].Geom = nil
	errs := Validate(d)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrMissingBoundary, errs[0].Code)
	assert.Equal(t, "cells[2].geom", errs[0].Field)

	d = validDeck()
	d.Cells = append(d.Cells, deck.Cell{ID: 4, Geom: []deck.Token{surf(-2)}, Universe: 2})
	d.Cells[1].Geom = nil
	d.Cells[1].Fill = &deck.Fill{Universe: 2}
	d.Cells[1].Lattice = &deck.Lattice{Kind: deck.LatticeRect, Pitch: []deck.Vec3{{1, 0, 0}}}
	d.Reindex()
	assert.Contains(t, codes(Validate(d)), ErrMissingBoundary)
}

func TestValidateLattice(t *testing.T) {
	lattice := func(l deck.Lattice, fill *deck.Fill) *deck.Deck {
		d := validDeck()
		d.Cells[1].Lattice = &l
		d.Cells[1].Fill = fill
		return d
	}
	u2 := &deck.Fill{Universe: 2}
	extra := deck.Cell{ID: 4, Geom: []deck.Token{surf(-2)}, Universe: 2}

	tests := []struct {
		name  string
		lat   deck.Lattice
		fill  *deck.Fill
		field string
		code  string
	}{
		{
			name:  "no pitch",
			lat:   deck.Lattice{},
			fill:  u2,
			field: "cells[1].lattice.pitch",
			code:  ErrInvalidLattice,
		},
		{
			name:  "zero pitch",
			lat:   deck.Lattice{Pitch: []deck.Vec3{{0, 0, 0}}},
			fill:  u2,
			field: "cells[1].lattice.pitch[0]",
			code:  ErrInvalidLattice,
		},
		{
			name:  "range count",
			lat:   deck.Lattice{Pitch: []deck.Vec3{{1, 0, 0}, {0, 1, 0}}, Ranges: []deck.IndexRange{{Min: 0, Max: 1}}},
			fill:  u2,
			field: "cells[1].lattice.range",
			code:  ErrInvalidLattice,
		},
		{
			name:  "empty range",
			lat:   deck.Lattice{Pitch: []deck.Vec3{{1, 0, 0}}, Ranges: []deck.IndexRange{{Min: 2, Max: 1}}},
			fill:  u2,
			field: "cells[1].lattice.range[0]",
			code:  ErrInvalidLattice,
		},
		{
			name: "fill count",
			lat: deck.Lattice{
				Pitch:  []deck.Vec3{{1, 0, 0}},
				Ranges: []deck.IndexRange{{Min: 0, Max: 2}},
				Fills:  []deck.Fill{{Universe: 2}},
			},
			field: "cells[1].lattice.fill",
			code:  ErrInvalidLattice,
		},
		{
			name:  "fills without ranges",
			lat:   deck.Lattice{Pitch: []deck.Vec3{{1, 0, 0}}, Fills: []deck.Fill{{Universe: 2}}},
			field: "cells[1].lattice.fill",
			code:  ErrInvalidLattice,
		},
		{
			name:  "no fill",
			lat:   deck.Lattice{Pitch: []deck.Vec3{{1, 0, 0}}},
			field: "cells[1].lattice",
			code:  ErrMissingFill,
		},
		{
			name: "unknown node universe",
			lat: deck.Lattice{
				Pitch:  []deck.Vec3{{1, 0, 0}},
				Ranges: []deck.IndexRange{{Min: 0, Max: 1}},
				Fills:  []deck.Fill{{Universe: 1}, {Universe: 8}},
			},
			field: "cells[1].lattice.fill[1]",
			code:  ErrUndefinedUniverse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := lattice(tt.lat, tt.fill)
			d.Cells = append(d.Cells, extra)
			d.Reindex()

			errs := Validate(d)
			require.Len(t, errs, 1, "%v", errs)
			assert.Equal(t, tt.code, errs[0].Code)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Field: "cells[0].id", Message: "duplicate cell id 1", Code: ErrDuplicateCell}
	assert.Equal(t, "[E102] cells[0].id: duplicate cell id 1", e.Error())
}
