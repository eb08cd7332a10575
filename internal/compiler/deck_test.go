package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cellcad/internal/deck"
)

func compileString(t *testing.T, src string) (*deck.Deck, error) {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return CompileDeck(v)
}

func TestCompileDeckBasic(t *testing.T) {
	d, err := compileString(t, `
		title: "pin cell"
		surfaces: [
			{id: 1, type: "so", params: [5]},
			{id: 2, type: "rpp", params: [-10, 10, -10, 10, -10, 10]},
		]
		cells: [
			{id: 1, geom: "-1", material: 3, density: -2.5, importance: {n: 1, p: 0.5}, labels: ["fuel"]},
			{id: 2, geom: "1 -2"},
		]
	`)
	require.NoError(t, err)

	assert.Equal(t, "pin cell", d.Title)
	require.Len(t, d.Surfaces, 2)
	assert.Equal(t, []float64{-10, 10, -10, 10, -10, 10}, d.Surfaces[1].Params)

	c, ok := d.Cell(1)
	require.True(t, ok)
	assert.Equal(t, 3, c.Material)
	assert.Equal(t, -2.5, c.Density)
	assert.Equal(t, map[string]float64{"n": 1, "p": 0.5}, c.Importances)
	assert.Equal(t, []string{"fuel"}, c.Labels)
	assert.Equal(t, deck.RootUniverse, c.Universe)

	c2, _ := d.Cell(2)
	assert.Equal(t, "1 -2 ∩", rpn(c2.Geom))
	assert.Zero(t, c2.Material)
}

func TestCompileDeckFillAndTransforms(t *testing.T) {
	d, err := compileString(t, `
		surfaces: [{id: 1, type: "so", params: [5]}, {id: 2, type: "so", params: [1]}]
		transforms: [
			{id: 7, translation: [1, 2, 3]},
			{id: 8, translation: [0, 0, 0], rotation: [0, 90, 90, 90, 0, 90, 90, 90, 0], degrees: true},
		]
		cells: [
			{id: 1, geom: "-1", fill: {universe: 1, transform: 7}, trcl: {translation: [0, 0, 4]}},
			{id: 2, geom: "-2", universe: 1, fill: 2, trcl: 8},
			{id: 3, geom: "-2", universe: 2, material: 1, density: 1},
		]
	`)
	require.NoError(t, err)

	c1, _ := d.Cell(1)
	require.NotNil(t, c1.Fill)
	assert.Equal(t, 1, c1.Fill.Universe)
	require.NotNil(t, c1.Fill.Transform)
	assert.Equal(t, deck.Vec3{1, 2, 3}, c1.Fill.Transform.Translation)
	require.NotNil(t, c1.Trcl)
	assert.Equal(t, deck.Vec3{0, 0, 4}, c1.Trcl.Translation)

	c2, _ := d.Cell(2)
	assert.Equal(t, 2, c2.Fill.Universe)
	assert.Nil(t, c2.Fill.Transform)
	require.NotNil(t, c2.Trcl.Rotation)
	rot := *c2.Trcl.Rotation
	assert.InDelta(t, 1.0, rot[0][0], 1e-12)
	assert.InDelta(t, 0.0, rot[0][1], 1e-12)
	assert.InDelta(t, 1.0, rot[2][2], 1e-12)
}

func TestCompileDeckLattice(t *testing.T) {
	d, err := compileString(t, `
		surfaces: [{id: 1, type: "rpp", params: [-0.5, 0.5, -0.5, 0.5, -0.5, 0.5]}]
		cells: [
			{id: 10, geom: "-1", universe: 1, material: 7, density: 1,
			 lattice: {type: "rect", pitch: [[1, 0, 0]], range: [[0, 2]], fill: [2, 1, {universe: 2}]}},
		]
	`)
	require.NoError(t, err)

	c, _ := d.Cell(10)
	require.NotNil(t, c.Lattice)
	lat := c.Lattice
	assert.Equal(t, deck.LatticeRect, lat.Kind)
	assert.Equal(t, []deck.Vec3{{1, 0, 0}}, lat.Pitch)
	assert.Equal(t, []deck.IndexRange{{Min: 0, Max: 2}}, lat.Ranges)
	require.Len(t, lat.Fills, 3)
	assert.Equal(t, 1, lat.Fills[1].Universe)
	assert.Equal(t, 2, lat.Fills[2].Universe)
}

func TestCompileDeckCellComplement(t *testing.T) {
	d, err := compileString(t, `
		surfaces: [{id: 1, type: "so", params: [1]}, {id: 2, type: "so", params: [5]}]
		cells: [
			{id: 2, geom: "-2 #1"},
			{id: 1, geom: "-1"},
		]
	`)
	require.NoError(t, err)
	c, _ := d.Cell(2)
	assert.Equal(t, "-2 -1 # ∩", rpn(c.Geom))
}

func TestCompileDeckPureContainer(t *testing.T) {
	d, err := compileString(t, `
		surfaces: [{id: 1, type: "so", params: [1]}]
		cells: [
			{id: 1, fill: {universe: 3, transform: {translation: [-7, 0, 0]}}},
			{id: 2, geom: "  ", fill: 3},
			{id: 31, geom: "-1", universe: 3, material: 5, density: 2},
		]
	`)
	require.NoError(t, err)

	c1, _ := d.Cell(1)
	assert.Empty(t, c1.Geom)
	require.NotNil(t, c1.Fill)
	assert.Equal(t, 3, c1.Fill.Universe)
	assert.Equal(t, deck.Vec3{-7, 0, 0}, c1.Fill.Transform.Translation)

	c2, _ := d.Cell(2)
	assert.Empty(t, c2.Geom)
	assert.Empty(t, Validate(d))
}

func TestCompileDeckErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
		msg   string
	}{
		{
			name:  "missing cell id",
			src:   `cells: [{geom: "-1"}]`,
			field: "id",
			msg:   "id is required",
		},
		{
			name:  "complement of container",
			src:   `cells: [{id: 1, fill: 2}, {id: 2, geom: "-1 #1"}]`,
			field: "geom",
			msg:   "no boundary to complement",
		},
		{
			name:  "missing surface type",
			src:   `surfaces: [{id: 1, params: [1]}]`,
			field: "type",
			msg:   "type is required",
		},
		{
			name:  "bad geom",
			src:   `cells: [{id: 4, geom: "-1 (2"}]`,
			field: "geom",
			msg:   "cell 4",
		},
		{
			name:  "self complement",
			src:   `cells: [{id: 4, geom: "-1 #4"}]`,
			field: "geom",
			msg:   "complements itself",
		},
		{
			name:  "undefined transform",
			src:   `cells: [{id: 1, geom: "-1", trcl: 3}]`,
			field: "transform",
			msg:   "undefined transform 3",
		},
		{
			name:  "short rotation",
			src:   `transforms: [{id: 1, rotation: [1, 0, 0]}]`,
			field: "transforms[0].rotation",
			msg:   "9 entries",
		},
		{
			name:  "unknown lattice type",
			src:   `cells: [{id: 1, geom: "-1", lattice: {type: "tri", pitch: [[1, 0, 0]]}}]`,
			field: "lattice",
			msg:   "unknown lattice type",
		},
		{
			name:  "bad vector",
			src:   `cells: [{id: 1, geom: "-1", lattice: {pitch: [[1, 0]]}}]`,
			field: "cells[0].lattice.pitch[0]",
			msg:   "3 components",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileString(t, tt.src)
			require.Error(t, err)
			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
			assert.Contains(t, ce.Message, tt.msg)
		})
	}
}

func TestCompileDeckNormalizesStrings(t *testing.T) {
	// "e" + combining acute composes to U+00E9.
	d, err := compileString(t, "title: \"cafe\u0301\"\ncells: [{id: 1, geom: \"-1\", labels: [\"re\u0301gion\"]}]")
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9", d.Title)
	c, _ := d.Cell(1)
	assert.Equal(t, []string{"r\u00e9gion"}, c.Labels)
}

func TestCompileDeckTypeError(t *testing.T) {
	_, err := compileString(t, `surfaces: [{id: "one", type: "so", params: [1]}]`)
	require.Error(t, err)
}

func TestCompileDeckFromPath(t *testing.T) {
	v := cuecontext.New().CompileString(`deck: {cells: [{id: 1, geom: "-1"}]}`)
	d, err := CompileDeck(v.LookupPath(cue.ParsePath("deck")))
	require.NoError(t, err)
	assert.Len(t, d.Cells, 1)
}
