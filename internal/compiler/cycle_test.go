package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cellcad/internal/deck"
)

func fillCell(id, universe, fill int) deck.Cell {
	return deck.Cell{ID: id, Geom: []deck.Token{surf(-1)}, Universe: universe, Fill: &deck.Fill{Universe: fill}}
}

func plainCell(id, universe int) deck.Cell {
	return deck.Cell{ID: id, Geom: []deck.Token{surf(-1)}, Universe: universe}
}

func TestAnalyzeUniverses_Acyclic(t *testing.T) {
	d := deck.New("", nil, nil, []deck.Cell{
		fillCell(1, 0, 1),
		fillCell(2, 1, 2),
		fillCell(3, 0, 2),
		plainCell(4, 2),
	})
	assert.Empty(t, AnalyzeUniverses(d))
}

func TestAnalyzeUniverses_SelfLoop(t *testing.T) {
	d := deck.New("", nil, nil, []deck.Cell{fillCell(1, 0, 1), fillCell(2, 1, 1)})

	cycles := AnalyzeUniverses(d)
	require.Len(t, cycles, 1)
	assert.Equal(t, []int{1, 1}, cycles[0].Path)
}

func TestAnalyzeUniverses_MultiNode(t *testing.T) {
	d := deck.New("", nil, nil, []deck.Cell{
		fillCell(1, 0, 3),
		fillCell(2, 3, 2),
		fillCell(3, 2, 4),
		fillCell(4, 4, 3),
		fillCell(5, 5, 6),
		fillCell(6, 6, 5),
	})

	cycles := AnalyzeUniverses(d)
	require.Len(t, cycles, 2)
	assert.Equal(t, []int{2, 4, 3, 2}, cycles[0].Path)
	assert.Equal(t, []int{5, 6, 5}, cycles[1].Path)
	assert.Equal(t, "universe fill cycle: 5 -> 6 -> 5", cycles[1].Message)
}

func TestAnalyzeUniverses_LatticeSelfFillIsNotACycle(t *testing.T) {
	lat := &deck.Lattice{
		Pitch:  []deck.Vec3{{1, 0, 0}},
		Ranges: []deck.IndexRange{{Min: 0, Max: 1}},
		Fills:  []deck.Fill{{Universe: 1}, {Universe: 2}},
	}
	d := deck.New("", nil, nil, []deck.Cell{
		fillCell(1, 0, 1),
		{ID: 2, Geom: []deck.Token{surf(-1)}, Universe: 1, Lattice: lat},
		plainCell(3, 2),
	})
	assert.Empty(t, AnalyzeUniverses(d))
}
