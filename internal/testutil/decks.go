// Package testutil holds deck fixtures shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TwoCellDeck is a material sphere inside a void shell.
//
// With default options it builds three solids: cell 1, cell 2 and the
// graveyard. Cell 1 is the only member of mat_3_rho_2.5.
const TwoCellDeck = `package deck

title: "two cells"

surfaces: [
	{id: 1, type: "so", params: [5]},
	{id: 2, type: "so", params: [10]},
]

cells: [
	{id: 1, geom: "-1", material: 3, density: 2.5, importance: {n: 1}},
	{id: 2, geom: "1 -2", importance: {n: 1}},
]
`

// LatticeDeck is a 1-D infinite lattice of unit cells filled with a large
// sphere, clipped by a container spanning x in [-0.5, 2.5]. Nodes 0, 1 and
// 2 are occupied.
const LatticeDeck = `package deck

title: "row"

surfaces: [
	{id: 3, type: "rpp", params: [-0.5, 0.5, -0.5, 0.5, -0.5, 0.5]},
	{id: 4, type: "rpp", params: [-0.5, 2.5, -0.5, 0.5, -0.5, 0.5]},
	{id: 5, type: "so", params: [50]},
]

cells: [
	{id: 100, geom: "-4", fill: 1},
	{id: 10, geom: "-3", universe: 1, fill: 2, lattice: {type: "rect", pitch: [[1, 0, 0]]}},
	{id: 20, geom: "-5", universe: 2, material: 1, density: 1},
]
`

// CycleDeck fills universe 1 with itself through universe 2.
const CycleDeck = `package deck

title: "cycle"

surfaces: [{id: 1, type: "so", params: [5]}]

cells: [
	{id: 1, geom: "-1", fill: 1},
	{id: 2, geom: "-1", universe: 1, fill: 2},
	{id: 3, geom: "-1", universe: 2, fill: 1},
]
`

// WriteDeckDir writes files into a fresh temporary directory and returns it.
func WriteDeckDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

// WriteDeck writes a single-file deck and returns its directory.
func WriteDeck(t *testing.T, src string) string {
	t.Helper()
	return WriteDeckDir(t, map[string]string{"deck.cue": src})
}
