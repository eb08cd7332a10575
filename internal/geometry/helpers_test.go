package geometry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/cellcad/internal/config"
	"github.com/roach88/cellcad/internal/deck"
	"github.com/roach88/cellcad/internal/kernel"
	"github.com/roach88/cellcad/internal/kernel/memkernel"
)

var (
	and = deck.Token{Kind: deck.TokenIntersect}
	or  = deck.Token{Kind: deck.TokenUnion}
	not = deck.Token{Kind: deck.TokenComplement}
)

// sf is a signed surface reference token.
func sf(v int) deck.Token {
	return deck.Token{Kind: deck.TokenSurface, Value: v}
}

func geom(toks ...deck.Token) []deck.Token {
	return toks
}

func rpp(id int, xmin, xmax, ymin, ymax, zmin, zmax float64) deck.Surface {
	return deck.Surface{ID: id, Type: "rpp", Params: []float64{xmin, xmax, ymin, ymax, zmin, zmax}}
}

func so(id int, r float64) deck.Surface {
	return deck.Surface{ID: id, Type: "so", Params: []float64{r}}
}

// testOptions are the defaults with the graveyard and imprint off, so
// result handles are exactly the cell solids.
func testOptions() config.Options {
	o := config.Default()
	o.MakeGraveyard = false
	o.Imprint = false
	o.Merge = false
	return o
}

type buildOutput struct {
	result *Result
	mem    *memkernel.Kernel
	rec    *kernel.Recorder
}

func build(t *testing.T, d *deck.Deck, opts config.Options) buildOutput {
	t.Helper()
	out, err := tryBuild(d, opts)
	require.NoError(t, err)
	return out
}

func tryBuild(d *deck.Deck, opts config.Options) (buildOutput, error) {
	mem := memkernel.New()
	rec := kernel.NewRecorder(mem)
	res, err := NewBuilder(d, rec, opts).CreateGeometry(context.Background())
	return buildOutput{result: res, mem: mem, rec: rec}, err
}

// solidOf returns the single solid named for cellID.
func solidOf(t *testing.T, res *Result, cellID int) kernel.Handle {
	t.Helper()
	hs := res.HandlesNamed(CellName(cellID))
	require.Len(t, hs, 1, "cell %d solids", cellID)
	return hs[0]
}

func contains(t *testing.T, k *memkernel.Kernel, h kernel.Handle, p deck.Vec3) bool {
	t.Helper()
	in, err := k.Contains(h, p)
	require.NoError(t, err)
	return in
}

// latticeDeck is a 1-D infinite lattice of unit cells (universe 1) filled
// with a big sphere (universe 2), placed in a root container spanning
// x in [-0.5, xmax].
func latticeDeck(xmax float64) *deck.Deck {
	return deck.New("lattice",
		[]deck.Surface{
			rpp(3, -0.5, 0.5, -0.5, 0.5, -0.5, 0.5),
			rpp(4, -0.5, xmax, -0.5, 0.5, -0.5, 0.5),
			so(5, 50),
		},
		nil,
		[]deck.Cell{
			{ID: 100, Geom: geom(sf(-4)), Fill: &deck.Fill{Universe: 1}},
			{
				ID:       10,
				Geom:     geom(sf(-3)),
				Universe: 1,
				Fill:     &deck.Fill{Universe: 2},
				Lattice: &deck.Lattice{
					Kind:  deck.LatticeRect,
					Pitch: []deck.Vec3{{1, 0, 0}},
				},
			},
			{ID: 20, Geom: geom(sf(-5)), Universe: 2, Material: 1, Density: 1},
		},
	)
}

func nodeXs(nodes []LatticeNode) []int {
	xs := make([]int, 0, len(nodes))
	for _, n := range nodes {
		xs = append(xs, n.X)
	}
	return xs
}
