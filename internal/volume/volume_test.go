package volume

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cellcad/internal/deck"
	"github.com/roach88/cellcad/internal/kernel"
)

func surf(id int, typ string, params ...float64) *deck.Surface {
	return &deck.Surface{ID: id, Type: typ, Params: params}
}

func TestRegion_PlaneSenses(t *testing.T) {
	s := surf(1, "px", 2)

	low, err := Region(s, -1, 10)
	require.NoError(t, err)
	assert.Equal(t, kernel.RegionHalfSpace, low.Kind)
	assert.Equal(t, deck.Vec3{1, 0, 0}, low.Normal)
	assert.Equal(t, 2.0, low.Offset)
	assert.Equal(t, 10.0, low.World)

	high, err := Region(s, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, deck.Vec3{-1, 0, 0}, high.Normal)
	assert.Equal(t, -2.0, high.Offset)
}

func TestRegion_GeneralPlane(t *testing.T) {
	r, err := Region(surf(4, "p", 0, 0, 2, 6), -1, 10)
	require.NoError(t, err)
	assert.Equal(t, deck.Vec3{0, 0, 2}, r.Normal)
	assert.Equal(t, 6.0, r.Offset)
	require.NoError(t, r.Validate())
}

func TestRegion_SphereVariants(t *testing.T) {
	tests := []struct {
		name   string
		s      *deck.Surface
		center deck.Vec3
		radius float64
	}{
		{"so", surf(1, "so", 3), deck.Vec3{}, 3},
		{"s", surf(2, "s", 1, 2, 3, 4), deck.Vec3{1, 2, 3}, 4},
		{"sy", surf(3, "sy", -5, 1), deck.Vec3{0, -5, 0}, 1},
		{"sph", surf(4, "sph", 0, 0, 1, 2), deck.Vec3{0, 0, 1}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Region(tt.s, -1, 100)
			require.NoError(t, err)
			assert.Equal(t, kernel.RegionSphere, r.Kind)
			assert.Equal(t, tt.center, r.Center)
			assert.Equal(t, tt.radius, r.Radius)
			assert.False(t, r.Outside)
			require.NoError(t, r.Validate())
		})
	}
}

func TestRegion_OutsideSense(t *testing.T) {
	r, err := Region(surf(1, "so", 3), 1, 100)
	require.NoError(t, err)
	assert.True(t, r.Outside)
	require.NoError(t, r.Validate())
}

func TestRegion_OffsetCylinder(t *testing.T) {
	r, err := Region(surf(7, "c/z", 1, 2, 0.5), -1, 50)
	require.NoError(t, err)
	assert.Equal(t, kernel.RegionCylinder, r.Kind)
	assert.Equal(t, deck.Vec3{1, 2, 0}, r.Center)
	assert.Equal(t, deck.Vec3{0, 0, 1}, r.Axis)
	assert.Greater(t, r.HalfLength, 50.0)

	r, err = Region(surf(8, "c/x", 3, 4, 1), -1, 50)
	require.NoError(t, err)
	assert.Equal(t, deck.Vec3{0, 3, 4}, r.Center)
}

func TestRegion_RightCircularCylinder(t *testing.T) {
	r, err := Region(surf(9, "rcc", 0, 0, -2, 0, 0, 4, 1), -1, 50)
	require.NoError(t, err)
	assert.Equal(t, deck.Vec3{0, 0, 0}, r.Center)
	assert.Equal(t, 2.0, r.HalfLength)
	assert.Equal(t, deck.Vec3{0, 0, 1}, r.Axis)
}

func TestRegion_Unboundable(t *testing.T) {
	tests := []struct {
		name    string
		s       *deck.Surface
		wantErr string
	}{
		{"unsupported", surf(1, "gq", 1, 1, 1, 0, 0, 0, 0, 0, 0, -1), "unsupported surface type"},
		{"cone", surf(2, "kz", 0, 1), "unsupported surface type"},
		{"zero radius", surf(3, "so", 0), "radius must be positive"},
		{"param count", surf(4, "px"), "expected 1 parameters"},
		{"flat rpp", surf(5, "rpp", 0, 1, 0, 0, 0, 1), "empty extent on axis 1"},
		{"zero normal", surf(6, "p", 0, 0, 0, 1), "zero normal"},
		{"nan", surf(7, "px", math.NaN()), "not finite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Region(tt.s, -1, 10)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var se *SurfaceError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.s.ID, se.ID)
		})
	}
}

func TestRegion_ZeroSense(t *testing.T) {
	_, err := Region(surf(1, "so", 1), 0, 10)
	assert.Error(t, err)
}

func TestFarthestExtent(t *testing.T) {
	tests := []struct {
		name string
		s    *deck.Surface
		want float64
	}{
		{"plane", surf(1, "pz", -7), 7},
		{"general plane", surf(2, "p", 0, 3, 4, 10), 2},
		{"origin sphere", surf(3, "so", 5), 5},
		{"offset sphere", surf(4, "s", 3, 4, 0, 1), 6},
		{"axis cylinder", surf(5, "cz", 2), 2},
		{"offset cylinder", surf(6, "c/z", 3, 4, 1), 6},
		{"box", surf(7, "rpp", -1, 2, -2, 1, 0, 2), math.Sqrt(12)},
		{"rcc", surf(8, "rcc", 0, 0, 0, 0, 0, 3, 1), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FarthestExtent(tt.s)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestWorldSize(t *testing.T) {
	d := deck.New("w",
		[]deck.Surface{
			{ID: 1, Type: "so", Params: []float64{10}},
			{ID: 2, Type: "gq", Params: []float64{1}},
		},
		[]deck.Transform{{ID: 1, Translation: deck.Vec3{0, 5, 0}}},
		nil,
	)
	assert.InDelta(t, 1.2*15, WorldSize(d), 1e-12)
}

func TestWorldSize_IncludesInlineTransforms(t *testing.T) {
	d := deck.New("w",
		[]deck.Surface{{ID: 1, Type: "so", Params: []float64{1}}},
		nil,
		[]deck.Cell{{ID: 1, Trcl: &deck.Transform{Translation: deck.Vec3{3, 0, 0}}}},
	)
	assert.InDelta(t, 1.2*4, WorldSize(d), 1e-12)
}

func TestWorldSize_EmptyDeck(t *testing.T) {
	assert.Equal(t, MinWorld, WorldSize(deck.New("empty", nil, nil, nil)))
}

func TestDistances(t *testing.T) {
	d := deck.New("d",
		[]deck.Surface{
			{ID: 1, Type: "px", Params: []float64{-4}},
			{ID: 2, Type: "tz", Params: []float64{0, 0, 0, 1, 1, 1}},
		},
		nil, nil,
	)
	rows := Distances(d)
	require.Len(t, rows, 2)
	assert.Equal(t, 4.0, rows[0].Distance)
	assert.Empty(t, rows[0].Error)
	assert.Contains(t, rows[1].Error, "unsupported")
}
