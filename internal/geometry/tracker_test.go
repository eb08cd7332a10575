package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cellcad/internal/deck"
	"github.com/roach88/cellcad/internal/kernel"
	"github.com/roach88/cellcad/internal/kernel/memkernel"
)

func newTestTracker() (*Tracker, *memkernel.Kernel) {
	k := memkernel.New()
	return NewTracker(k, NewRegistry()), k
}

func mustPrimitive(t *testing.T, tr *Tracker, r kernel.Region) kernel.Handle {
	t.Helper()
	h, err := tr.CreatePrimitive(r)
	require.NoError(t, err)
	return h
}

// assertClosed checks that every registry and set handle is live.
func assertClosed(t *testing.T, tr *Tracker, k *memkernel.Kernel, sets ...*HandleSet) {
	t.Helper()
	for _, h := range tr.Registry().LiveHandles() {
		assert.True(t, k.Valid(h), "registry handle %s retired", h)
	}
	for _, s := range sets {
		for _, h := range s.Handles() {
			assert.True(t, k.Valid(h), "set handle %s retired", h)
		}
	}
}

func TestTracker_RemapClosure(t *testing.T) {
	tr, k := newTestTracker()
	reg := tr.Registry()

	a := mustPrimitive(t, tr, kernel.Cube(2))
	b := mustPrimitive(t, tr, kernel.Region{Kind: kernel.RegionSphere, Radius: 1})
	c := mustPrimitive(t, tr, kernel.Cube(3))
	reg.Group("g").Add(a)
	reg.Group("g").Add(b)
	reg.AddEntity(c, "CELL_ID_3")
	set := tr.Track(a, b, c)
	defer tr.Release(set)

	r, err := tr.Subtract(a, b)
	require.NoError(t, err)
	assertClosed(t, tr, k, set)
	assert.Equal(t, []kernel.Handle{r}, reg.Group("g").Handles())
	assert.Equal(t, []kernel.Handle{r, c}, set.Handles())

	moved, err := tr.Transform(c, deck.Translate(deck.Vec3{1, 0, 0}))
	require.NoError(t, err)
	assertClosed(t, tr, k, set)
	assert.Equal(t, moved, reg.Entities()[0].Handle())

	require.NoError(t, tr.Imprint(set.Handles()))
	assertClosed(t, tr, k, set)

	require.NoError(t, tr.Delete(set.At(0)))
	assertClosed(t, tr, k, set)
	assert.Equal(t, 0, reg.Group("g").Len())
	assert.Equal(t, 1, set.Len())
}

func TestTracker_ReleasedSetIsNotUpdated(t *testing.T) {
	tr, _ := newTestTracker()
	a := mustPrimitive(t, tr, kernel.Cube(1))
	set := tr.Track(a)
	tr.Release(set)

	moved, err := tr.Transform(a, deck.Translate(deck.Vec3{0, 1, 0}))
	require.NoError(t, err)
	assert.NotEqual(t, moved, set.At(0))
}

func TestTracker_IdentityTransformIsNotSent(t *testing.T) {
	k := memkernel.New()
	rec := kernel.NewRecorder(k)
	tr := NewTracker(rec, NewRegistry())
	a := mustPrimitive(t, tr, kernel.Cube(1))

	h, err := tr.Transform(a, deck.Identity())
	require.NoError(t, err)
	assert.Equal(t, a, h)
	assert.Len(t, rec.Operations(), 1)
}

func TestMapSanityCheck_PassesAfterTrackedOperations(t *testing.T) {
	tr, _ := newTestTracker()
	a := mustPrimitive(t, tr, kernel.Cube(2))
	b := mustPrimitive(t, tr, kernel.Cube(1))
	tr.Registry().Group("g").Add(a)

	r, err := tr.Intersect(a, b)
	require.NoError(t, err)
	assert.NoError(t, tr.MapSanityCheck([]kernel.Handle{r}, 1))
}

func TestMapSanityCheck_DetectsBypassedUpdate(t *testing.T) {
	tr, k := newTestTracker()
	a := mustPrimitive(t, tr, kernel.Cube(2))
	tr.Registry().Group("g").Add(a)
	tr.Registry().AddEntity(a, "CELL_ID_1")

	// Move the solid behind the tracker's back.
	res, err := k.Transform(a, deck.Translate(deck.Vec3{1, 0, 0}))
	require.NoError(t, err)

	err = tr.MapSanityCheck([]kernel.Handle{res.Handle}, 1)
	require.Error(t, err)
	assert.True(t, IsConsistencyError(err))

	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 1, be.Observed)
	assert.Contains(t, err.Error(), "retired handles")
}

func TestMapSanityCheck_CountMismatch(t *testing.T) {
	tr, _ := newTestTracker()
	a := mustPrimitive(t, tr, kernel.Cube(2))

	err := tr.MapSanityCheck([]kernel.Handle{a}, 2)
	require.Error(t, err)
	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 2, be.Expected)
	assert.Equal(t, 1, be.Observed)
}

func TestMapSanityCheck_LeakedSolid(t *testing.T) {
	tr, _ := newTestTracker()
	a := mustPrimitive(t, tr, kernel.Cube(2))
	_ = mustPrimitive(t, tr, kernel.Cube(1))

	err := tr.MapSanityCheck([]kernel.Handle{a}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kernel holds 2 solids")
}

func TestMapSanityCheck_RetiredResult(t *testing.T) {
	tr, k := newTestTracker()
	a := mustPrimitive(t, tr, kernel.Cube(2))
	require.NoError(t, k.Delete(a))

	err := tr.MapSanityCheck([]kernel.Handle{a}, 1)
	assert.True(t, IsConsistencyError(err))
}
