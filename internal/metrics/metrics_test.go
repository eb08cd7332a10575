package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counts(t *testing.T) {
	c := New()
	c.ObserveOperation("intersect", false)
	c.ObserveOperation("intersect", false)
	c.ObserveOperation("subtract", true)
	c.LatticeNode(NodeOccupied)
	c.LatticeNode(NodeEmpty)
	c.LatticeNode(NodeEmpty)
	c.CellDefined()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.kernelOps.WithLabelValues("intersect")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.kernelOps.WithLabelValues("subtract")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.kernelErrors.WithLabelValues("subtract")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.latticeNodes.WithLabelValues(NodeEmpty)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.cells))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveOperation("copy", false)
		c.LatticeNode(NodeSkipped)
		c.CellDefined()
		c.ObserveBuild(time.Second)
	})
}

func TestCollector_WriteTextfile(t *testing.T) {
	c := New()
	c.ObserveOperation("unite", false)
	c.ObserveBuild(10 * time.Millisecond)

	path := filepath.Join(t.TempDir(), "cellcad.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `cellcad_kernel_operations_total{op="unite"} 1`)
	assert.Contains(t, string(data), "cellcad_build_duration_seconds_count 1")
}

func TestCollector_SeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.CellDefined()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.cells))
}
