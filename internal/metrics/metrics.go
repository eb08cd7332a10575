// Package metrics exposes build counters through a per-build Prometheus registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Lattice node outcomes.
const (
	NodeOccupied = "occupied"
	NodeEmpty    = "empty"
	NodeSkipped  = "skipped" // disjoint bounding boxes, no kernel test
)

// Collector records one build's counters. A nil *Collector discards everything.
type Collector struct {
	registry      *prometheus.Registry
	kernelOps     *prometheus.CounterVec
	kernelErrors  *prometheus.CounterVec
	latticeNodes  *prometheus.CounterVec
	cells         prometheus.Counter
	buildDuration prometheus.Histogram
}

// New creates a collector with its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		kernelOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cellcad",
				Subsystem: "kernel",
				Name:      "operations_total",
				Help:      "Kernel calls issued by the geometry builder.",
			},
			[]string{"op"},
		),
		kernelErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cellcad",
				Subsystem: "kernel",
				Name:      "errors_total",
				Help:      "Kernel calls that returned an error.",
			},
			[]string{"op"},
		),
		latticeNodes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cellcad",
				Subsystem: "lattice",
				Name:      "nodes_total",
				Help:      "Lattice nodes visited, by outcome.",
			},
			[]string{"outcome"},
		),
		cells: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cellcad",
			Name:      "cells_defined_total",
			Help:      "Cell definitions, counting every lattice or universe instance.",
		}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cellcad",
			Name:      "build_duration_seconds",
			Help:      "Wall time of CreateGeometry.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	c.registry.MustRegister(c.kernelOps, c.kernelErrors, c.latticeNodes, c.cells, c.buildDuration)
	return c
}

// ObserveOperation counts one kernel call. It satisfies kernel.OperationObserver.
func (c *Collector) ObserveOperation(op string, failed bool) {
	if c == nil {
		return
	}
	c.kernelOps.WithLabelValues(op).Inc()
	if failed {
		c.kernelErrors.WithLabelValues(op).Inc()
	}
}

// LatticeNode counts one visited lattice node.
func (c *Collector) LatticeNode(outcome string) {
	if c == nil {
		return
	}
	c.latticeNodes.WithLabelValues(outcome).Inc()
}

// CellDefined counts one cell definition.
func (c *Collector) CellDefined() {
	if c == nil {
		return
	}
	c.cells.Inc()
}

// ObserveBuild records the duration of a build.
func (c *Collector) ObserveBuild(d time.Duration) {
	if c == nil {
		return
	}
	c.buildDuration.Observe(d.Seconds())
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes the registry in the text exposition format.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
