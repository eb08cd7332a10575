package geometry

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/cellcad/internal/config"
	"github.com/roach88/cellcad/internal/deck"
	"github.com/roach88/cellcad/internal/kernel"
	"github.com/roach88/cellcad/internal/metrics"
	"github.com/roach88/cellcad/internal/volume"
)

// Builder assembles one deck into kernel solids.
//
// A Builder holds the kernel, the deck and all per-run state. It runs
// CreateGeometry once; construct a new Builder for every build.
//
// Thread-safety: none. The kernel is not assumed reentrant.
type Builder struct {
	deck    *deck.Deck
	tracker *Tracker
	opts    config.Options
	logger  *slog.Logger
	metrics *metrics.Collector
	guard   *UniverseGuard

	world    float64
	expected int // result solids the symbolic walk accounts for
	stats    Stats
	nodes    []LatticeNode
	built    bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for warnings and trace output.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// WithMetrics reports build counters to c.
func WithMetrics(c *metrics.Collector) Option {
	return func(b *Builder) {
		b.metrics = c
	}
}

// NewBuilder creates a builder for d over k.
//
// Route k through a kernel.Recorder to journal every call.
func NewBuilder(d *deck.Deck, k kernel.Kernel, opts config.Options, options ...Option) *Builder {
	b := &Builder{
		deck:    d,
		tracker: NewTracker(k, NewRegistry()),
		opts:    opts,
		logger:  slog.Default(),
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

// Stats summarizes one build.
type Stats struct {
	Cells                int `json:"cells"`
	Universes            int `json:"universes"`
	MaxDepth             int `json:"max_depth"`
	LatticeNodesOccupied int `json:"lattice_nodes_occupied"`
	LatticeNodesEmpty    int `json:"lattice_nodes_empty"`
	LatticeNodesSkipped  int `json:"lattice_nodes_skipped"`
	Solids               int `json:"solids"`
}

// GroupResult is one finalized kernel group.
type GroupResult struct {
	Name    string          `json:"name"`
	Members []kernel.Handle `json:"members"`
}

// NameResult is one finalized kernel name.
type NameResult struct {
	Handle kernel.Handle `json:"handle"`
	Name   string        `json:"name"`
}

// Result is the outcome of CreateGeometry.
type Result struct {
	// Handles are the final solids in creation order, graveyard last.
	Handles []kernel.Handle `json:"handles"`

	// Graveyard is the bounding shell, or Nil when disabled.
	Graveyard kernel.Handle `json:"graveyard,omitempty"`

	// Groups are the finalized groups in name order.
	Groups []GroupResult `json:"groups"`

	// Names are the finalized cell names in creation order.
	Names []NameResult `json:"names"`

	// LatticeNodes are the occupied lattice nodes in visiting order.
	LatticeNodes []LatticeNode `json:"lattice_nodes,omitempty"`

	// Warnings are option adjustments made before the build.
	Warnings []string `json:"warnings,omitempty"`

	// World is the radius bounding every region.
	World float64 `json:"world"`

	Stats Stats `json:"stats"`
}

// Group returns the members of a finalized group.
func (r *Result) Group(name string) ([]kernel.Handle, bool) {
	for _, g := range r.Groups {
		if g.Name == name {
			return g.Members, true
		}
	}
	return nil, false
}

// HandlesNamed returns every solid carrying name.
func (r *Result) HandlesNamed(name string) []kernel.Handle {
	var out []kernel.Handle
	for _, n := range r.Names {
		if n.Name == name {
			out = append(out, n.Handle)
		}
	}
	return out
}

// CreateGeometry builds the deck.
//
// Sequence: expand the root universe in world coordinates; build the
// graveyard; imprint and merge; verify the registry against the kernel;
// finalize groups and names into the kernel. Tags reach the kernel only in
// the last step, on stable handles.
//
// Any error aborts the build. The kernel may hold partial geometry afterwards.
func (b *Builder) CreateGeometry(ctx context.Context) (*Result, error) {
	if b.built {
		return nil, errors.New("builder already ran; construct a new Builder")
	}
	b.built = true
	start := time.Now()
	defer func() { b.metrics.ObserveBuild(time.Since(start)) }()

	warnings := b.opts.Normalize()
	for _, w := range warnings {
		b.logger.Warn(w, "code", string(ErrCodeConfiguration))
	}
	if err := b.opts.Validate(); err != nil {
		ce := NewConfigurationError("invalid options")
		ce.Err = err
		return nil, ce
	}
	b.guard = NewUniverseGuard(b.opts.MaxUniverseDepth)

	b.world = volume.WorldSize(b.deck)
	b.logger.Info("building geometry",
		"title", b.deck.Title,
		"cells", len(b.deck.Cells),
		"surfaces", len(b.deck.Surfaces),
		"world", b.world)
	if b.opts.Debug {
		for _, d := range volume.Distances(b.deck) {
			b.logger.Info("surface distance", "surface", d.ID, "type", d.Type, "distance", d.Distance, "error", d.Error)
		}
	}

	roots, err := b.defineUniverse(ctx, deck.RootUniverse, kernel.Nil, deck.Identity())
	if err != nil {
		return nil, err
	}
	final := b.tracker.Track(roots...)
	defer b.tracker.Release(final)

	result := &Result{Warnings: warnings, World: b.world}

	if b.opts.MakeGraveyard {
		g, err := b.makeGraveyard(ctx, final)
		if err != nil {
			return nil, err
		}
		final.Add(g)
	}

	if b.opts.Imprint {
		if err := b.tracker.Imprint(final.Handles()); err != nil {
			return nil, NewGeometryError(0, err, "imprint failed")
		}
		if b.opts.Merge {
			if err := b.tracker.Merge(final.Handles(), b.opts.MergeToleranceOrDefault()); err != nil {
				return nil, NewGeometryError(0, err, "merge failed")
			}
		}
	}

	if err := b.tracker.MapSanityCheck(final.Handles(), b.expected); err != nil {
		return nil, err
	}

	if b.opts.MakeGraveyard {
		result.Graveyard = final.Last()
	}
	if err := b.finalize(result); err != nil {
		return nil, err
	}

	result.Handles = final.Handles()
	result.LatticeNodes = b.nodes
	b.stats.Solids = final.Len()
	b.stats.MaxDepth = b.guard.Peak()
	result.Stats = b.stats

	b.logger.Info("geometry built",
		"solids", b.stats.Solids,
		"groups", len(result.Groups),
		"lattice_nodes", b.stats.LatticeNodesOccupied,
		"duration", time.Since(start))
	return result, nil
}

// finalize writes groups (sorted by name) and cell names into the kernel.
func (b *Builder) finalize(result *Result) error {
	k := b.tracker.Kernel()
	reg := b.tracker.Registry()
	result.Groups = []GroupResult{}
	for _, name := range reg.GroupNames() {
		g, _ := reg.LookupGroup(name)
		if g.Len() == 0 {
			continue
		}
		members := g.Handles()
		if err := k.CreateGroup(name, members); err != nil {
			return NewGeometryError(0, err, "creating group %q", name)
		}
		result.Groups = append(result.Groups, GroupResult{Name: name, Members: members})
	}

	result.Names = []NameResult{}
	for _, e := range reg.Entities() {
		if err := k.SetName(e.Handle(), e.Name()); err != nil {
			return NewGeometryError(0, err, "naming %s", e.Handle())
		}
		result.Names = append(result.Names, NameResult{Handle: e.Handle(), Name: e.Name()})
	}
	return nil
}

// trace logs one step of the traversal, indented by universe depth.
// Debug mode raises trace lines to Info so they show without --verbose.
func (b *Builder) trace(ctx context.Context, msg string, args ...any) {
	level := slog.LevelDebug
	if b.opts.Debug {
		level = slog.LevelInfo
	}
	if !b.logger.Enabled(ctx, level) {
		return
	}
	depth := 0
	if b.guard != nil {
		depth = b.guard.Depth()
	}
	indent := strings.Repeat("  ", max(depth-1, 0))
	b.logger.Log(ctx, level, indent+msg, append(args, "depth", depth)...)
}
