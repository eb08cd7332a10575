package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/cellcad/internal/config"
	"github.com/roach88/cellcad/internal/deck"
	"github.com/roach88/cellcad/internal/geometry"
	"github.com/roach88/cellcad/internal/kernel"
	"github.com/roach88/cellcad/internal/kernel/memkernel"
	"github.com/roach88/cellcad/internal/metrics"
	"github.com/roach88/cellcad/internal/store"
)

// Engine runs builds against the reference kernel.
//
// Every build gets a fresh kernel, journal and metrics collector. The
// engine itself holds no per-build state, but builds share the store
// connection; run them one at a time.
type Engine struct {
	store  *store.Store
	runIDs store.RunIDGenerator
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore records every build in s.
func WithStore(s *store.Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithRunIDs sets the run id generator.
//
// Default: store.UUIDv7Generator. Tests use store.NewFixedGenerator.
func WithRunIDs(g store.RunIDGenerator) Option {
	return func(e *Engine) {
		e.runIDs = g
	}
}

// WithLogger sets the logger handed to every builder.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an engine. Without WithStore, builds are not recorded.
func New(opts ...Option) *Engine {
	e := &Engine{
		runIDs: store.UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Report is the outcome of one build.
type Report struct {
	// RunID identifies the build. Empty for replays, which are not recorded.
	RunID string

	// Seq is the store sequence number, or 0 when no store is attached.
	Seq int64

	DeckHash string
	Options  config.Options

	// Result is nil when the build failed.
	Result *geometry.Result

	// Journal holds every kernel call, including the one that failed.
	Journal []kernel.Operation

	// Model is the kernel the build ran on. After a failure it may hold
	// partial geometry.
	Model *memkernel.Kernel

	Metrics  *metrics.Collector
	Duration time.Duration
}

// Status returns the store status matching the build outcome.
func (r *Report) Status() store.RunStatus {
	if r.Result == nil {
		return store.RunFailed
	}
	return store.RunOK
}

// Build builds d with opts and records the run when a store is attached.
//
// The report is returned even when the build fails, so callers can show
// the journal up to the failing call. A build error takes precedence over
// a store error; the store error is then only logged.
func (e *Engine) Build(ctx context.Context, d *deck.Deck, opts config.Options) (*Report, error) {
	rep, buildErr := e.run(ctx, d, opts)
	if rep == nil {
		return nil, buildErr
	}
	rep.RunID = e.runIDs.Generate()
	log := e.logger.With("run", rep.RunID)

	if buildErr != nil {
		log.Error("build failed", "error", buildErr, "operations", len(rep.Journal))
	}

	if e.store == nil {
		return rep, buildErr
	}

	seq, err := e.record(ctx, d, rep, buildErr)
	if err != nil {
		werr := &RunError{Code: ErrCodeStoreWrite, Message: "recording build", RunID: rep.RunID, Err: err}
		if buildErr != nil {
			log.Error("build not recorded", "error", werr)
			return rep, buildErr
		}
		return rep, werr
	}
	rep.Seq = seq
	log.Debug("build recorded", "seq", seq, "status", rep.Status())
	return rep, buildErr
}

// run performs the build without recording it.
func (e *Engine) run(ctx context.Context, d *deck.Deck, opts config.Options) (*Report, error) {
	hash, err := deck.Hash(d)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		DeckHash: hash,
		Options:  opts,
		Model:    memkernel.New(memkernel.WithSamples(opts.KernelSamples)),
		Metrics:  metrics.New(),
	}
	rec := kernel.NewRecorder(rep.Model, kernel.WithObserver(rep.Metrics))
	b := geometry.NewBuilder(d, rec, opts,
		geometry.WithLogger(e.logger),
		geometry.WithMetrics(rep.Metrics))

	start := time.Now()
	res, err := b.CreateGeometry(ctx)
	rep.Duration = time.Since(start)
	rep.Journal = rec.Operations()
	rep.Result = res
	return rep, err
}

// record writes the report to the store.
func (e *Engine) record(ctx context.Context, d *deck.Deck, rep *Report, buildErr error) (int64, error) {
	encoded, err := rep.Options.Encode()
	if err != nil {
		return 0, err
	}

	run := store.Run{
		ID:            rep.RunID,
		DeckHash:      rep.DeckHash,
		DeckTitle:     d.Title,
		Options:       string(encoded),
		EngineVersion: deck.EngineVersion,
		Status:        rep.Status(),
		Bodies:        len(rep.Model.Bodies()),
	}
	if buildErr != nil {
		run.Error = buildErr.Error()
	}

	b := store.Build{Run: run, Operations: rep.Journal}
	if res := rep.Result; res != nil {
		b.Run.World = res.World
		for _, g := range res.Groups {
			b.Groups = append(b.Groups, store.GroupRecord{Name: g.Name, Handles: g.Members})
		}
		for _, n := range res.Names {
			b.Names = append(b.Names, store.NameRecord{Name: n.Name, Handle: n.Handle})
		}
	}
	return e.store.WriteBuild(ctx, b)
}
