package engine

import (
	"context"
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/roach88/cellcad/internal/config"
	"github.com/roach88/cellcad/internal/deck"
	"github.com/roach88/cellcad/internal/kernel"
	"github.com/roach88/cellcad/internal/store"
)

// ReplayReport compares a stored run with a fresh build of the same deck
// under the stored options.
type ReplayReport struct {
	RunID    string
	Recorded store.Run
	Rebuilt  *Report

	// Diff is the journal difference (recorded -> rebuilt), empty when
	// every kernel call matches.
	Diff string

	// DeckChanged is set when the deck hash differs from the recorded one.
	// The journals may still match.
	DeckChanged bool

	// StatusChanged is set when one build failed and the other did not.
	StatusChanged bool
}

// Match reports whether the rebuild reproduced the recorded run.
func (r *ReplayReport) Match() bool {
	return r.Diff == "" && !r.StatusChanged
}

// Replay rebuilds d with the options recorded for runID and diffs the
// journals. The rebuild is not recorded.
//
// A failing rebuild is not an error: it is reported through
// StatusChanged and the diff.
func (e *Engine) Replay(ctx context.Context, d *deck.Deck, runID string) (*ReplayReport, error) {
	if e.store == nil {
		return nil, &RunError{Code: ErrCodeNoStore, Message: "replay needs a build store", RunID: runID}
	}

	run, err := e.store.ReadRun(ctx, runID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, &RunError{Code: ErrCodeRunNotFound, Message: "no such run", RunID: runID}
		}
		return nil, fmt.Errorf("replay: %w", err)
	}

	opts, err := config.Parse([]byte(run.Options))
	if err != nil {
		return nil, &RunError{Code: ErrCodeCorruptRun, Message: "stored options do not parse", RunID: runID, Err: err}
	}

	recorded, err := e.store.ReadJournal(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	rebuilt, buildErr := e.run(ctx, d, opts)
	if rebuilt == nil {
		return nil, buildErr
	}

	rep := &ReplayReport{
		RunID:       runID,
		Recorded:    run,
		Rebuilt:     rebuilt,
		DeckChanged: rebuilt.DeckHash != run.DeckHash,
		Diff:        DiffJournals(recorded, rebuilt.Journal),
	}
	rep.StatusChanged = rebuilt.Status() != run.Status

	log := e.logger.With("run", runID)
	if rep.DeckChanged {
		log.Warn("deck changed since the run was recorded",
			"recorded_hash", run.DeckHash,
			"current_hash", rebuilt.DeckHash)
	}
	if buildErr != nil {
		log.Info("rebuild failed", "error", buildErr)
	}
	log.Info("replay finished",
		"match", rep.Match(),
		"recorded_operations", len(recorded),
		"rebuilt_operations", len(rebuilt.Journal))
	return rep, nil
}

// DiffJournals returns a human-readable diff of two journals, empty when
// they are equal. Nil and empty operand lists compare equal.
func DiffJournals(want, got []kernel.Operation) string {
	return cmp.Diff(want, got, cmpopts.EquateEmpty())
}
