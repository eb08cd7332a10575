package store

import (
	"context"
	"fmt"

	"github.com/roach88/cellcad/internal/kernel"
)

// RunStatus is the outcome of a build.
type RunStatus string

const (
	RunOK     RunStatus = "ok"
	RunFailed RunStatus = "failed"
)

// Run is one recorded build.
type Run struct {
	ID            string
	Seq           int64 // assigned by WriteBuild
	DeckHash      string
	DeckTitle     string
	Options       string // TOML encoding of the build options
	EngineVersion string
	Status        RunStatus
	Error         string
	World         float64
	Bodies        int
}

// GroupRecord is a named group in member order.
type GroupRecord struct {
	Name    string
	Handles []kernel.Handle
}

// NameRecord is a named entity.
type NameRecord struct {
	Name   string
	Handle kernel.Handle
}

// Build is everything recorded for one run.
type Build struct {
	Run        Run
	Operations []kernel.Operation
	Groups     []GroupRecord
	Names      []NameRecord
}

// WriteBuild records a run and its journal in one transaction.
// Returns the run's store sequence number.
//
// A second write with the same run id fails; runs are immutable.
func (s *Store) WriteBuild(ctx context.Context, b Build) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write build: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("write build: next seq: %w", err)
	}

	r := b.Run
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, deck_hash, deck_title, options, engine_version, status, error, world, bodies)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, seq, r.DeckHash, r.DeckTitle, r.Options, r.EngineVersion,
		string(r.Status), r.Error, r.World, r.Bodies,
	)
	if err != nil {
		return 0, fmt.Errorf("write build: run %s: %w", r.ID, err)
	}

	for _, op := range b.Operations {
		operands, err := marshalHandles(op.Operands)
		if err != nil {
			return 0, fmt.Errorf("write build: %w", err)
		}
		subs, err := marshalSubstitutions(op.Substitutions)
		if err != nil {
			return 0, fmt.Errorf("write build: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO operations
			(run_id, seq, op, operands, result, substitutions, detail, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			r.ID, op.Seq, op.Op, operands, int64(op.Result), subs, op.Detail, op.Error,
		)
		if err != nil {
			return 0, fmt.Errorf("write build: operation %d: %w", op.Seq, err)
		}
	}

	for _, g := range b.Groups {
		for pos, h := range g.Handles {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO group_members (run_id, group_name, position, handle)
				VALUES (?, ?, ?, ?)
			`, r.ID, g.Name, pos, int64(h))
			if err != nil {
				return 0, fmt.Errorf("write build: group %q: %w", g.Name, err)
			}
		}
	}

	for pos, n := range b.Names {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO entity_names (run_id, position, name, handle)
			VALUES (?, ?, ?, ?)
		`, r.ID, pos, n.Name, int64(n.Handle))
		if err != nil {
			return 0, fmt.Errorf("write build: name %q: %w", n.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write build: commit: %w", err)
	}
	return seq, nil
}
