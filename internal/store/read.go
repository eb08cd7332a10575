package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/cellcad/internal/kernel"
	"github.com/roach88/cellcad/internal/queryir"
	"github.com/roach88/cellcad/internal/querysql"
)

const runColumns = "id, seq, deck_hash, deck_title, options, engine_version, status, error, world, bodies"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	var status string
	err := row.Scan(&r.ID, &r.Seq, &r.DeckHash, &r.DeckTitle, &r.Options,
		&r.EngineVersion, &status, &r.Error, &r.World, &r.Bodies)
	if err != nil {
		return Run{}, err
	}
	r.Status = RunStatus(status)
	return r, nil
}

// ReadRun retrieves a run by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// LatestRun returns the most recently written run.
// Returns sql.ErrNoRows if the store is empty.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY seq DESC LIMIT 1`)
	return scanRun(row)
}

// ListRuns returns every run ordered by seq ASC.
// Returns an empty slice (not nil) for an empty store.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadOperations returns the journal operations matching q, ordered by seq.
func (s *Store) ReadOperations(ctx context.Context, q queryir.Operations) ([]kernel.Operation, error) {
	query, params, err := querysql.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("read operations: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	ops := []kernel.Operation{}
	for rows.Next() {
		var (
			op       kernel.Operation
			operands string
			result   int64
			subs     string
		)
		if err := rows.Scan(&op.Seq, &op.Op, &operands, &result, &subs, &op.Detail, &op.Error); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		if op.Operands, err = unmarshalHandles(operands); err != nil {
			return nil, fmt.Errorf("operation %d: %w", op.Seq, err)
		}
		if op.Substitutions, err = unmarshalSubstitutions(subs); err != nil {
			return nil, fmt.Errorf("operation %d: %w", op.Seq, err)
		}
		op.Result = kernel.Handle(result)
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}
	return ops, nil
}

// ReadJournal returns every operation of a run.
func (s *Store) ReadJournal(ctx context.Context, runID string) ([]kernel.Operation, error) {
	return s.ReadOperations(ctx, queryir.Operations{Run: runID})
}

// ReadGroups returns a run's groups ordered by name, members in position order.
func (s *Store) ReadGroups(ctx context.Context, runID string) ([]GroupRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT group_name, handle
		FROM group_members
		WHERE run_id = ?
		ORDER BY group_name COLLATE BINARY ASC, position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	groups := []GroupRecord{}
	for rows.Next() {
		var name string
		var h int64
		if err := rows.Scan(&name, &h); err != nil {
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		if n := len(groups); n == 0 || groups[n-1].Name != name {
			groups = append(groups, GroupRecord{Name: name})
		}
		last := &groups[len(groups)-1]
		last.Handles = append(last.Handles, kernel.Handle(h))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group members: %w", err)
	}
	return groups, nil
}

// ReadNames returns a run's named entities in creation order.
func (s *Store) ReadNames(ctx context.Context, runID string) ([]NameRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, handle
		FROM entity_names
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query names: %w", err)
	}
	defer rows.Close()

	names := []NameRecord{}
	for rows.Next() {
		var n NameRecord
		var h int64
		if err := rows.Scan(&n.Name, &h); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		n.Handle = kernel.Handle(h)
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate names: %w", err)
	}
	return names, nil
}

// IsNotFound reports whether err means the requested run does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
