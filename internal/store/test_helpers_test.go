package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/cellcad/internal/kernel"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestBuild creates a small recorded build with minimal required fields.
func createTestBuild(id string) Build {
	return Build{
		Run: Run{
			ID:            id,
			DeckHash:      "test-hash",
			DeckTitle:     "two cells",
			Options:       "make_graveyard = true\n",
			EngineVersion: "0.1.0",
			Status:        RunOK,
			World:         12,
			Bodies:        2,
		},
		Operations: []kernel.Operation{
			{Seq: 1, Op: kernel.OpCreate, Result: 1, Detail: "box"},
			{Seq: 2, Op: kernel.OpCreate, Result: 2, Detail: "sphere"},
			{Seq: 3, Op: kernel.OpSubtract, Operands: []kernel.Handle{1, 2}, Result: 3,
				Substitutions: []kernel.Substitution{{Old: 1, New: 3}, {Old: 2, New: kernel.Nil}}},
			{Seq: 4, Op: kernel.OpCreate, Result: 4, Detail: "sphere"},
			{Seq: 5, Op: kernel.OpDelete, Operands: []kernel.Handle{9}, Error: "invalid handle #9"},
		},
		Groups: []GroupRecord{
			{Name: "mat_1_rho_1", Handles: []kernel.Handle{4, 3}},
			{Name: "graveyard", Handles: []kernel.Handle{3}},
		},
		Names: []NameRecord{{Name: "CELL_ID_2", Handle: 4}, {Name: "CELL_ID_1", Handle: 3}},
	}
}
