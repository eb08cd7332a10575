package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cellcad/internal/kernel"
	"github.com/roach88/cellcad/internal/testutil"
)

// recordRun builds src into a fresh database and returns the database
// path and the deck directory.
func recordRun(t *testing.T, src string) (db, dir string) {
	t.Helper()
	dir = testutil.WriteDeck(t, src)
	db = filepath.Join(t.TempDir(), "runs.db")
	_, err := execute(t, NewBuildCommand(textOpts()), dir, "--db", db)
	require.NoError(t, err)
	return db, dir
}

func TestTrace_LatestRun(t *testing.T) {
	db, _ := recordRun(t, testutil.TwoCellDeck)

	out, err := execute(t, NewTraceCommand(jsonOpts()), "--db", db)
	require.NoError(t, err)

	var result TraceResult
	decodeResponse(t, out, &result)
	assert.Equal(t, "ok", result.Run.Status)
	assert.Equal(t, int64(1), result.Run.Seq)
	assert.NotEmpty(t, result.Operations)
	assert.Equal(t, len(result.Operations), result.Stats.Total)
	assert.Equal(t, 2, result.Stats.ByOp[kernel.OpSetName])
	assert.Equal(t, 3, result.Stats.ByOp[kernel.OpCreateGroup])
	assert.Zero(t, result.Stats.Failed)
}

func TestTrace_OperationFilter(t *testing.T) {
	db, _ := recordRun(t, testutil.TwoCellDeck)

	out, err := execute(t, NewTraceCommand(jsonOpts()), "--db", db, "--op", "set_name,create_group")
	require.NoError(t, err)

	var result TraceResult
	decodeResponse(t, out, &result)
	require.Len(t, result.Operations, 5)
	for _, op := range result.Operations {
		assert.Contains(t, []string{kernel.OpSetName, kernel.OpCreateGroup}, op.Op)
	}
}

func TestTrace_Limit(t *testing.T) {
	db, _ := recordRun(t, testutil.TwoCellDeck)

	out, err := execute(t, NewTraceCommand(jsonOpts()), "--db", db, "--limit", "2")
	require.NoError(t, err)

	var result TraceResult
	decodeResponse(t, out, &result)
	require.Len(t, result.Operations, 2)
	assert.Less(t, result.Operations[0].Seq, result.Operations[1].Seq)
}

func TestTrace_Groups(t *testing.T) {
	db, _ := recordRun(t, testutil.TwoCellDeck)

	out, err := execute(t, NewTraceCommand(textOpts()), "--db", db, "--groups", "--op", "create_group")
	require.NoError(t, err)
	assert.Contains(t, out, "Groups:")
	assert.Contains(t, out, "mat_3_rho_2.5")
	assert.Contains(t, out, "CELL_ID_1")
}

func TestTrace_List(t *testing.T) {
	db, dir := recordRun(t, testutil.TwoCellDeck)
	_, err := execute(t, NewBuildCommand(textOpts()), dir, "--db", db)
	require.NoError(t, err)

	out, err := execute(t, NewTraceCommand(jsonOpts()), "--db", db, "--list")
	require.NoError(t, err)

	var runs []RunSummary
	decodeResponse(t, out, &runs)
	require.Len(t, runs, 2)
	assert.Equal(t, "two cells", runs[0].DeckTitle)
	assert.Equal(t, runs[0].DeckHash, runs[1].DeckHash)
	assert.NotEqual(t, runs[0].ID, runs[1].ID)
}

func TestTrace_Errors(t *testing.T) {
	db, _ := recordRun(t, testutil.TwoCellDeck)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"missing database", []string{"--db", filepath.Join(t.TempDir(), "none.db")}, ErrCodeStoreOpen},
		{"unknown run", []string{"--db", db, "--run", "no-such-run"}, ErrCodeRunNotFound},
		{"unknown operation", []string{"--db", db, "--op", "explode"}, ErrCodeInvalidQuery},
		{"empty range", []string{"--db", db, "--from", "9", "--to", "3"}, ErrCodeInvalidQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewTraceCommand(jsonOpts()), tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp := decodeResponse(t, out, nil)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestTrace_RequiresDatabase(t *testing.T) {
	_, err := execute(t, NewTraceCommand(textOpts()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db")
}
