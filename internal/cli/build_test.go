package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cellcad/internal/kernel/memkernel"
	"github.com/roach88/cellcad/internal/store"
	"github.com/roach88/cellcad/internal/testutil"
)

func groupNames(s BuildSummary) []string {
	names := make([]string, len(s.Groups))
	for i, g := range s.Groups {
		names[i] = g.Name
	}
	return names
}

func TestBuild_TextSummary(t *testing.T) {
	dir := testutil.WriteDeck(t, testutil.TwoCellDeck)

	out, err := execute(t, NewBuildCommand(textOpts()), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Built 3 solid(s)")
	assert.Contains(t, out, "mat_3_rho_2.5")
	assert.Contains(t, out, "graveyard")
}

func TestBuild_JSONSummary(t *testing.T) {
	dir := testutil.WriteDeck(t, testutil.TwoCellDeck)

	out, err := execute(t, NewBuildCommand(jsonOpts()), dir)
	require.NoError(t, err)

	var summary BuildSummary
	resp := decodeResponse(t, out, &summary)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", summary.Status)
	assert.Equal(t, 3, summary.Bodies)
	assert.NotEmpty(t, summary.RunID)
	assert.NotEmpty(t, summary.DeckHash)
	assert.Positive(t, summary.Operations)
	assert.Equal(t, []string{"graveyard", "imp.n_1", "mat_3_rho_2.5"}, groupNames(summary))
	require.NotNil(t, summary.Stats)
	assert.Equal(t, 2, summary.Stats.Cells)
}

func TestBuild_SkipFlags(t *testing.T) {
	dir := testutil.WriteDeck(t, testutil.TwoCellDeck)

	out, err := execute(t, NewBuildCommand(jsonOpts()), dir, "-M", "-P", "--skip-graveyard")
	require.NoError(t, err)

	var summary BuildSummary
	decodeResponse(t, out, &summary)
	assert.Equal(t, 2, summary.Bodies)
	assert.Empty(t, summary.Groups)
}

func TestBuild_ConfigFileThenFlags(t *testing.T) {
	dir := testutil.WriteDeck(t, testutil.TwoCellDeck)
	cfg := filepath.Join(t.TempDir(), "cellcad.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("make_graveyard = false\n"), 0o644))

	out, err := execute(t, NewBuildCommand(jsonOpts()), dir, "--config", cfg, "-U")
	require.NoError(t, err)

	var summary BuildSummary
	decodeResponse(t, out, &summary)
	assert.Equal(t, 2, summary.Bodies)
	assert.NotContains(t, groupNames(summary), "graveyard")
	assert.NotContains(t, groupNames(summary), "mat_3_rho_2.5")
}

func TestBuild_MergeTolerance(t *testing.T) {
	dir := testutil.WriteDeck(t, testutil.TwoCellDeck)

	out, err := execute(t, NewBuildCommand(jsonOpts()), dir, "-t", "0.5")
	require.NoError(t, err)
	var summary BuildSummary
	decodeResponse(t, out, &summary)
	assert.Equal(t, []string{"unusual merge tolerance 0.5"}, summary.Warnings)

	out, err = execute(t, NewBuildCommand(jsonOpts()), dir, "--tol", "0.0001")
	require.NoError(t, err)
	summary = BuildSummary{}
	decodeResponse(t, out, &summary)
	assert.Empty(t, summary.Warnings)
}

func TestBuild_BadConfig(t *testing.T) {
	dir := testutil.WriteDeck(t, testutil.TwoCellDeck)
	cfg := filepath.Join(t.TempDir(), "cellcad.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("no_such_option = true\n"), 0o644))

	out, err := execute(t, NewBuildCommand(jsonOpts()), dir, "--config", cfg)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decodeResponse(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeConfig, resp.Error.Code)
}

func TestBuild_ExportsModel(t *testing.T) {
	dir := testutil.WriteDeck(t, testutil.TwoCellDeck)
	model := filepath.Join(t.TempDir(), "model.json")

	_, err := execute(t, NewBuildCommand(textOpts()), dir, "-o", model)
	require.NoError(t, err)

	data, err := os.ReadFile(model)
	require.NoError(t, err)
	var doc memkernel.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc.Bodies, 3)

	var named []string
	for _, b := range doc.Bodies {
		if b.Name != "" {
			named = append(named, b.Name)
		}
	}
	assert.ElementsMatch(t, []string{"CELL_ID_1", "CELL_ID_2"}, named)
}

func TestBuild_RecordsRun(t *testing.T) {
	dir := testutil.WriteDeck(t, testutil.TwoCellDeck)
	db := filepath.Join(t.TempDir(), "runs.db")

	out, err := execute(t, NewBuildCommand(jsonOpts()), dir, "--db", db)
	require.NoError(t, err)
	var summary BuildSummary
	decodeResponse(t, out, &summary)
	assert.Equal(t, int64(1), summary.Seq)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, summary.RunID, run.ID)
	assert.Equal(t, store.RunOK, run.Status)
	assert.Equal(t, 3, run.Bodies)
}

func TestBuild_WritesMetrics(t *testing.T) {
	dir := testutil.WriteDeck(t, testutil.TwoCellDeck)
	prom := filepath.Join(t.TempDir(), "cellcad.prom")

	_, err := execute(t, NewBuildCommand(textOpts()), dir, "--metrics-file", prom)
	require.NoError(t, err)

	data, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(data), "cellcad_kernel_operations_total")
	assert.Contains(t, string(data), "cellcad_cells_defined_total")
}

func TestBuild_InvalidDeckIsNotBuilt(t *testing.T) {
	dir := testutil.WriteDeck(t, testutil.CycleDeck)
	db := filepath.Join(t.TempDir(), "runs.db")

	out, err := execute(t, NewBuildCommand(textOpts()), dir, "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E106")

	_, statErr := os.Stat(db)
	assert.True(t, os.IsNotExist(statErr), "validation failure must not open the store")
}

func TestBuild_MissingDeck(t *testing.T) {
	out, err := execute(t, NewBuildCommand(textOpts()), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestBuild_LatticeStats(t *testing.T) {
	dir := testutil.WriteDeck(t, testutil.LatticeDeck)

	out, err := execute(t, NewBuildCommand(jsonOpts()), dir)
	require.NoError(t, err)

	var summary BuildSummary
	decodeResponse(t, out, &summary)
	require.NotNil(t, summary.Stats)
	assert.Equal(t, 3, summary.Stats.LatticeNodesOccupied)
}
