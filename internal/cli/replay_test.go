package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cellcad/internal/testutil"
)

func TestReplay_Matches(t *testing.T) {
	db, dir := recordRun(t, testutil.TwoCellDeck)

	out, err := execute(t, NewReplayCommand(jsonOpts()), "--db", db, dir)
	require.NoError(t, err)

	var result ReplayResult
	decodeResponse(t, out, &result)
	assert.True(t, result.Match)
	assert.False(t, result.DeckChanged)
	assert.Equal(t, result.Recorded, result.Rebuilt)
	assert.Empty(t, result.Diff)
}

func TestReplay_MatchesText(t *testing.T) {
	db, dir := recordRun(t, testutil.LatticeDeck)

	out, err := execute(t, NewReplayCommand(textOpts()), "--db", db, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Replay of run")
	assert.Contains(t, out, "matches")
}

func TestReplay_DeckChanged(t *testing.T) {
	db, dir := recordRun(t, testutil.TwoCellDeck)
	changed := strings.Replace(testutil.TwoCellDeck, "density: 2.5", "density: 3", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deck.cue"), []byte(changed), 0o644))

	out, err := execute(t, NewReplayCommand(textOpts()), "--db", db, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "! Deck changed")
	assert.Contains(t, out, "✗ Replay of run")
	assert.Contains(t, out, "mat_3_rho_3")
}

func TestReplay_Errors(t *testing.T) {
	db, dir := recordRun(t, testutil.TwoCellDeck)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"missing database", []string{"--db", filepath.Join(t.TempDir(), "none.db"), dir}, ErrCodeStoreOpen},
		{"unknown run", []string{"--db", db, "--run", "no-such-run", dir}, ErrCodeRunNotFound},
		{"missing deck", []string{"--db", db, filepath.Join(t.TempDir(), "nope")}, ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewReplayCommand(jsonOpts()), tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp := decodeResponse(t, out, nil)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}
