package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/cellcad/internal/engine"
	"github.com/roach88/cellcad/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // empty = latest run
}

// ReplayResult is the replay command's payload.
type ReplayResult struct {
	RunID         string `json:"run_id"`
	Match         bool   `json:"match"`
	DeckChanged   bool   `json:"deck_changed"`
	StatusChanged bool   `json:"status_changed"`
	Recorded      int    `json:"recorded_operations"`
	Rebuilt       int    `json:"rebuilt_operations"`
	Diff          string `json:"diff,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <deck-dir>",
		Short: "Rebuild a recorded run and compare journals",
		Long: `Rebuild a recorded run with its stored options and compare the new
kernel journal against the recorded one.

A build is deterministic: the same deck and options must produce the
same kernel calls in the same order. Replay reports the first
differences when they do not.

Exit codes:
  0 - Journals match
  1 - Journals differ, or one build failed and the other did not
  2 - Command error (database or run not found, deck unreadable)

Examples:
  cellcad replay --db runs.db ./deck
  cellcad replay --db runs.db --run <id> ./deck --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run to replay (default: latest)")

	return cmd
}

func runReplay(opts *ReplayOptions, deckDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	st, err := openStore(opts.Database, true)
	if err != nil {
		return reportError(formatter, ExitCommandError, ErrCodeStoreOpen, err.Error())
	}
	defer st.Close()

	runID := opts.RunID
	if runID == "" {
		latest, err := st.LatestRun(ctx)
		if err != nil {
			if store.IsNotFound(err) {
				return reportError(formatter, ExitCommandError, ErrCodeRunNotFound, "no runs recorded")
			}
			return reportError(formatter, ExitCommandError, ErrCodeStoreRead, err.Error())
		}
		runID = latest.ID
	}

	d, err := loadDeck(deckDir)
	if err != nil {
		return reportError(formatter, ExitCommandError, loadCode(err), err.Error())
	}

	eng := engine.New(engine.WithStore(st), engine.WithLogger(slog.Default()))
	rep, err := eng.Replay(ctx, d, runID)
	if err != nil {
		return reportError(formatter, ExitCommandError, buildErrorCode(err), err.Error())
	}

	result := ReplayResult{
		RunID:         rep.RunID,
		Match:         rep.Match(),
		DeckChanged:   rep.DeckChanged,
		StatusChanged: rep.StatusChanged,
		Rebuilt:       len(rep.Rebuilt.Journal),
		Diff:          rep.Diff,
	}
	recorded, err := st.ReadJournal(ctx, runID)
	if err != nil {
		return reportError(formatter, ExitCommandError, ErrCodeStoreRead, err.Error())
	}
	result.Recorded = len(recorded)

	if formatter.JSON() {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		printReplay(formatter, result)
	}

	if !result.Match {
		return NewExitError(ExitFailure, fmt.Sprintf("replay of run %s diverged", runID))
	}
	return nil
}

func printReplay(f *OutputFormatter, r ReplayResult) {
	w := f.Writer
	if r.DeckChanged {
		fmt.Fprintln(w, "! Deck changed since the run was recorded")
	}
	if r.Match {
		fmt.Fprintf(w, "✓ Replay of run %s matches (%s)\n", r.RunID, formatCount(r.Rebuilt, "operation"))
		return
	}

	fmt.Fprintf(w, "✗ Replay of run %s diverged\n", r.RunID)
	fmt.Fprintf(w, "  Recorded: %s\n", formatCount(r.Recorded, "operation"))
	fmt.Fprintf(w, "  Rebuilt:  %s\n", formatCount(r.Rebuilt, "operation"))
	if r.StatusChanged {
		fmt.Fprintln(w, "  Build outcome changed")
	}
	if r.Diff != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Journal diff (-recorded +rebuilt):")
		fmt.Fprint(w, r.Diff)
	}
}
