package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/cellcad/internal/compiler"
	"github.com/roach88/cellcad/internal/config"
	"github.com/roach88/cellcad/internal/engine"
	"github.com/roach88/cellcad/internal/geometry"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions

	ConfigFile  string
	Output      string // model export path
	Database    string
	MetricsFile string

	SkipMaterials   bool
	SkipImportances bool
	SkipNumbers     bool
	SkipGraveyard   bool
	SkipImprint     bool
	SkipMerge       bool
	UWUWNames       bool
	ExtraEffort     bool
	Debug           bool
	NoEmbed         bool

	Tolerance    float64
	toleranceSet bool
}

// BuildSummary is the build command's result payload.
type BuildSummary struct {
	RunID      string                 `json:"run_id"`
	Seq        int64                  `json:"seq,omitempty"`
	DeckHash   string                 `json:"deck_hash"`
	Status     string                 `json:"status"`
	Error      string                 `json:"error,omitempty"`
	Operations int                    `json:"operations"`
	Bodies     int                    `json:"bodies"`
	Groups     []geometry.GroupResult `json:"groups,omitempty"`
	Warnings   []string               `json:"warnings,omitempty"`
	World      float64                `json:"world,omitempty"`
	Stats      *geometry.Stats        `json:"stats,omitempty"`
	Output     string                 `json:"output,omitempty"`
	DurationMS int64                  `json:"duration_ms"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <deck-dir>",
		Short: "Assemble a deck into tagged solids",
		Long: `Load, validate and build a cell deck.

Every cell becomes one or more solids. Fill universes and lattices are
expanded into their containers, and the solids are tagged with material,
importance and cell-number groups. A graveyard shell encloses the model.

Build options come from the defaults, then --config, then flags.

Examples:
  cellcad build ./deck
  cellcad build ./deck -o model.json --db runs.db
  cellcad build ./deck --skip-graveyard --uwuw-names --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.toleranceSet = cmd.Flags().Changed("tol")
			return runBuild(opts, args[0], cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.ConfigFile, "config", "", "TOML build options file")
	f.StringVarP(&opts.Output, "output", "o", "", "write the built model as JSON")
	f.StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	f.StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus text metrics to this file")

	f.BoolVarP(&opts.SkipMaterials, "skip-mats", "M", false, "do not tag materials")
	f.BoolVarP(&opts.SkipImportances, "skip-imps", "P", false, "do not tag importances")
	f.BoolVarP(&opts.SkipNumbers, "skip-nums", "N", false, "do not name cells by number")
	f.BoolVarP(&opts.SkipGraveyard, "skip-graveyard", "G", false, "do not build the graveyard")
	f.BoolVarP(&opts.SkipImprint, "skip-imprint", "I", false, "do not imprint solids")
	f.BoolVarP(&opts.SkipMerge, "skip-merge", "E", false, "do not merge solids")
	f.BoolVarP(&opts.UWUWNames, "uwuw-names", "U", false, "use UWUW material and graveyard names")
	f.BoolVarP(&opts.ExtraEffort, "extra-effort", "e", false, "search infinite lattices further")
	f.BoolVarP(&opts.Debug, "debug", "D", false, "log every cell as it is built")
	f.BoolVar(&opts.NoEmbed, "no-embed", false, "build filled cells as bare shells")
	f.Float64VarP(&opts.Tolerance, "tol", "t", 0, "merge tolerance passed to the kernel")

	return cmd
}

// applyFlags overrides options with the switches that were set.
func (o *BuildOptions) applyFlags(opts config.Options) config.Options {
	if o.SkipMaterials {
		opts.TagMaterials = false
	}
	if o.SkipImportances {
		opts.TagImportances = false
	}
	if o.SkipNumbers {
		opts.TagCellIDs = false
	}
	if o.SkipGraveyard {
		opts.MakeGraveyard = false
	}
	if o.SkipImprint {
		opts.Imprint = false
	}
	if o.SkipMerge {
		opts.Merge = false
	}
	if o.UWUWNames {
		opts.UWUWNames = true
	}
	if o.ExtraEffort {
		opts.ExtraEffort = true
	}
	if o.Debug {
		opts.Debug = true
	}
	if o.NoEmbed {
		opts.EmbedUniverses = false
	}
	if o.toleranceSet {
		tol := o.Tolerance
		opts.MergeTolerance = &tol
	}
	return opts
}

func runBuild(opts *BuildOptions, deckDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	buildOpts, err := loadOptions(opts.ConfigFile)
	if err != nil {
		return reportError(formatter, ExitCommandError, ErrCodeConfig, err.Error())
	}
	buildOpts = opts.applyFlags(buildOpts)
	if err := buildOpts.Validate(); err != nil {
		return reportError(formatter, ExitCommandError, ErrCodeConfig, err.Error())
	}

	d, err := loadDeck(deckDir)
	if err != nil {
		return reportError(formatter, ExitCommandError, loadCode(err), err.Error())
	}
	formatter.VerboseLog("Loaded deck %q: %d cells, %d surfaces", d.Title, len(d.Cells), len(d.Surfaces))

	if verrs := compiler.Validate(d); len(verrs) > 0 {
		return outputValidationErrors(formatter, verrs)
	}

	engineOpts := []engine.Option{engine.WithLogger(slog.Default())}
	if opts.Database != "" {
		st, err := openStore(opts.Database, false)
		if err != nil {
			return reportError(formatter, ExitCommandError, ErrCodeStoreOpen, err.Error())
		}
		defer st.Close()
		engineOpts = append(engineOpts, engine.WithStore(st))
	}

	rep, buildErr := engine.New(engineOpts...).Build(cmd.Context(), d, buildOpts)
	if rep == nil {
		return reportError(formatter, ExitFailure, buildErrorCode(buildErr), buildErr.Error())
	}

	summary := summarize(rep, buildErr)

	if opts.MetricsFile != "" {
		if err := rep.Metrics.WriteTextfile(opts.MetricsFile); err != nil {
			return reportError(formatter, ExitCommandError, ErrCodeWriteFailed, err.Error())
		}
	}

	if buildErr == nil && opts.Output != "" {
		if err := exportModel(rep, opts.Output); err != nil {
			return reportError(formatter, ExitCommandError, ErrCodeWriteFailed, err.Error())
		}
		summary.Output = opts.Output
	}

	if buildErr != nil {
		code := buildErrorCode(buildErr)
		if formatter.JSON() {
			if err := formatter.Fail(code, buildErr.Error(), summary); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(formatter.Writer, "✗ Build failed after %d operation(s)\n", summary.Operations)
			fmt.Fprintf(formatter.Writer, "  %s: %v\n", code, buildErr)
			if summary.Seq > 0 {
				fmt.Fprintf(formatter.Writer, "  Recorded as run %s\n", summary.RunID)
			}
		}
		return WrapExitError(ExitFailure, "build failed", buildErr)
	}

	if formatter.JSON() {
		return formatter.Success(summary)
	}
	printBuildSummary(formatter, summary)
	return nil
}

func summarize(rep *engine.Report, buildErr error) BuildSummary {
	s := BuildSummary{
		RunID:      rep.RunID,
		Seq:        rep.Seq,
		DeckHash:   rep.DeckHash,
		Status:     string(rep.Status()),
		Operations: len(rep.Journal),
		DurationMS: rep.Duration.Milliseconds(),
	}
	if buildErr != nil {
		s.Error = buildErr.Error()
	}
	if r := rep.Result; r != nil {
		s.Bodies = len(r.Handles)
		s.Groups = r.Groups
		s.Warnings = r.Warnings
		s.World = r.World
		stats := r.Stats
		s.Stats = &stats
	}
	return s
}

func exportModel(rep *engine.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := rep.Model.Export(f); err != nil {
		f.Close()
		return fmt.Errorf("export model: %w", err)
	}
	return f.Close()
}

func printBuildSummary(f *OutputFormatter, s BuildSummary) {
	w := f.Writer
	fmt.Fprintf(w, "✓ Built %d solid(s) in %d operation(s)\n", s.Bodies, s.Operations)
	fmt.Fprintf(w, "  Run: %s\n", s.RunID)
	if s.Stats != nil {
		fmt.Fprintf(w, "  Cells: %d  Universes: %d  Max depth: %d\n", s.Stats.Cells, s.Stats.Universes, s.Stats.MaxDepth)
		if n := s.Stats.LatticeNodesOccupied + s.Stats.LatticeNodesEmpty; n > 0 {
			fmt.Fprintf(w, "  Lattice nodes: %d occupied, %d empty, %d skipped\n",
				s.Stats.LatticeNodesOccupied, s.Stats.LatticeNodesEmpty, s.Stats.LatticeNodesSkipped)
		}
	}
	fmt.Fprintf(w, "  World radius: %g\n", s.World)
	for _, warning := range s.Warnings {
		fmt.Fprintf(w, "  Warning: %s\n", warning)
	}
	if len(s.Groups) > 0 {
		fmt.Fprintln(w, "  Groups:")
		for _, g := range s.Groups {
			fmt.Fprintf(w, "    %-28s %s\n", g.Name, formatCount(len(g.Members), "solid"))
		}
	}
	if s.Output != "" {
		fmt.Fprintf(w, "  Model written to %s\n", s.Output)
	}
}

func formatCount(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
