package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cellcad/internal/kernel"
	"github.com/roach88/cellcad/internal/queryir"
	"github.com/roach88/cellcad/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // empty = latest run
	List     bool
	Groups   bool

	Ops    []string
	Handle uint64
	Failed bool
	From   int64
	To     int64
	Limit  int
}

// TraceResult holds the trace output for one run.
type TraceResult struct {
	Run        RunSummary          `json:"run"`
	Operations []kernel.Operation  `json:"operations"`
	Groups     []store.GroupRecord `json:"groups,omitempty"`
	Names      []store.NameRecord  `json:"names,omitempty"`
	Stats      TraceStats          `json:"stats"`
}

// TraceStats summarizes the selected operations.
type TraceStats struct {
	Total  int            `json:"total"`
	Failed int            `json:"failed"`
	ByOp   map[string]int `json:"by_op"`
}

// RunSummary is the listing form of a recorded run.
type RunSummary struct {
	ID        string  `json:"id"`
	Seq       int64   `json:"seq"`
	DeckTitle string  `json:"deck_title,omitempty"`
	DeckHash  string  `json:"deck_hash"`
	Status    string  `json:"status"`
	Error     string  `json:"error,omitempty"`
	Bodies    int     `json:"bodies"`
	World     float64 `json:"world"`
}

func summarizeRun(r store.Run) RunSummary {
	return RunSummary{
		ID:        r.ID,
		Seq:       r.Seq,
		DeckTitle: r.DeckTitle,
		DeckHash:  r.DeckHash,
		Status:    string(r.Status),
		Error:     r.Error,
		Bodies:    r.Bodies,
		World:     r.World,
	}
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Query the kernel journal of a recorded run",
		Long: `Query the kernel journal of a build recorded with build --db.

Every kernel call of a build is journaled: primitives, booleans,
transforms, deletions, names and groups. Filters narrow the journal to
the calls of interest and combine with AND.

Examples:
  cellcad trace --db runs.db --list
  cellcad trace --db runs.db
  cellcad trace --db runs.db --run <id> --op unite,subtract
  cellcad trace --db runs.db --handle 42
  cellcad trace --db runs.db --failed --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	f.StringVar(&opts.RunID, "run", "", "run to trace (default: latest)")
	f.BoolVar(&opts.List, "list", false, "list recorded runs")
	f.BoolVar(&opts.Groups, "groups", false, "include the run's groups and names")
	f.StringSliceVar(&opts.Ops, "op", nil, "only these operations (comma separated)")
	f.Uint64Var(&opts.Handle, "handle", 0, "only operations involving this handle")
	f.BoolVar(&opts.Failed, "failed", false, "only failed operations")
	f.Int64Var(&opts.From, "from", 0, "first sequence number")
	f.Int64Var(&opts.To, "to", 0, "last sequence number")
	f.IntVar(&opts.Limit, "limit", 0, "maximum operations to show")

	return cmd
}

// filter builds the journal predicate from the flags.
func (o *TraceOptions) filter() queryir.Predicate {
	var preds []queryir.Predicate

	switch len(o.Ops) {
	case 0:
	case 1:
		preds = append(preds, queryir.OpIs{Op: o.Ops[0]})
	default:
		var oneOf queryir.Or
		for _, op := range o.Ops {
			oneOf.Predicates = append(oneOf.Predicates, queryir.OpIs{Op: op})
		}
		preds = append(preds, oneOf)
	}
	if o.Handle != 0 {
		preds = append(preds, queryir.Involves{Handle: o.Handle})
	}
	if o.Failed {
		preds = append(preds, queryir.Failed{})
	}
	if o.From != 0 || o.To != 0 {
		preds = append(preds, queryir.SeqRange{From: o.From, To: o.To})
	}
	return queryir.AllOf(preds...)
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	st, err := openStore(opts.Database, true)
	if err != nil {
		return reportError(formatter, ExitCommandError, ErrCodeStoreOpen, err.Error())
	}
	defer st.Close()

	if opts.List {
		return listRuns(formatter, st, cmd)
	}

	var run store.Run
	if opts.RunID == "" {
		run, err = st.LatestRun(ctx)
	} else {
		run, err = st.ReadRun(ctx, opts.RunID)
	}
	if err != nil {
		if store.IsNotFound(err) {
			return reportError(formatter, ExitCommandError, ErrCodeRunNotFound, err.Error())
		}
		return reportError(formatter, ExitCommandError, ErrCodeStoreRead, err.Error())
	}

	q := queryir.Operations{Run: run.ID, Filter: opts.filter(), Limit: opts.Limit}
	if problems := queryir.Validate(q); len(problems) > 0 {
		return reportError(formatter, ExitCommandError, ErrCodeInvalidQuery, strings.Join(problems, "; "))
	}

	ops, err := st.ReadOperations(ctx, q)
	if err != nil {
		return reportError(formatter, ExitCommandError, ErrCodeStoreRead, err.Error())
	}

	result := TraceResult{
		Run:        summarizeRun(run),
		Operations: ops,
		Stats:      traceStats(ops),
	}
	if opts.Groups {
		if result.Groups, err = st.ReadGroups(ctx, run.ID); err != nil {
			return reportError(formatter, ExitCommandError, ErrCodeStoreRead, err.Error())
		}
		if result.Names, err = st.ReadNames(ctx, run.ID); err != nil {
			return reportError(formatter, ExitCommandError, ErrCodeStoreRead, err.Error())
		}
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	printTrace(formatter, result)
	return nil
}

func traceStats(ops []kernel.Operation) TraceStats {
	stats := TraceStats{Total: len(ops), ByOp: make(map[string]int)}
	for _, op := range ops {
		stats.ByOp[op.Op]++
		if op.Error != "" {
			stats.Failed++
		}
	}
	return stats
}

func listRuns(formatter *OutputFormatter, st *store.Store, cmd *cobra.Command) error {
	runs, err := st.ListRuns(cmd.Context())
	if err != nil {
		return reportError(formatter, ExitCommandError, ErrCodeStoreRead, err.Error())
	}

	summaries := make([]RunSummary, len(runs))
	for i, r := range runs {
		summaries[i] = summarizeRun(r)
	}
	if formatter.JSON() {
		return formatter.Success(summaries)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}
	w := formatter.Writer
	fmt.Fprintf(w, "%-4s %-36s %-7s %-7s %s\n", "SEQ", "RUN", "STATUS", "BODIES", "DECK")
	for _, s := range summaries {
		fmt.Fprintf(w, "%-4d %-36s %-7s %-7d %s\n", s.Seq, s.ID, s.Status, s.Bodies, s.DeckTitle)
	}
	return nil
}

func printTrace(f *OutputFormatter, result TraceResult) {
	w := f.Writer
	r := result.Run
	fmt.Fprintf(w, "Run %s (seq %d, %s)\n", r.ID, r.Seq, r.Status)
	if r.DeckTitle != "" {
		fmt.Fprintf(w, "Deck: %s\n", r.DeckTitle)
	}
	if r.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", r.Error)
	}
	fmt.Fprintln(w)

	if len(result.Operations) == 0 {
		fmt.Fprintln(w, "No matching operations.")
	}
	for _, op := range result.Operations {
		fmt.Fprintln(w, op.String())
	}

	if len(result.Groups) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Groups:")
		for _, g := range result.Groups {
			fmt.Fprintf(w, "  %-28s %s\n", g.Name, joinHandles(g.Handles))
		}
	}
	if len(result.Names) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Names:")
		for _, n := range result.Names {
			fmt.Fprintf(w, "  %-8s %s\n", n.Handle, n.Name)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s, %d failed", formatCount(result.Stats.Total, "operation"), result.Stats.Failed)
	ops := make([]string, 0, len(result.Stats.ByOp))
	for op := range result.Stats.ByOp {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	for i, op := range ops {
		sep := "; "
		if i == 0 {
			sep = " ("
		}
		fmt.Fprintf(w, "%s%s %d", sep, op, result.Stats.ByOp[op])
	}
	if len(ops) > 0 {
		fmt.Fprint(w, ")")
	}
	fmt.Fprintln(w)
}

func joinHandles(hs []kernel.Handle) string {
	parts := make([]string, len(hs))
	for i, h := range hs {
		parts[i] = h.String()
	}
	return strings.Join(parts, " ")
}
