package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/roach88/cellcad/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name       string   `json:"name"`
	File       string   `json:"file"`
	Pass       bool     `json:"pass"`
	Operations int      `json:"operations"`
	Golden     string   `json:"golden,omitempty"` // "match", "updated", "mismatch" or "" when absent
	Errors     []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario-file-or-dir>...",
		Short: "Run scenario conformance tests",
		Long: `Run YAML scenarios through the builder.

Each scenario names a deck, optional build option overrides and
assertions on groups, names, lattice nodes, journal contents or the
expected build error. When golden/<scenario>.golden exists next to a
scenario file, the kernel journal must match it byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  cellcad test ./scenarios
  cellcad test ./scenarios --filter "lattice-*"
  cellcad test ./scenarios --update
  cellcad test ./scenarios/two_cells.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Filter != "" {
		if _, err := filepath.Match(opts.Filter, ""); err != nil {
			return reportError(formatter, ExitCommandError, ErrCodeGeneric, fmt.Sprintf("invalid filter pattern: %v", err))
		}
	}

	var files []string
	for _, p := range paths {
		found, err := findScenarioFiles(p, opts.Filter)
		if err != nil {
			return reportError(formatter, ExitCommandError, ErrCodeNotFound, err.Error())
		}
		files = append(files, found...)
	}

	result := TestResult{Scenarios: []ScenarioResult{}, Total: len(files)}
	if len(files) == 0 {
		if formatter.JSON() {
			return formatter.Success(result)
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	for _, file := range files {
		sr := runScenario(cmd, file, opts.Update)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		if !formatter.JSON() {
			printScenario(formatter, sr)
		}
	}

	var failure error
	if result.Failed > 0 {
		failure = NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	if formatter.JSON() {
		if result.Failed > 0 {
			if err := formatter.Fail("E_TEST_FAILED", failure.Error(), result); err != nil {
				return err
			}
			return failure
		}
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer)
	fmt.Fprintf(formatter.Writer, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if failure != nil {
		return failure
	}
	fmt.Fprintln(formatter.Writer, "✓ All scenarios passed")
	return nil
}

// findScenarioFiles returns path itself when it is a file, or every YAML
// file below it when it is a directory. Golden directories are skipped.
func findScenarioFiles(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("scenario path not found: %s", path)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(p), ext)
			if ok, _ := filepath.Match(filter, name); !ok {
				return nil
			}
		}
		files = append(files, p)
		return nil
	})
	slices.Sort(files)
	return files, err
}

// runScenario loads, runs and golden-checks one scenario file.
func runScenario(cmd *cobra.Command, file string, update bool) ScenarioResult {
	sr := ScenarioResult{Name: filepath.Base(file), File: file}

	scenario, result, err := harness.RunFile(cmd.Context(), file)
	if scenario != nil {
		sr.Name = scenario.Name
	}
	if err != nil {
		sr.Errors = []string{err.Error()}
		return sr
	}

	sr.Pass = result.Pass
	sr.Operations = len(result.Journal)
	sr.Errors = result.Errors

	snapshot := harness.JournalSnapshot(scenario.Name, result.Journal)
	goldenPath := goldenFilePath(file)

	if update {
		if err := writeGolden(goldenPath, snapshot); err != nil {
			sr.Pass = false
			sr.Errors = append(sr.Errors, err.Error())
			return sr
		}
		sr.Golden = "updated"
		return sr
	}

	want, err := os.ReadFile(goldenPath)
	if os.IsNotExist(err) {
		return sr
	}
	if err != nil {
		sr.Pass = false
		sr.Errors = append(sr.Errors, fmt.Sprintf("read golden file: %v", err))
		return sr
	}
	if bytes.Equal(want, snapshot) {
		sr.Golden = "match"
		return sr
	}

	sr.Pass = false
	sr.Golden = "mismatch"
	diff := cmp.Diff(strings.Split(string(want), "\n"), strings.Split(string(snapshot), "\n"))
	sr.Errors = append(sr.Errors, "journal does not match golden file (-golden +actual):\n"+diff)
	return sr
}

// goldenFilePath returns golden/<name>.golden next to the scenario file.
func goldenFilePath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

func writeGolden(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write golden file: %w", err)
	}
	return nil
}

func printScenario(f *OutputFormatter, sr ScenarioResult) {
	w := f.Writer
	mark := "✓"
	if !sr.Pass {
		mark = "✗"
	}
	note := ""
	if sr.Golden == "updated" {
		note = " (golden updated)"
	}
	fmt.Fprintf(w, "%s %s%s\n", mark, sr.Name, note)
	f.VerboseLog("  %s: %s", sr.File, formatCount(sr.Operations, "operation"))
	if sr.Pass {
		return
	}
	for _, e := range sr.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
	if sr.Golden == "mismatch" {
		fmt.Fprintln(w, "  (run with --update to regenerate)")
	}
}
