package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cellcad/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                       `json:"valid"`
	Title     string                     `json:"title,omitempty"`
	Cells     int                        `json:"cells"`
	Surfaces  int                        `json:"surfaces"`
	Universes int                        `json:"universes"`
	Errors    []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <deck-dir>",
		Short: "Validate a deck without building it",
		Long: `Validate a CUE cell deck without building any geometry.

Checks duplicate ids, undefined surfaces and universes, lattice shapes,
importances and universe fill cycles. Much faster than build for
development feedback.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, deckDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	d, err := loadDeck(deckDir)
	if err != nil {
		return reportError(formatter, ExitCommandError, loadCode(err), err.Error())
	}
	formatter.VerboseLog("Loaded deck %q from %s", d.Title, deckDir)

	if errs := compiler.Validate(d); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	result := ValidationResult{
		Valid:     true,
		Title:     d.Title,
		Cells:     len(d.Cells),
		Surfaces:  len(d.Surfaces),
		Universes: len(d.Universes()),
	}
	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Deck valid: %d cell(s), %d surface(s), %d universe(s)\n",
		result.Cells, result.Surfaces, result.Universes)
	return nil
}

// outputValidationErrors reports deck validation failures. They are
// content failures, so the exit code is ExitFailure.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.JSON() {
		if err := formatter.Fail(errs[0].Code, errs[0].Message, ValidationResult{Errors: errs}); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", err.Code, err.Field, err.Message)
	}
	return exitErr
}
