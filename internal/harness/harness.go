package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/cellcad/internal/compiler"
	"github.com/roach88/cellcad/internal/config"
	"github.com/roach88/cellcad/internal/engine"
	"github.com/roach88/cellcad/internal/store"
)

// DeckInvalidError is the build outcome of a deck that failed validation.
// The builder never runs for such a deck.
type DeckInvalidError struct {
	Errors []compiler.ValidationError
}

// Error implements the error interface.
func (e *DeckInvalidError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return "deck validation failed: " + strings.Join(msgs, "; ")
}

// HasCode reports whether any validation error carries code.
func (e *DeckInvalidError) HasCode(code string) bool {
	for _, ve := range e.Errors {
		if ve.Code == code {
			return true
		}
	}
	return false
}

// Run executes a scenario and returns the result.
//
// Each scenario runs on a fresh kernel and a fresh in-memory database
// for isolation. The run id is the scenario name.
//
// Execution flow:
// 1. Load and compile the deck
// 2. Validate it, unless the scenario skips validation
// 3. Build with the scenario's options, recording into the store
// 4. Evaluate assertions against the report and the stored journal
//
// A build failure is an outcome, not an error: it fails the result unless
// the scenario expects it. Run returns an error only when the scenario
// cannot be executed at all.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	d, err := compiler.LoadDir(scenario.Deck)
	if err != nil {
		return nil, fmt.Errorf("failed to load deck: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	// Suppress build logs; failures surface through the result.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	result := NewResult()
	var buildErr error
	var rep *engine.Report

	if !scenario.SkipValidation {
		if errs := compiler.Validate(d); len(errs) > 0 {
			buildErr = &DeckInvalidError{Errors: errs}
		}
	}

	if buildErr == nil {
		eng := engine.New(
			engine.WithStore(st),
			engine.WithRunIDs(store.NewFixedGenerator(scenario.Name)),
			engine.WithLogger(logger),
		)
		rep, buildErr = eng.Build(ctx, d, scenario.Options.Apply(config.Default()))
		if rep == nil || engine.IsStoreWriteError(buildErr) {
			return nil, fmt.Errorf("failed to build scenario %s: %w", scenario.Name, buildErr)
		}
		result.Report = rep
		if rep.Journal != nil {
			result.Journal = rep.Journal
		}
	}
	if buildErr != nil {
		result.BuildError = buildErr.Error()
	}

	actx := &AssertionContext{
		Ctx:      ctx,
		Store:    st,
		RunID:    scenario.Name,
		Report:   rep,
		BuildErr: buildErr,
	}
	for _, msg := range EvaluateAssertions(scenario, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// RunFile loads and runs the scenario at path.
func RunFile(ctx context.Context, path string) (*Scenario, *Result, error) {
	scenario, err := LoadScenario(path)
	if err != nil {
		return nil, nil, err
	}
	result, err := RunContext(ctx, scenario)
	if err != nil {
		return scenario, nil, err
	}
	return scenario, result, nil
}

// buildErrorMatches reports whether err carries code, either as a build
// error code or as a deck validation code.
func buildErrorMatches(err error, code string) bool {
	var de *DeckInvalidError
	if errors.As(err, &de) {
		return de.HasCode(code)
	}
	return errorCode(err) == code
}
