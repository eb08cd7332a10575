package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/cellcad/internal/compiler"
	"github.com/roach88/cellcad/internal/config"
	"github.com/roach88/cellcad/internal/deck"
	"github.com/roach88/cellcad/internal/engine"
	"github.com/roach88/cellcad/internal/geometry"
	"github.com/roach88/cellcad/internal/store"
)

// Error code constants, unified across all CLI commands.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeScanError     = "E002" // Directory scan error
	ErrCodeNoFiles       = "E003" // No CUE files found
	ErrCodeLoadFailed    = "E004" // CUE load failed
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeBuildFailed   = "E006" // CUE evaluation failed
	ErrCodeWriteFailed   = "E007" // File write error
	ErrCodeCompileFailed = "E008" // CUE value is not a deck
	ErrCodeConfig        = "E009" // Options file unreadable or invalid
	ErrCodeInvalidQuery  = "E010" // trace filter rejected

	// Geometry build errors
	ErrCodeGeometry      = "E201" // kernel call failed
	ErrCodeConsistency   = "E202" // handle tracker lost a solid
	ErrCodeConfiguration = "E203" // deck/options combination cannot be built

	// Store errors
	ErrCodeStoreOpen   = "E301" // database could not be opened
	ErrCodeRunNotFound = "E302" // no such run
	ErrCodeStoreRead   = "E303" // query failed
	ErrCodeStoreWrite  = "E304" // run could not be recorded
)

// DeckLoadError is a deck directory failure mapped to a CLI error code.
type DeckLoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *DeckLoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DeckLoadError) Unwrap() error { return e.Err }

// loadDeck loads and compiles the deck in dir.
func loadDeck(dir string) (*deck.Deck, error) {
	d, err := compiler.LoadDir(dir)
	if err == nil {
		return d, nil
	}

	var loadErr *compiler.LoadError
	if !errors.As(err, &loadErr) {
		return nil, &DeckLoadError{Code: ErrCodeGeneric, Message: err.Error(), Err: err}
	}
	return nil, &DeckLoadError{Code: stageCode(loadErr.Stage), Message: loadErr.Error(), Err: err}
}

func stageCode(stage compiler.LoadStage) string {
	switch stage {
	case compiler.StageNotFound:
		return ErrCodeNotFound
	case compiler.StageNoFiles:
		return ErrCodeNoFiles
	case compiler.StageLoad:
		return ErrCodeLoadFailed
	case compiler.StageBuild:
		return ErrCodeBuildFailed
	case compiler.StageCompile:
		return ErrCodeCompileFailed
	default:
		return ErrCodeGeneric
	}
}

// loadCode returns the CLI code of a loadDeck error.
func loadCode(err error) string {
	var dl *DeckLoadError
	if errors.As(err, &dl) {
		return dl.Code
	}
	return ErrCodeGeneric
}

// buildErrorCode maps a build failure to its CLI code.
func buildErrorCode(err error) string {
	switch {
	case geometry.IsGeometryError(err):
		return ErrCodeGeometry
	case geometry.IsConsistencyError(err):
		return ErrCodeConsistency
	case geometry.IsConfigurationError(err):
		return ErrCodeConfiguration
	case engine.IsStoreWriteError(err):
		return ErrCodeStoreWrite
	case engine.IsRunNotFound(err), store.IsNotFound(err):
		return ErrCodeRunNotFound
	default:
		return ErrCodeGeneric
	}
}

// loadOptions reads build options from a TOML file, or the defaults when
// path is empty.
func loadOptions(path string) (config.Options, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// openStore opens the run database at path. Read-only commands pass
// mustExist so a typo does not silently create an empty database.
func openStore(path string, mustExist bool) (*store.Store, error) {
	if path == "" {
		return nil, fmt.Errorf("no database given (use --db)")
	}
	if mustExist {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("database not found: %s", path)
		}
	}
	return store.Open(path)
}
