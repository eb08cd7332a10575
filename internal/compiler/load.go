package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/cellcad/internal/deck"
)

// LoadStage identifies where loading a deck directory failed.
type LoadStage string

const (
	StageNotFound LoadStage = "not_found" // path missing or not a directory
	StageNoFiles  LoadStage = "no_files"  // directory holds no .cue files
	StageLoad     LoadStage = "load"      // CUE instance load failed
	StageBuild    LoadStage = "build"     // CUE evaluation failed
	StageCompile  LoadStage = "compile"   // CUE value is not a valid deck
)

// LoadError reports a failed LoadDir.
type LoadError struct {
	Stage LoadStage
	Dir   string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load deck %s (%s): %v", e.Dir, e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadDir loads the CUE package in dir and compiles it into a Deck.
func LoadDir(dir string) (*deck.Deck, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &LoadError{Stage: StageNotFound, Dir: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{Stage: StageNotFound, Dir: dir, Err: fmt.Errorf("not a directory")}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Stage: StageNotFound, Dir: dir, Err: err}
	}
	if len(files) == 0 {
		return nil, &LoadError{Stage: StageNoFiles, Dir: dir, Err: fmt.Errorf("no CUE files found")}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Stage: StageLoad, Dir: dir, Err: fmt.Errorf("no CUE instances loaded")}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Stage: StageLoad, Dir: dir, Err: inst.Err}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Validate(); err != nil {
		return nil, &LoadError{Stage: StageBuild, Dir: dir, Err: formatCUEError(err)}
	}

	d, err := CompileDeck(value)
	if err != nil {
		return nil, &LoadError{Stage: StageCompile, Dir: dir, Err: err}
	}
	return d, nil
}

// FindCUEFiles returns the .cue files directly inside dir, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, "*.cue"))
}
