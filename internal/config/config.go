// Package config holds the build options and their TOML file form.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Options are the switches consumed by the geometry builder.
type Options struct {
	TagMaterials   bool `toml:"tag_materials"`
	TagImportances bool `toml:"tag_importances"`
	TagCellIDs     bool `toml:"tag_cell_ids"`
	MakeGraveyard  bool `toml:"make_graveyard"`
	Imprint        bool `toml:"imprint"`
	Merge          bool `toml:"merge"`
	UWUWNames      bool `toml:"uwuw_names"`
	ExtraEffort    bool `toml:"extra_effort"`
	Debug          bool `toml:"debug"`

	// EmbedUniverses expands fill universes into their containers. When
	// false, filled cells produce their bare shells.
	EmbedUniverses bool `toml:"embed_universes"`

	Lattice LatticeOptions `toml:"lattice"`

	MaxUniverseDepth int `toml:"max_universe_depth"`
	KernelSamples    int `toml:"kernel_samples"`

	// MergeTolerance overrides the kernel's merge tolerance when set.
	MergeTolerance *float64 `toml:"merge_tolerance,omitempty"`
}

// LatticeOptions tune the infinite-lattice search.
type LatticeOptions struct {
	EmptyRunTolerance    int `toml:"empty_run_tolerance"`
	ExtraEffortTolerance int `toml:"extra_effort_tolerance"`
	MaxRadius            int `toml:"max_radius"`
}

// Default values.
const (
	DefaultEmptyRunTolerance    = 1
	DefaultExtraEffortTolerance = 3
	DefaultMaxLatticeRadius     = 64
	DefaultMaxUniverseDepth     = 64
	DefaultKernelSamples        = 20

	// MaxUsualMergeTolerance is the largest merge tolerance accepted
	// without a warning.
	MaxUsualMergeTolerance = 0.1
)

// Default returns the options used when no file or flag overrides them.
func Default() Options {
	return Options{
		TagMaterials:     true,
		TagImportances:   true,
		TagCellIDs:       true,
		MakeGraveyard:    true,
		Imprint:          true,
		Merge:            true,
		EmbedUniverses:   true,
		MaxUniverseDepth: DefaultMaxUniverseDepth,
		KernelSamples:    DefaultKernelSamples,
		Lattice: LatticeOptions{
			EmptyRunTolerance:    DefaultEmptyRunTolerance,
			ExtraEffortTolerance: DefaultExtraEffortTolerance,
			MaxRadius:            DefaultMaxLatticeRadius,
		},
	}
}

// Load reads a TOML options file over the defaults. Keys absent from the
// file keep their default value; unknown keys are an error.
func Load(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	opts, err := Parse(data)
	if err != nil {
		return Options{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return opts, nil
}

// Parse decodes TOML options over the defaults and validates them.
func Parse(data []byte) (Options, error) {
	opts := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		return Options{}, err
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Normalize resolves contradictory switches and returns one warning per
// adjustment. Merging without imprinting is disabled. A merge tolerance
// outside (0, MaxUsualMergeTolerance] is kept but warned about.
func (o *Options) Normalize() []string {
	var warnings []string
	if o.Merge && !o.Imprint {
		o.Merge = false
		warnings = append(warnings, "merge requested without imprint; merge disabled")
	}
	if t := o.MergeTolerance; t != nil && (*t <= 0 || *t > MaxUsualMergeTolerance) {
		warnings = append(warnings, fmt.Sprintf("unusual merge tolerance %g", *t))
	}
	return warnings
}

// MergeToleranceOrDefault returns the merge tolerance to hand the kernel;
// zero selects the kernel default.
func (o Options) MergeToleranceOrDefault() float64 {
	if o.MergeTolerance == nil {
		return 0
	}
	return *o.MergeTolerance
}

// Validate rejects option values the builder cannot run with.
func (o Options) Validate() error {
	if o.Lattice.EmptyRunTolerance < 1 {
		return fmt.Errorf("lattice.empty_run_tolerance must be at least 1, got %d", o.Lattice.EmptyRunTolerance)
	}
	if o.Lattice.ExtraEffortTolerance < 1 {
		return fmt.Errorf("lattice.extra_effort_tolerance must be at least 1, got %d", o.Lattice.ExtraEffortTolerance)
	}
	if o.Lattice.MaxRadius < 1 {
		return fmt.Errorf("lattice.max_radius must be at least 1, got %d", o.Lattice.MaxRadius)
	}
	if o.MaxUniverseDepth < 1 {
		return fmt.Errorf("max_universe_depth must be at least 1, got %d", o.MaxUniverseDepth)
	}
	if o.KernelSamples < 1 {
		return fmt.Errorf("kernel_samples must be at least 1, got %d", o.KernelSamples)
	}
	return nil
}

// EmptyRunLimit returns the consecutive-empty tolerance in effect.
func (o Options) EmptyRunLimit() int {
	if o.ExtraEffort {
		return o.Lattice.ExtraEffortTolerance
	}
	return o.Lattice.EmptyRunTolerance
}

// Encode renders the options as TOML.
func (o Options) Encode() ([]byte, error) {
	return toml.Marshal(o)
}
