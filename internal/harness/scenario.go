package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cellcad/internal/config"
	"github.com/roach88/cellcad/internal/queryir"
)

// Scenario defines a conformance test scenario.
// Scenarios build one deck and assert on the resulting solids, groups,
// names and journal.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Deck is the CUE deck directory.
	// Relative paths are resolved against the scenario file location.
	Deck string `yaml:"deck"`

	// Options override the default build options.
	Options OptionOverrides `yaml:"options,omitempty"`

	// SkipValidation builds the deck even when deck validation reports
	// errors. Used to exercise the builder's own guards.
	SkipValidation bool `yaml:"skip_validation,omitempty"`

	// Assertions validate the build outcome.
	Assertions []Assertion `yaml:"assertions"`
}

// OptionOverrides are the build options a scenario may change.
// Unset fields keep their default.
type OptionOverrides struct {
	TagMaterials         *bool `yaml:"tag_materials,omitempty"`
	TagImportances       *bool `yaml:"tag_importances,omitempty"`
	TagCellIDs           *bool `yaml:"tag_cell_ids,omitempty"`
	MakeGraveyard        *bool `yaml:"make_graveyard,omitempty"`
	Imprint              *bool `yaml:"imprint,omitempty"`
	Merge                *bool `yaml:"merge,omitempty"`
	UWUWNames            *bool `yaml:"uwuw_names,omitempty"`
	ExtraEffort          *bool `yaml:"extra_effort,omitempty"`
	EmbedUniverses       *bool `yaml:"embed_universes,omitempty"`
	EmptyRunTolerance    *int  `yaml:"empty_run_tolerance,omitempty"`
	ExtraEffortTolerance *int  `yaml:"extra_effort_tolerance,omitempty"`
	MaxLatticeRadius     *int  `yaml:"max_lattice_radius,omitempty"`
	MaxUniverseDepth     *int  `yaml:"max_universe_depth,omitempty"`
}

// Apply returns base with the overrides applied.
func (o OptionOverrides) Apply(base config.Options) config.Options {
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setBool(&base.TagMaterials, o.TagMaterials)
	setBool(&base.TagImportances, o.TagImportances)
	setBool(&base.TagCellIDs, o.TagCellIDs)
	setBool(&base.MakeGraveyard, o.MakeGraveyard)
	setBool(&base.Imprint, o.Imprint)
	setBool(&base.Merge, o.Merge)
	setBool(&base.UWUWNames, o.UWUWNames)
	setBool(&base.ExtraEffort, o.ExtraEffort)
	setBool(&base.EmbedUniverses, o.EmbedUniverses)
	setInt(&base.Lattice.EmptyRunTolerance, o.EmptyRunTolerance)
	setInt(&base.Lattice.ExtraEffortTolerance, o.ExtraEffortTolerance)
	setInt(&base.Lattice.MaxRadius, o.MaxLatticeRadius)
	setInt(&base.MaxUniverseDepth, o.MaxUniverseDepth)
	return base
}

// Assertion validates the build outcome.
type Assertion struct {
	// Type specifies the assertion type:
	// - "group_members": group holds exactly the solids of Cells, or Count members
	// - "group_absent": no group named Group was created
	// - "body_count": the build produced Count solids
	// - "name_present": at least one solid (or exactly Count) carries Name
	// - "lattice_nodes": Count lattice nodes were occupied
	// - "operation_count": the journal holds Count calls of Op (failed only with Failed)
	// - "error": the build failed with Code and/or a message containing Contains
	Type string `yaml:"type"`

	// Group is the group name (group_members, group_absent).
	Group string `yaml:"group,omitempty"`

	// Cells are cell ids whose solids form the group (group_members).
	// Cell solids are found through their CELL_ID names.
	Cells []int `yaml:"cells,omitempty"`

	// Count is the expected count.
	Count *int `yaml:"count,omitempty"`

	// Name is the entity name (name_present).
	Name string `yaml:"name,omitempty"`

	// Op is the kernel operation name (operation_count).
	Op string `yaml:"op,omitempty"`

	// Failed restricts operation_count to failed calls.
	Failed bool `yaml:"failed,omitempty"`

	// Code is the expected error code (error): a build error code such as
	// CONFIGURATION_ERROR or a deck validation code such as E106.
	Code string `yaml:"code,omitempty"`

	// Contains is an expected error message substring (error).
	Contains string `yaml:"contains,omitempty"`
}

// Assertion type constants.
const (
	AssertGroupMembers   = "group_members"
	AssertGroupAbsent    = "group_absent"
	AssertBodyCount      = "body_count"
	AssertNamePresent    = "name_present"
	AssertLatticeNodes   = "lattice_nodes"
	AssertOperationCount = "operation_count"
	AssertError          = "error"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
//
// The deck path is resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Deck != "" && !filepath.IsAbs(scenario.Deck) {
		scenario.Deck = filepath.Join(filepath.Dir(path), scenario.Deck)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Deck == "" {
		return fmt.Errorf("deck is required")
	}
	if info, err := os.Stat(s.Deck); err != nil || !info.IsDir() {
		return fmt.Errorf("deck directory not found: %s", s.Deck)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	errorAssertions := 0
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
		if s.Assertions[i].Type == AssertError {
			errorAssertions++
		}
	}
	if errorAssertions > 1 {
		return fmt.Errorf("at most one error assertion is allowed, got %d", errorAssertions)
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	if a.Count != nil && *a.Count < 0 {
		return fmt.Errorf("assertions[%d]: count must be non-negative", index)
	}

	switch a.Type {
	case AssertGroupMembers:
		if a.Group == "" {
			return fmt.Errorf("assertions[%d]: group is required for group_members", index)
		}
		if len(a.Cells) == 0 && a.Count == nil {
			return fmt.Errorf("assertions[%d]: cells or count is required for group_members", index)
		}
	case AssertGroupAbsent:
		if a.Group == "" {
			return fmt.Errorf("assertions[%d]: group is required for group_absent", index)
		}
	case AssertBodyCount, AssertLatticeNodes:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for %s", index, a.Type)
		}
	case AssertNamePresent:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for name_present", index)
		}
	case AssertOperationCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for operation_count", index)
		}
		if !queryir.KnownOps[a.Op] {
			return fmt.Errorf("assertions[%d]: unknown operation %q", index, a.Op)
		}
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for operation_count", index)
		}
	case AssertError:
		if a.Code == "" && a.Contains == "" {
			return fmt.Errorf("assertions[%d]: code or contains is required for error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// expectsError reports whether the scenario expects the build to fail.
func (s *Scenario) expectsError() (Assertion, bool) {
	for _, a := range s.Assertions {
		if a.Type == AssertError {
			return a, true
		}
	}
	return Assertion{}, false
}
