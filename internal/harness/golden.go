package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/cellcad/internal/kernel"
)

// GoldenDir is where golden journals live, relative to the test's package.
const GoldenDir = "testdata/golden"

// JournalSnapshot renders a journal as golden-file text: a header naming
// the scenario, then one operation per line.
func JournalSnapshot(scenarioName string, journal []kernel.Operation) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# scenario: %s\n", scenarioName)
	fmt.Fprintf(&b, "# operations: %d\n", len(journal))
	for _, op := range journal {
		b.WriteString(op.String())
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares its journal against a
// golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the journal doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares the given result's journal against a golden file
// in GoldenDir.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()
	AssertGoldenIn(t, GoldenDir, scenarioName, result)
}

// AssertGoldenIn is AssertGolden with an explicit fixture directory.
func AssertGoldenIn(t *testing.T, dir, scenarioName string, result *Result) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir(dir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, JournalSnapshot(scenarioName, result.Journal))
}
