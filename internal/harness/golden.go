package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/optsql/internal/canonical"
	"github.com/roach88/optsql/internal/querysql"
)

// Snapshot captures the compiled output of a scenario for golden
// comparison. The fingerprint is left out so that golden files stay
// readable and reviewable by hand.
type Snapshot struct {
	Scenario string            `json:"scenario"`
	SQL      string            `json:"sql"`
	Clauses  []querysql.Clause `json:"clauses"`
	Error    string            `json:"error,omitempty"`
}

// MarshalSnapshot renders the snapshot of a result as canonical JSON.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	clauses := result.Clauses
	if clauses == nil {
		clauses = []querysql.Clause{}
	}
	return canonical.Marshal(Snapshot{
		Scenario: scenarioName,
		SQL:      result.SQL,
		Clauses:  clauses,
		Error:    result.CompileError,
	})
}

// RunWithGolden runs a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario cannot be run. Expectation failures and
// golden mismatches fail t.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, e := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, e)
	}

	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
