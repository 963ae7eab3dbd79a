package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/optsql/internal/sqlcheck"
)

// AssertionError is returned when an expectation fails.
type AssertionError struct {
	Expectation string // expect key, e.g. "sql" or "contains"
	Expected    string
	Actual      string
	SQL         string // compiled statement for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Expectation)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	if e.SQL != "" {
		fmt.Fprintf(&buf, "\n  SQL: %s", e.SQL)
	}
	return buf.String()
}

// Check evaluates every set expectation against a result and returns the
// failures in a fixed order. SQL expectations are skipped when compilation
// failed; the unexpected error is reported once instead.
func Check(expect Expect, result *Result) []*AssertionError {
	var failures []*AssertionError
	fail := func(expectation, expected, actual string) {
		failures = append(failures, &AssertionError{
			Expectation: expectation,
			Expected:    expected,
			Actual:      actual,
			SQL:         result.SQL,
		})
	}

	switch {
	case expect.Error != "":
		if result.CompileError == "" {
			fail("error", fmt.Sprintf("compile error containing %q", expect.Error), "compiled without error")
		} else if !strings.Contains(result.CompileError, expect.Error) {
			fail("error", fmt.Sprintf("compile error containing %q", expect.Error), result.CompileError)
		}
	case result.CompileError != "":
		if expect.checksSQL() {
			fail("compile", "statement to compile", "error: "+result.CompileError)
		}
	default:
		checkSQL(expect, result, fail)
	}

	if expect.Complete != nil && *expect.Complete != result.Report.Complete {
		fail("complete", fmt.Sprintf("%t", *expect.Complete),
			fmt.Sprintf("%t (issues: %s)", result.Report.Complete, strings.Join(issueCodes(result), ", ")))
	}

	if expect.Issues != nil {
		if got := issueCodes(result); !slices.Equal(got, expect.Issues) {
			fail("issues", "["+strings.Join(expect.Issues, ", ")+"]", "["+strings.Join(got, ", ")+"]")
		}
	}

	return failures
}

func checkSQL(expect Expect, result *Result, fail func(expectation, expected, actual string)) {
	if expect.SQL != "" && expect.SQL != result.SQL {
		fail("sql", expect.SQL, result.SQL)
	}

	for _, want := range expect.Contains {
		if !strings.Contains(result.SQL, want) {
			fail("contains", fmt.Sprintf("statement containing %q", want), "not found")
		}
	}

	for _, unwanted := range expect.NotContains {
		if strings.Contains(result.SQL, unwanted) {
			fail("not_contains", fmt.Sprintf("statement without %q", unwanted), "found")
		}
	}

	if expect.Parses != nil {
		err := sqlcheck.Check(result.SQL)
		switch {
		case *expect.Parses && err != nil:
			fail("parses", "statement accepted by the SQL parser", err.Error())
		case !*expect.Parses && err == nil:
			fail("parses", "statement rejected by the SQL parser", "accepted")
		}
	}

	if expect.Tables != nil {
		got, err := sqlcheck.Tables(result.SQL)
		switch {
		case err != nil:
			fail("tables", "["+strings.Join(expect.Tables, ", ")+"]", err.Error())
		case !slices.Equal(got, expect.Tables):
			fail("tables", "["+strings.Join(expect.Tables, ", ")+"]", "["+strings.Join(got, ", ")+"]")
		}
	}
}

func issueCodes(result *Result) []string {
	codes := make([]string, len(result.Report.Issues))
	for i, issue := range result.Report.Issues {
		codes[i] = issue.Code
	}
	return codes
}
