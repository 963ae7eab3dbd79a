package harness

import (
	"fmt"

	"github.com/roach88/optsql/internal/canonical"
	"github.com/roach88/optsql/internal/queryopt"
	"github.com/roach88/optsql/internal/querysql"
)

// Run compiles a scenario's query and checks its expectations.
//
// The returned error covers only scenarios that cannot be run at all,
// such as an unreadable document. A compiler error is part of the result
// and is matched against expect.error.
func Run(scenario *Scenario) (*Result, error) {
	doc, err := scenario.document()
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario document: %w", err)
	}

	fingerprint, err := canonical.QueryFingerprint(doc.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint query: %w", err)
	}

	result := NewResult()
	result.Fingerprint = fingerprint
	result.Report = queryopt.Validate(doc.Query, doc.Sources)

	clauses, err := querysql.NewCompiler(doc.Sources).Clauses(doc.Query)
	if err != nil {
		result.CompileError = err.Error()
	} else {
		result.Clauses = clauses
		result.SQL = querysql.Assemble(clauses)
	}

	for _, failure := range Check(scenario.Expect, result) {
		result.AddError(failure.Error())
	}
	return result, nil
}
