package harness

import (
	"github.com/roach88/optsql/internal/queryopt"
	"github.com/roach88/optsql/internal/querysql"
)

// Result is the outcome of running one scenario.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// SQL is the compiled statement, empty when compilation failed.
	SQL string `json:"sql"`

	// Clauses lists the emitted clauses in statement order.
	Clauses []querysql.Clause `json:"clauses"`

	// CompileError holds the compiler error message, if any.
	CompileError string `json:"compile_error,omitempty"`

	// Report is the completeness report for the query option.
	Report queryopt.Report `json:"report"`

	// Fingerprint identifies the query option.
	Fingerprint string `json:"fingerprint"`

	// Errors contains failed expectation messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Clauses: []querysql.Clause{},
		Errors:  []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
