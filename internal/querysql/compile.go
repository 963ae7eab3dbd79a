package querysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/optsql/internal/queryopt"
)

// ErrMainTableNotFound is returned when the query's main table id does not
// resolve to a source. It is the only condition that aborts compilation.
var ErrMainTableNotFound = errors.New("main table not found")

// ClauseKind names a SQL clause.
type ClauseKind string

// Clause kinds in the order they are emitted.
const (
	ClauseSelect  ClauseKind = "SELECT"
	ClauseFrom    ClauseKind = "FROM"
	ClauseJoin    ClauseKind = "JOIN"
	ClauseWhere   ClauseKind = "WHERE"
	ClauseGroupBy ClauseKind = "GROUP BY"
	ClauseHaving  ClauseKind = "HAVING"
	ClauseOrderBy ClauseKind = "ORDER BY"
	ClauseLimit   ClauseKind = "LIMIT"
	ClauseOffset  ClauseKind = "OFFSET"
)

// Clause is one emitted fragment of the statement.
type Clause struct {
	Kind ClauseKind `json:"kind"`
	SQL  string     `json:"sql"`
}

// Compiler compiles query options against a fixed set of sources.
//
// A Compiler holds only the read-only source catalog. Every call resolves
// aliases from scratch, so one Compiler is safe for concurrent use.
type Compiler struct {
	catalog catalog
}

// NewCompiler creates a Compiler for the given sources.
// The slice must not be modified while the Compiler is in use.
func NewCompiler(sources []queryopt.Source) *Compiler {
	return &Compiler{catalog: newCatalog(sources)}
}

// Compile converts a query option to a SQL SELECT statement.
//
// Incomplete input degrades to omitted clauses. The only error is
// ErrMainTableNotFound.
func Compile(q queryopt.QueryOption, sources []queryopt.Source) (string, error) {
	return NewCompiler(sources).Compile(q)
}

// Compile converts a query option to a SQL SELECT statement.
func (c *Compiler) Compile(q queryopt.QueryOption) (string, error) {
	clauses, err := c.Clauses(q)
	if err != nil {
		return "", err
	}
	return Assemble(clauses), nil
}

// Assemble joins clauses into one statement, separated by single spaces.
func Assemble(clauses []Clause) string {
	parts := make([]string, len(clauses))
	for i, cl := range clauses {
		parts[i] = cl.SQL
	}
	return strings.Join(parts, " ")
}

// Clauses returns the emitted clauses in statement order: SELECT, FROM,
// JOIN*, WHERE, GROUP BY, HAVING, ORDER BY, LIMIT, OFFSET. Omitted clauses
// are absent.
func (c *Compiler) Clauses(q queryopt.QueryOption) ([]Clause, error) {
	s, ok := newScope(c.catalog, q)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMainTableNotFound, q.Table)
	}

	clauses := []Clause{
		{Kind: ClauseSelect, SQL: s.selectClause()},
		{Kind: ClauseFrom, SQL: s.fromClause()},
	}
	for _, j := range s.joinClauses() {
		clauses = append(clauses, Clause{Kind: ClauseJoin, SQL: j})
	}

	tail := []Clause{
		{Kind: ClauseWhere, SQL: s.whereClause()},
		{Kind: ClauseGroupBy, SQL: s.groupByClause()},
		{Kind: ClauseHaving, SQL: s.havingClause()},
		{Kind: ClauseOrderBy, SQL: s.orderByClause()},
		{Kind: ClauseLimit, SQL: s.limitClause()},
		{Kind: ClauseOffset, SQL: s.offsetClause()},
	}
	for _, cl := range tail {
		if cl.SQL != "" {
			clauses = append(clauses, cl)
		}
	}

	return clauses, nil
}
