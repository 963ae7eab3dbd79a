// Package sqlcheck parses generated SQL to catch statements a MySQL-dialect
// server would reject.
package sqlcheck

import (
	"errors"
	"fmt"

	"github.com/xwb1989/sqlparser"
)

// ErrNotSelect is returned when the statement parses but is not a SELECT.
var ErrNotSelect = errors.New("not a SELECT statement")

// Result describes the outcome of a syntax check.
type Result struct {
	Valid  bool     `json:"valid"`
	Error  string   `json:"error,omitempty"`
	Tables []string `json:"tables,omitempty"`
}

// SyntaxError wraps a parser failure together with the rejected statement.
type SyntaxError struct {
	SQL string
	Err error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("sql syntax: %v", e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Check parses sql and returns a *SyntaxError when the parser rejects it.
func Check(sql string) error {
	_, err := parseSelect(sql)
	return err
}

// Tables returns the physical tables referenced in FROM and JOIN, in order
// of first appearance.
func Tables(sql string) ([]string, error) {
	stmt, err := parseSelect(sql)
	if err != nil {
		return nil, err
	}
	return tables(stmt), nil
}

// Inspect checks sql and reports the result without returning an error.
func Inspect(sql string) Result {
	stmt, err := parseSelect(sql)
	if err != nil {
		return Result{Valid: false, Error: err.Error()}
	}
	return Result{Valid: true, Tables: tables(stmt)}
}

func parseSelect(sql string) (sqlparser.Statement, error) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return nil, &SyntaxError{SQL: sql, Err: err}
	}
	if _, ok := stmt.(*sqlparser.Select); !ok {
		return nil, &SyntaxError{SQL: sql, Err: ErrNotSelect}
	}
	return stmt, nil
}

func tables(stmt sqlparser.Statement) []string {
	var names []string
	seen := make(map[string]bool)

	_ = sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		aliased, ok := node.(*sqlparser.AliasedTableExpr)
		if !ok {
			return true, nil
		}
		tn, ok := aliased.Expr.(sqlparser.TableName)
		if !ok || tn.IsEmpty() {
			return true, nil
		}
		name := tn.Name.String()
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		return true, nil
	}, stmt)

	return names
}
