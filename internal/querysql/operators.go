package querysql

import (
	"strings"

	"github.com/roach88/optsql/internal/queryopt"
)

// conditionOps maps filter condition operators to SQL tokens.
var conditionOps = map[string]string{
	queryopt.OpEq:        "=",
	queryopt.OpNe:        "!=",
	queryopt.OpGt:        ">",
	queryopt.OpGte:       ">=",
	queryopt.OpLt:        "<",
	queryopt.OpLte:       "<=",
	queryopt.OpLike:      "LIKE",
	queryopt.OpIn:        "IN",
	queryopt.OpNotIn:     "NOT IN",
	queryopt.OpBetween:   "BETWEEN",
	queryopt.OpIsNull:    "IS NULL",
	queryopt.OpIsNotNull: "IS NOT NULL",
	queryopt.OpRegexp:    "REGEXP",
}

// comparisonOps is the six-entry table shared by JOIN ON and HAVING.
var comparisonOps = map[string]string{
	queryopt.OpEq:  "=",
	queryopt.OpNe:  "!=",
	queryopt.OpGt:  ">",
	queryopt.OpGte: ">=",
	queryopt.OpLt:  "<",
	queryopt.OpLte: "<=",
}

// joinKeywords maps join types to their SQL keywords.
var joinKeywords = map[string]string{
	queryopt.JoinInner:        "INNER JOIN",
	queryopt.JoinLeft:         "LEFT JOIN",
	queryopt.JoinRight:        "RIGHT JOIN",
	queryopt.JoinCross:        "CROSS JOIN",
	queryopt.JoinNaturalLeft:  "NATURAL LEFT JOIN",
	queryopt.JoinNaturalRight: "NATURAL RIGHT JOIN",
}

// conditionOp returns the SQL token for a filter operator.
// ok is false for the empty operator and anything unrecognized.
func conditionOp(op string) (string, bool) {
	tok, ok := conditionOps[strings.ToUpper(op)]
	return tok, ok
}

// comparisonOp returns the SQL token for a JOIN/HAVING operator.
func comparisonOp(op string) (string, bool) {
	tok, ok := comparisonOps[strings.ToUpper(op)]
	return tok, ok
}

// joinKeyword returns the keyword for a join type, INNER JOIN by default.
func joinKeyword(joinType string) string {
	if kw, ok := joinKeywords[strings.ToUpper(joinType)]; ok {
		return kw
	}
	return joinKeywords[queryopt.JoinInner]
}

// hasNoValue reports whether an operator renders without a value term.
func hasNoValue(op string) bool {
	switch strings.ToUpper(op) {
	case queryopt.OpIsNull, queryopt.OpIsNotNull:
		return true
	default:
		return false
	}
}
