package querysql

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/optsql/internal/queryopt"
)

// CompileFilter renders a filter tree on its own, outside a full query.
// mainTableID and mainTableAlias drive the main-table alias override;
// there are no joins in scope. An empty result means "no predicate".
func CompileFilter(node queryopt.FilterNode, sources []queryopt.Source, mainTableAlias, mainTableID string) string {
	cat := newCatalog(sources)
	s := &scope{
		catalog:   cat,
		mainAlias: mainTableAlias,
		joinAlias: map[string]string{},
		aliases:   map[string]bool{},
	}
	if main, ok := cat.lookup(mainTableID); ok {
		s.main = main
	} else {
		// No main table: never match the override, fall back to "".
		s.main = queryopt.Source{ID: mainTableID}
	}
	return s.compileNode(node)
}

// compileNode dispatches on the sealed node type.
func (s *scope) compileNode(node queryopt.FilterNode) string {
	switch n := node.(type) {
	case queryopt.Condition:
		return s.compileCondition(n)
	case *queryopt.Condition:
		if n == nil {
			return ""
		}
		return s.compileCondition(*n)
	case queryopt.Group:
		return s.compileGroup(n)
	case *queryopt.Group:
		if n == nil {
			return ""
		}
		return s.compileGroup(*n)
	default:
		return ""
	}
}

// compileCondition renders one leaf. Anything not yet configured yields "".
func (s *scope) compileCondition(c queryopt.Condition) string {
	if c.SourceField == nil || c.SourceField.FieldMapping == "" {
		return ""
	}

	op, ok := conditionOp(c.Operator)
	if !ok {
		return ""
	}

	left := s.fieldRef(*c.SourceField)

	if hasNoValue(c.Operator) {
		return left + " " + op
	}

	if c.CompareWithOtherField {
		if c.TargetField == nil || c.TargetField.FieldMapping == "" {
			return ""
		}
		return left + " " + op + " " + s.fieldRef(*c.TargetField)
	}

	// Values are always a single-quoted scalar, without escaping. IN and
	// BETWEEN receive whatever text the caller serialized into Value.
	return left + " " + op + " '" + valueText(c.Value) + "'"
}

// compileGroup renders children, drops empty ones and parenthesizes the rest.
func (s *scope) compileGroup(g queryopt.Group) string {
	if len(g.Elements) == 0 {
		return ""
	}

	op := strings.ToUpper(g.Op)
	if op != queryopt.Or {
		op = queryopt.And
	}

	var parts []string
	for _, child := range g.Elements {
		if sql := s.compileNode(child); sql != "" {
			parts = append(parts, sql)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " "+op+" ") + ")"
}

// fieldRef renders a qualified column for a field reference.
func (s *scope) fieldRef(ref queryopt.FieldReference) string {
	return qualify(s.prefixFor(ref.SourceID, ref.TableName, ref.TableAlias), ref.FieldMapping)
}

// valueText renders a literal's text. nil renders as empty.
func valueText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// literal renders a HAVING value: strings quoted, everything else as written.
func literal(v any) string {
	if str, ok := v.(string); ok {
		return "'" + str + "'"
	}
	return valueText(v)
}
