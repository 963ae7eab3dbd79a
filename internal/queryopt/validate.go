package queryopt

import (
	"fmt"
	"strings"
)

// Issue codes (Q100-Q199).
const (
	IssueNoMainTable       = "Q101" // table is empty
	IssueUnknownMainTable  = "Q102" // table does not resolve to a source
	IssueNoFields          = "Q103" // nothing selected
	IssueBadFunction       = "Q104" // unsupported aggregate function
	IssueIncompleteFilter  = "Q110" // condition missing operator or fields
	IssueEmptyGroup        = "Q111" // group with no elements
	IssueBadGroupOp        = "Q112" // group op is not AND / OR
	IssueUnknownJoinTable  = "Q120" // join table does not resolve
	IssueJoinNoConditions  = "Q121" // join has no usable ON condition
	IssueBadJoinType       = "Q122" // unsupported join type
	IssueHavingNotSelected = "Q130" // having aggregate not in SELECT
	IssueIncompleteHaving  = "Q131" // having entry missing parts
	IssueSortNotSelected   = "Q140" // sort field not in SELECT
	IssueBadDirection      = "Q141" // direction is not ASC / DESC
)

// Issue describes one incomplete or inconsistent part of a query option.
type Issue struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Code, i.Field, i.Message)
}

// Report is the result of Validate.
type Report struct {
	// Complete is true when no issues were found and the query can be
	// handed to execution as-is.
	Complete bool `json:"complete"`

	Issues []Issue `json:"issues"`
}

// Validate checks a query option for completeness against the available
// sources. It never fails: every problem becomes an Issue.
//
// The compiler tolerates all of these states (it omits what it cannot
// render). Validate exists so callers can gate real execution on a
// finished query.
func Validate(q QueryOption, sources []Source) Report {
	v := &validator{
		sources: make(map[string]Source, len(sources)),
		issues:  []Issue{},
	}
	for _, s := range sources {
		v.sources[s.ID] = s
	}

	v.validateMain(q)
	v.validateFields(q)
	if q.Filters != nil {
		v.validateNode(q.Filters, "filters")
	}
	v.validateJoins(q)
	v.validateHaving(q)
	v.validateSort(q)

	return Report{
		Complete: len(v.issues) == 0,
		Issues:   v.issues,
	}
}

// validator accumulates issues during traversal.
type validator struct {
	sources map[string]Source
	issues  []Issue
}

func (v *validator) add(code, field, format string, args ...any) {
	v.issues = append(v.issues, Issue{
		Code:    code,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

func (v *validator) validateMain(q QueryOption) {
	if q.Table == "" {
		v.add(IssueNoMainTable, "table", "no main table selected")
		return
	}
	if _, ok := v.sources[q.Table]; !ok {
		v.add(IssueUnknownMainTable, "table", "main table %q not found", q.Table)
	}
}

func (v *validator) validateFields(q QueryOption) {
	selected := 0
	for i, f := range q.Fields {
		if f.Column() == "" && !(f.IsExpression && f.Expression != "") {
			continue
		}
		selected++
		if f.Function != "" && !isOneOf(f.Function, AggregateFunctions) {
			v.add(IssueBadFunction, fmt.Sprintf("fields[%d].function", i),
				"unsupported aggregate function %q", f.Function)
		}
	}
	if selected == 0 {
		v.add(IssueNoFields, "fields", "no fields selected")
	}
}

func (v *validator) validateNode(node FilterNode, path string) {
	switch n := node.(type) {
	case Condition:
		v.validateCondition(n, path)
	case *Condition:
		if n != nil {
			v.validateCondition(*n, path)
		}
	case Group:
		v.validateGroup(n, path)
	case *Group:
		if n != nil {
			v.validateGroup(*n, path)
		}
	}
}

func (v *validator) validateCondition(c Condition, path string) {
	switch {
	case c.SourceField == nil || c.SourceField.FieldMapping == "":
		v.add(IssueIncompleteFilter, path, "condition has no field")
	case c.Operator == OpNone:
		v.add(IssueIncompleteFilter, path, "condition on %q has no operator", c.SourceField.FieldMapping)
	case c.CompareWithOtherField && (c.TargetField == nil || c.TargetField.FieldMapping == ""):
		v.add(IssueIncompleteFilter, path, "condition on %q has no target field", c.SourceField.FieldMapping)
	}
}

func (v *validator) validateGroup(g Group, path string) {
	if !isOneOf(g.Op, []string{And, Or}) {
		v.add(IssueBadGroupOp, path+".op", "group operator %q must be AND or OR", g.Op)
	}
	// An empty root group means "no filter" and is fine.
	if len(g.Elements) == 0 && path != "filters" {
		v.add(IssueEmptyGroup, path, "group has no conditions")
	}
	for i, child := range g.Elements {
		v.validateNode(child, fmt.Sprintf("%s.elements[%d]", path, i))
	}
}

func (v *validator) validateJoins(q QueryOption) {
	for i, j := range q.Joins {
		path := fmt.Sprintf("joins[%d]", i)
		if _, ok := v.sources[j.Table]; !ok {
			v.add(IssueUnknownJoinTable, path+".table", "join table %q not found", j.Table)
			continue
		}
		if j.Type != "" && !isOneOf(j.Type, JoinTypes) {
			v.add(IssueBadJoinType, path+".type", "unsupported join type %q", j.Type)
		}
		usable := 0
		for _, c := range j.Conditions {
			if c.LeftField != "" && c.RightField != "" && c.Operator != "" {
				usable++
			}
		}
		if usable == 0 {
			v.add(IssueJoinNoConditions, path+".conditions", "join has no complete ON condition and will be dropped")
		}
	}
}

func (v *validator) validateHaving(q QueryOption) {
	for i, h := range q.Having {
		path := fmt.Sprintf("having[%d]", i)
		if h.Field == "" || h.Function == "" || h.Operator == "" || IsBlankValue(h.Value) {
			v.add(IssueIncompleteHaving, path, "having entry is incomplete and will be dropped")
			continue
		}
		if !v.hasAggregate(q, h.Function, h.Field) {
			v.add(IssueHavingNotSelected, path, "%s(%s) is not an aggregate field in SELECT", strings.ToUpper(h.Function), h.Field)
		}
	}
}

func (v *validator) hasAggregate(q QueryOption, function, field string) bool {
	for _, f := range q.Fields {
		if strings.EqualFold(f.Function, function) && f.FieldMapping == field {
			return true
		}
	}
	return false
}

func (v *validator) validateSort(q QueryOption) {
	for i, s := range q.Sort {
		path := fmt.Sprintf("sort[%d]", i)
		if s.Direction != "" && !isOneOf(s.Direction, []string{Asc, Desc}) {
			v.add(IssueBadDirection, path+".direction", "direction %q must be ASC or DESC", s.Direction)
		}
		if _, ok := q.FindField(s.Field); !ok && !v.isSelectAlias(q, s.Field) {
			v.add(IssueSortNotSelected, path+".field", "sort field %q is not selected", s.Field)
		}
	}
}

func (v *validator) isSelectAlias(q QueryOption, name string) bool {
	for _, f := range q.Fields {
		if f.Alias != "" && f.Alias == name {
			return true
		}
	}
	return false
}

// IsBlankValue reports whether a having or condition value counts as unset.
func IsBlankValue(value any) bool {
	switch val := value.(type) {
	case nil:
		return true
	case string:
		return val == ""
	default:
		return false
	}
}
