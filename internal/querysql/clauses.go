package querysql

import (
	"strconv"
	"strings"

	"github.com/roach88/optsql/internal/queryopt"
)

// Each assembler returns the clause fragment, or "" when the clause is
// omitted.

// selectClause renders SELECT with the qualifying fields, or * if none.
func (s *scope) selectClause() string {
	var items []string
	for _, f := range s.query.Fields {
		if f.FieldMapping == "" && f.FieldName == "" {
			continue
		}
		item := s.selectExpr(f)
		if f.Alias != "" {
			item += " AS " + quoteAlias(f.Alias)
		}
		items = append(items, item)
	}

	list := "*"
	if len(items) > 0 {
		list = strings.Join(items, ", ")
	}
	if s.query.Distinct {
		return "SELECT DISTINCT " + list
	}
	return "SELECT " + list
}

// selectExpr renders one field without its alias.
func (s *scope) selectExpr(f queryopt.FieldConfig) string {
	col := qualify(s.prefixFor(f.SourceID, f.TableName, f.TableAlias), f.Column())
	switch {
	case f.IsAggregate():
		return strings.ToUpper(f.Function) + "(" + col + ")"
	case f.IsExpression && f.Expression != "":
		return f.Expression
	default:
		return col
	}
}

// fromClause renders FROM for the main table.
func (s *scope) fromClause() string {
	from := "FROM " + s.main.Table()
	if s.mainAlias != "" {
		from += " AS " + s.mainAlias
	}
	return from
}

// joinClauses renders the planned joins in order.
func (s *scope) joinClauses() []string {
	clauses := make([]string, 0, len(s.joins))
	for _, j := range s.joins {
		clauses = append(clauses,
			j.keyword+" "+j.source.Table()+" AS "+j.alias+" ON "+strings.Join(j.on, " AND "))
	}
	return clauses
}

// whereClause renders WHERE from the filter tree.
func (s *scope) whereClause() string {
	if s.query.Filters == nil {
		return ""
	}
	pred := s.compileNode(s.query.Filters)
	if pred == "" {
		return ""
	}
	return "WHERE " + pred
}

// groupByClause renders GROUP BY from the implicit set (non-aggregate
// fields, only when an aggregate is selected) followed by explicit entries.
func (s *scope) groupByClause() string {
	var items []string
	seen := make(map[string]bool)
	add := func(item string) {
		if item == "" || seen[item] {
			return
		}
		seen[item] = true
		items = append(items, item)
	}

	if s.query.HasAggregate() {
		for _, f := range s.query.Fields {
			if f.IsAggregate() || f.FieldMapping == "" || f.SourceID == "" {
				continue
			}
			add(qualify(s.prefixFor(f.SourceID, f.TableName, f.TableAlias), f.FieldMapping))
		}
	}

	for _, entry := range s.query.GroupBy {
		add(s.normalizeGroupBy(strings.TrimSpace(entry)))
	}

	if len(items) == 0 {
		return ""
	}
	return "GROUP BY " + strings.Join(items, ", ")
}

// normalizeGroupBy rewrites the prefix of an explicit "prefix.field" entry
// when it names a source rather than a table prefix in scope.
func (s *scope) normalizeGroupBy(entry string) string {
	prefix, column, ok := strings.Cut(entry, ".")
	if !ok || prefix == "" || s.aliases[prefix] {
		return entry
	}
	src, found := s.sourceByReference(prefix)
	if !found {
		return entry
	}
	resolved := s.prefixFor(src.ID, "", "")
	if resolved == "" || resolved == prefix {
		return entry
	}
	return resolved + "." + column
}

// havingClause renders HAVING from the complete entries.
func (s *scope) havingClause() string {
	var terms []string
	for _, h := range s.query.Having {
		if h.Field == "" || h.Function == "" || h.Operator == "" || queryopt.IsBlankValue(h.Value) {
			continue
		}
		op, ok := comparisonOp(h.Operator)
		if !ok {
			continue
		}
		col := qualify(s.prefixFor(h.SourceID, h.TableName, h.TableAlias), h.Field)
		terms = append(terms, strings.ToUpper(h.Function)+"("+col+") "+op+" "+literal(h.Value))
	}
	if len(terms) == 0 {
		return ""
	}
	return "HAVING " + strings.Join(terms, " AND ")
}

// orderByClause renders ORDER BY, preferring SELECT aliases.
func (s *scope) orderByClause() string {
	var items []string
	for _, entry := range s.query.Sort {
		if entry.Field == "" {
			continue
		}
		items = append(items, s.sortExpr(entry)+" "+direction(entry.Direction))
	}
	if len(items) == 0 {
		return ""
	}
	return "ORDER BY " + strings.Join(items, ", ")
}

// sortExpr resolves a sort entry: the SELECT alias, then the qualified
// column of the matching SELECT field, then the raw field text.
func (s *scope) sortExpr(entry queryopt.SortEntry) string {
	f, ok := s.query.FindField(entry.Field)
	if !ok {
		return entry.Field
	}
	if f.Alias != "" {
		return quoteAlias(f.Alias)
	}
	sourceID, tableName, tableAlias := f.SourceID, f.TableName, f.TableAlias
	if sourceID == "" && tableName == "" && tableAlias == "" {
		sourceID, tableName, tableAlias = entry.SourceID, entry.TableName, entry.TableAlias
	}
	return qualify(s.prefixFor(sourceID, tableName, tableAlias), f.FieldMapping)
}

func direction(dir string) string {
	if strings.EqualFold(dir, queryopt.Desc) {
		return queryopt.Desc
	}
	return queryopt.Asc
}

// limitClause renders LIMIT when a positive limit is set.
func (s *scope) limitClause() string {
	if s.query.Limit <= 0 {
		return ""
	}
	return "LIMIT " + strconv.Itoa(s.query.Limit)
}

// offsetClause renders OFFSET when a positive offset is set, with or
// without LIMIT.
func (s *scope) offsetClause() string {
	if s.query.Offset <= 0 {
		return ""
	}
	return "OFFSET " + strconv.Itoa(s.query.Offset)
}
