package querysql

import (
	"strconv"
	"strings"

	"github.com/roach88/optsql/internal/queryopt"
)

// catalog indexes sources by id. The first source with a given id wins;
// list keeps input order for lookups that scan.
type catalog struct {
	byID map[string]queryopt.Source
	list []queryopt.Source
}

func newCatalog(sources []queryopt.Source) catalog {
	c := catalog{
		byID: make(map[string]queryopt.Source, len(sources)),
		list: sources,
	}
	for _, s := range sources {
		if _, dup := c.byID[s.ID]; !dup {
			c.byID[s.ID] = s
		}
	}
	return c
}

func (c catalog) lookup(id string) (queryopt.Source, bool) {
	src, ok := c.byID[id]
	return src, ok
}

// ResolvePrefix returns the SQL prefix for a table reference.
//
// Precedence: explicitAlias verbatim; "" when sourceID is unknown; the
// main table alias when isMainTable and mainTableAlias is set; otherwise the
// source's physical table name ("" while it is not loaded).
//
// ResolvePrefix is pure and never fails.
func ResolvePrefix(sources []queryopt.Source, sourceID, explicitAlias string, isMainTable bool, mainTableAlias string) string {
	return newCatalog(sources).resolvePrefix(sourceID, explicitAlias, isMainTable, mainTableAlias)
}

func (c catalog) resolvePrefix(sourceID, explicitAlias string, isMainTable bool, mainTableAlias string) string {
	if explicitAlias != "" {
		return explicitAlias
	}
	src, ok := c.lookup(sourceID)
	if !ok {
		return ""
	}
	if isMainTable && mainTableAlias != "" {
		return mainTableAlias
	}
	return src.Table()
}

// plannedJoin is a join that resolved to a source and kept at least one
// ON condition.
type plannedJoin struct {
	source  queryopt.Source
	alias   string
	keyword string
	on      []string
}

// scope holds everything resolved for one compile call. It is built fresh
// per call and never shared.
type scope struct {
	catalog   catalog
	query     queryopt.QueryOption
	main      queryopt.Source
	mainAlias string

	joins     []plannedJoin
	joinAlias map[string]string // source id -> alias of its first emitted join
	aliases   map[string]bool   // every table prefix visible in FROM/JOIN
}

// newScope resolves the main table and plans the joins.
// ok is false when the main table id is unknown.
func newScope(cat catalog, q queryopt.QueryOption) (*scope, bool) {
	main, ok := cat.lookup(q.Table)
	if !ok {
		return nil, false
	}

	s := &scope{
		catalog:   cat,
		query:     q,
		main:      main,
		mainAlias: q.TableAlias,
		joinAlias: make(map[string]string),
		aliases:   make(map[string]bool),
	}
	s.aliases[s.mainPrefix()] = true
	s.planJoins()
	return s, true
}

// mainPrefix is the prefix of every main-table column.
func (s *scope) mainPrefix() string {
	return s.catalog.resolvePrefix(s.main.ID, "", true, s.mainAlias)
}

// prefixFor resolves the prefix of a column owned by sourceID.
//
// Main-table columns always follow the current query alias, so a field
// picked before the alias was typed tracks it. Other columns prefer the
// stamped alias, then the alias their join was emitted under, then the
// stamped table name, then the catalog. A column that resolves nowhere
// falls back to the main table.
//
// The join alias wins over the stamped table name because once a table is
// joined under an alias its physical name is no longer a valid prefix.
func (s *scope) prefixFor(sourceID, tableName, tableAlias string) string {
	if sourceID != "" && sourceID == s.main.ID {
		if p := s.mainPrefix(); p != "" {
			return p
		}
	}
	if tableAlias != "" {
		return tableAlias
	}
	if alias, ok := s.joinAlias[sourceID]; ok {
		return alias
	}
	if tableName != "" {
		return tableName
	}
	if p := s.catalog.resolvePrefix(sourceID, "", false, ""); p != "" {
		return p
	}
	return s.mainPrefix()
}

// planJoins assigns aliases and renders ON terms for every join, in order.
// Joins with an unknown table or no usable condition are dropped and do not
// reserve a name. An unaliased join whose table is already in scope, or
// whose name is taken as an alias, gets the next free t<N>.
func (s *scope) planJoins() {
	names := map[string]string{s.main.Table(): s.mainPrefix()} // physical name -> alias
	counter := 0

	for _, jc := range s.query.Joins {
		src, ok := s.catalog.lookup(jc.Table)
		if !ok {
			continue
		}

		name := src.Table()
		alias := jc.TableAlias
		next := counter
		synthesized := false
		if alias == "" {
			if _, seen := names[name]; seen || s.aliases[name] {
				next++
				for s.aliases["t"+strconv.Itoa(next)] {
					next++
				}
				alias = "t" + strconv.Itoa(next)
				synthesized = true
			} else {
				alias = name
			}
		}

		pj := plannedJoin{
			source:  src,
			alias:   alias,
			keyword: joinKeyword(jc.Type),
		}
		pj.on = s.joinConditions(jc, pj)
		if len(pj.on) == 0 {
			continue
		}

		if synthesized {
			counter = next
		}
		names[name] = alias
		if _, ok := s.joinAlias[jc.Table]; !ok {
			s.joinAlias[jc.Table] = alias
		}
		s.aliases[alias] = true
		s.joins = append(s.joins, pj)
	}
}

// joinConditions renders the usable ON terms of one join.
func (s *scope) joinConditions(jc queryopt.JoinConfig, current plannedJoin) []string {
	var terms []string
	for _, cond := range jc.Conditions {
		if cond.LeftField == "" || cond.RightField == "" || cond.Operator == "" {
			continue
		}
		op, ok := comparisonOp(cond.Operator)
		if !ok {
			op = "="
		}
		left := s.joinSidePrefix(jc, current, false, cond.LeftTable, cond.LeftTableName, cond.LeftTableAlias)
		right := s.joinSidePrefix(jc, current, true, cond.RightTable, cond.RightTableName, cond.RightTableAlias)
		terms = append(terms, qualify(left, cond.LeftField)+" "+op+" "+qualify(right, cond.RightField))
	}
	return terms
}

// joinSidePrefix resolves one side of an ON term: stamped alias, then the
// tables already in scope (this join, the main table, an earlier join), the
// stamped table name and finally the catalog.
//
// For a self-join both sides carry the same id. The right side is read as
// the table being joined and the left side as the one already present.
func (s *scope) joinSidePrefix(jc queryopt.JoinConfig, current plannedJoin, right bool, tableID, tableName, tableAlias string) string {
	if tableAlias != "" {
		return tableAlias
	}
	if right && tableID == jc.Table {
		return current.alias
	}
	if tableID == s.main.ID {
		return s.mainPrefix()
	}
	if alias, ok := s.joinAlias[tableID]; ok {
		return alias
	}
	if tableID == jc.Table {
		return current.alias
	}
	if tableName != "" {
		return tableName
	}
	return s.catalog.resolvePrefix(tableID, "", false, "")
}

// sourceByReference finds a source whose table name, id or display name
// equals ref.
func (s *scope) sourceByReference(ref string) (queryopt.Source, bool) {
	for _, src := range s.catalog.list {
		if src.Table() == ref {
			return src, true
		}
	}
	for _, src := range s.catalog.list {
		if src.ID == ref || strings.EqualFold(src.Name, ref) {
			return src, true
		}
	}
	return queryopt.Source{}, false
}

// qualify joins a prefix and a column. An empty prefix leaves the column
// bare rather than emitting ".column".
func qualify(prefix, column string) string {
	if prefix == "" {
		return column
	}
	return prefix + "." + column
}

// quoteAlias double-quotes an alias containing anything outside
// [A-Za-z0-9_]. Embedded double quotes are doubled.
func quoteAlias(alias string) string {
	for _, r := range alias {
		if !isIdentRune(r) {
			return `"` + strings.ReplaceAll(alias, `"`, `""`) + `"`
		}
	}
	return alias
}

func isIdentRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
