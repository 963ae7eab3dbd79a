package queryopt

import "strings"

// Source describes one queryable table.
//
// TableName is the physical SQL table name. It is nil while table metadata
// is still loading; consumers treat nil as the empty string.
type Source struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	TableName *string `json:"table_name"`
}

// Table returns the physical table name, or "" when it is not known yet.
func (s Source) Table() string {
	if s.TableName == nil {
		return ""
	}
	return *s.TableName
}

// NewSource builds a Source with a known physical table name.
func NewSource(id, name, tableName string) Source {
	return Source{ID: id, Name: name, TableName: &tableName}
}

// FieldReference identifies one physical column.
//
// TableName and TableAlias are captured when the field is picked so that
// later metadata changes do not silently re-point an earlier selection.
type FieldReference struct {
	SourceID     string `json:"source_id"`
	TableName    string `json:"table_name,omitempty"`
	TableAlias   string `json:"table_alias,omitempty"`
	FieldMapping string `json:"field_mapping"`
	FieldType    string `json:"field_type,omitempty"`
}

// Aggregate function names.
const (
	FuncSum   = "SUM"
	FuncCount = "COUNT"
	FuncAvg   = "AVG"
	FuncMin   = "MIN"
	FuncMax   = "MAX"
)

// AggregateFunctions lists the supported aggregate functions.
var AggregateFunctions = []string{FuncSum, FuncCount, FuncAvg, FuncMin, FuncMax}

// FieldConfig is one SELECT item.
type FieldConfig struct {
	FieldName    string `json:"field_name"`
	FieldMapping string `json:"field_mapping"`
	DataType     string `json:"data_type,omitempty"`
	Alias        string `json:"alias,omitempty"`
	Function     string `json:"function,omitempty"`
	SourceID     string `json:"source_id,omitempty"`
	TableName    string `json:"table_name,omitempty"`
	TableAlias   string `json:"table_alias,omitempty"`
	IsExpression bool   `json:"is_expression,omitempty"`
	Expression   string `json:"expression,omitempty"`
}

// IsAggregate reports whether the field applies an aggregate function.
func (f FieldConfig) IsAggregate() bool {
	return f.Function != ""
}

// Column returns the column the field refers to: the mapping when set,
// otherwise the display name.
func (f FieldConfig) Column() string {
	if f.FieldMapping != "" {
		return f.FieldMapping
	}
	return f.FieldName
}

// Join types.
const (
	JoinInner        = "INNER"
	JoinLeft         = "LEFT"
	JoinRight        = "RIGHT"
	JoinCross        = "CROSS"
	JoinNaturalLeft  = "NATURAL_LEFT"
	JoinNaturalRight = "NATURAL_RIGHT"
)

// JoinTypes lists the supported join types.
var JoinTypes = []string{JoinInner, JoinLeft, JoinRight, JoinCross, JoinNaturalLeft, JoinNaturalRight}

// JoinConfig joins one more source into the query.
type JoinConfig struct {
	Table      string          `json:"table"` // source id
	TableAlias string          `json:"table_alias,omitempty"`
	Type       string          `json:"type"`
	Conditions []JoinCondition `json:"conditions"`
}

// JoinCondition is one ON term. LeftTable and RightTable are source ids.
type JoinCondition struct {
	LeftTable       string `json:"left_table"`
	LeftField       string `json:"left_field"`
	LeftTableName   string `json:"left_table_name,omitempty"`
	LeftTableAlias  string `json:"left_table_alias,omitempty"`
	RightTable      string `json:"right_table"`
	RightField      string `json:"right_field"`
	RightTableName  string `json:"right_table_name,omitempty"`
	RightTableAlias string `json:"right_table_alias,omitempty"`
	Operator        string `json:"operator"`
}

// HavingEntry filters grouped rows on an aggregate.
//
// Value may be a string (rendered quoted) or a number or bool (rendered
// as written).
type HavingEntry struct {
	Function   string `json:"function"`
	Field      string `json:"field"`
	SourceID   string `json:"source_id,omitempty"`
	TableName  string `json:"table_name,omitempty"`
	TableAlias string `json:"table_alias,omitempty"`
	Operator   string `json:"operator"`
	Value      any    `json:"value,omitempty"`
}

// Sort directions.
const (
	Asc  = "ASC"
	Desc = "DESC"
)

// SortEntry orders the result by one field.
type SortEntry struct {
	Field      string `json:"field"`
	SourceID   string `json:"source_id,omitempty"`
	TableName  string `json:"table_name,omitempty"`
	TableAlias string `json:"table_alias,omitempty"`
	Direction  string `json:"direction"`
}

// QueryOption is the root query description.
//
// Table is the id of the main table. GroupBy holds raw "prefix.field"
// strings. Limit and Offset are emitted only when positive.
type QueryOption struct {
	Table      string        `json:"table"`
	TableAlias string        `json:"table_alias,omitempty"`
	Distinct   bool          `json:"distinct,omitempty"`
	Fields     []FieldConfig `json:"fields"`
	Joins      []JoinConfig  `json:"joins,omitempty"`
	Filters    FilterNode    `json:"filters,omitempty"`
	GroupBy    []string      `json:"group_by,omitempty"`
	Having     []HavingEntry `json:"having,omitempty"`
	Sort       []SortEntry   `json:"sort,omitempty"`
	Limit      int           `json:"limit,omitempty"`
	Offset     int           `json:"offset,omitempty"`
}

// HasAggregate reports whether any selected field is an aggregate.
func (q QueryOption) HasAggregate() bool {
	for _, f := range q.Fields {
		if f.IsAggregate() {
			return true
		}
	}
	return false
}

// FindField returns the first selected field whose mapping equals mapping.
func (q QueryOption) FindField(mapping string) (FieldConfig, bool) {
	for _, f := range q.Fields {
		if f.FieldMapping == mapping {
			return f, true
		}
	}
	return FieldConfig{}, false
}

// isOneOf reports whether s is in set, ignoring case.
func isOneOf(s string, set []string) bool {
	for _, v := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
