package queryopt

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FilterNode is one node of a filter tree.
//
// This is a sealed interface - only Condition and Group implement it.
type FilterNode interface {
	filterNode() // Marker method - seals interface to this package
}

// Node type discriminators used on the wire.
const (
	NodeCondition = "condition"
	NodeGroup     = "group"
)

// Condition operators. OpNone means "no condition chosen yet".
const (
	OpNone      = ""
	OpEq        = "EQ"
	OpNe        = "NE"
	OpGt        = "GT"
	OpGte       = "GTE"
	OpLt        = "LT"
	OpLte       = "LTE"
	OpLike      = "LIKE"
	OpIn        = "IN"
	OpNotIn     = "NOT_IN"
	OpBetween   = "BETWEEN"
	OpIsNull    = "IS_NULL"
	OpIsNotNull = "IS_NOT_NULL"
	OpRegexp    = "REGEXP"
)

// Logical operators for groups.
const (
	And = "AND"
	Or  = "OR"
)

// Condition is a leaf predicate.
//
// With CompareWithOtherField set the source field is compared to
// TargetField and Value is ignored.
type Condition struct {
	ID                    string          `json:"id"`
	Operator              string          `json:"operator"`
	Value                 any             `json:"value,omitempty"`
	SourceField           *FieldReference `json:"source_field,omitempty"`
	CompareWithOtherField bool            `json:"compare_with_other_field"`
	TargetField           *FieldReference `json:"target_field,omitempty"`
}

func (Condition) filterNode() {}

// Group combines its elements with Op (AND or OR).
type Group struct {
	ID       string       `json:"id"`
	Op       string       `json:"op"`
	Elements []FilterNode `json:"elements"`
}

func (Group) filterNode() {}

// MarshalJSON adds the "condition" type tag.
func (c Condition) MarshalJSON() ([]byte, error) {
	type plain Condition
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{Type: NodeCondition, plain: plain(c)})
}

// MarshalJSON adds the "group" type tag.
func (g Group) MarshalJSON() ([]byte, error) {
	elements := g.Elements
	if elements == nil {
		elements = []FilterNode{}
	}
	return json.Marshal(struct {
		Type     string       `json:"type"`
		ID       string       `json:"id"`
		Op       string       `json:"op"`
		Elements []FilterNode `json:"elements"`
	}{Type: NodeGroup, ID: g.ID, Op: g.Op, Elements: elements})
}

// UnmarshalJSON decodes elements through UnmarshalFilterNode.
func (g *Group) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       string            `json:"id"`
		Op       string            `json:"op"`
		Elements []json.RawMessage `json:"elements"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode group: %w", err)
	}

	g.ID = raw.ID
	g.Op = raw.Op
	g.Elements = make([]FilterNode, 0, len(raw.Elements))
	for i, elem := range raw.Elements {
		node, err := UnmarshalFilterNode(elem)
		if err != nil {
			return fmt.Errorf("elements[%d]: %w", i, err)
		}
		if node != nil {
			g.Elements = append(g.Elements, node)
		}
	}
	return nil
}

// UnmarshalFilterNode decodes one tagged filter node.
// JSON null decodes to a nil node; an unknown "type" is an error.
func UnmarshalFilterNode(data []byte) (FilterNode, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("decode filter node: %w", err)
	}

	switch tag.Type {
	case NodeCondition:
		type plain Condition
		var c plain
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decode condition: %w", err)
		}
		return Condition(c), nil
	case NodeGroup:
		var g Group
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown filter node type %q", tag.Type)
	}
}

// UnmarshalJSON decodes a query option, including its filter tree.
func (q *QueryOption) UnmarshalJSON(data []byte) error {
	type plain QueryOption
	var raw struct {
		plain
		Filters json.RawMessage `json:"filters"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode query option: %w", err)
	}

	filters, err := UnmarshalFilterNode(raw.Filters)
	if err != nil {
		return fmt.Errorf("filters: %w", err)
	}

	*q = QueryOption(raw.plain)
	q.Filters = filters
	return nil
}

// Walk visits every node of the tree depth-first, parents before children.
// Pointer nodes are visited as values.
func Walk(node FilterNode, visit func(FilterNode)) {
	switch n := node.(type) {
	case Condition:
		visit(n)
	case *Condition:
		if n != nil {
			visit(*n)
		}
	case Group:
		visit(n)
		for _, child := range n.Elements {
			Walk(child, visit)
		}
	case *Group:
		if n != nil {
			Walk(*n, visit)
		}
	}
}
