// Package queryopt defines the query option: the structured, UI-editable
// description of a SELECT statement that optsql compiles to SQL text.
//
// A QueryOption is rooted at one main table (a Source id) and carries the
// selected fields, joins, a filter tree, grouping, having entries, sort
// entries and pagination. The UI layer owns and mutates it; everything in
// this repository treats it as an immutable snapshot.
//
// FILTER TREES:
//
// FilterNode is a sealed interface using the marker method pattern. Only
// Condition and Group implement it, so backends can switch exhaustively:
//
//	switch n := node.(type) {
//	case Condition:
//	    // leaf predicate
//	case Group:
//	    // AND / OR over n.Elements
//	}
//
// Both value and pointer forms are accepted by consumers. On the wire a node
// carries a "type" discriminator ("condition" or "group"); see
// UnmarshalFilterNode.
//
// IN-PROGRESS INPUT:
//
// Query options are edited continuously, so most fields may be empty at any
// moment. Types here never reject partial input. Validate reports what is
// missing without failing; only the compiler's main-table lookup is a hard
// error.
package queryopt
