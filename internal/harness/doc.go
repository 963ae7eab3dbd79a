// Package harness runs compile scenarios against the query compiler.
//
// A scenario pairs a source catalog and a query option with expectations
// about the SQL that comes out.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: revenue_by_customer
//	description: "Aggregate with a join groups by the plain field"
//	sources:
//	  - {id: s1, name: Orders, table_name: orders}
//	  - {id: s2, name: Customers, table_name: customers}
//	query:
//	  table: s1
//	  fields:
//	    - {field_name: name, field_mapping: name, source_id: s2, table_alias: c}
//	  joins:
//	    - table: s2
//	      table_alias: c
//	      type: INNER
//	      conditions:
//	        - {left_table: s1, left_field: customer_id, right_table: s2, right_field: id, operator: EQ}
//	expect:
//	  sql: "SELECT c.name FROM orders INNER JOIN customers AS c ON orders.customer_id = c.id"
//	  parses: true
//
// Instead of inline sources and query a scenario may name a document file
// (JSON, YAML or CUE) with the document key. Relative paths resolve against
// the scenario file.
//
// # Expectations
//
//   - sql: the compiled statement must equal this string
//   - contains / not_contains: substrings that must (not) appear
//   - error: compilation must fail with a message containing this text
//   - parses: whether the MySQL-dialect parser accepts the statement
//   - complete / issues: the completeness report and its issue codes
//
// # Golden Files
//
// RunWithGolden stores the clause listing of a scenario under
// testdata/golden/{name}.golden as canonical JSON. Regenerate with
//
//	go test ./internal/harness -update
package harness
