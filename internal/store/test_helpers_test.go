package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/roach88/optsql/internal/queryopt"
)

// createTestStore opens a fresh store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestQuery builds a small two-table query option.
func createTestQuery(limit int) queryopt.QueryOption {
	return queryopt.QueryOption{
		Table: "orders",
		Fields: []queryopt.FieldConfig{
			{FieldName: "id", FieldMapping: "id", SourceID: "orders"},
		},
		Joins: []queryopt.JoinConfig{{
			Table: "customers",
			Type:  queryopt.JoinLeft,
			Conditions: []queryopt.JoinCondition{{
				LeftTable: "orders", LeftField: "customer_id",
				RightTable: "customers", RightField: "id",
				Operator: queryopt.OpEq,
			}},
		}},
		Limit: limit,
	}
}

// createExternalDB writes a SQLite file with the given tables.
func createExternalDB(t *testing.T, tables ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "external.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open external db: %v", err)
	}
	defer db.Close()

	for _, table := range tables {
		if _, err := db.Exec("CREATE TABLE " + table + " (id INTEGER PRIMARY KEY)"); err != nil {
			t.Fatalf("create table %s: %v", table, err)
		}
	}
	return path
}
