package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/roach88/optsql/internal/canonical"
	"github.com/roach88/optsql/internal/queryopt"
)

func TestSaveQuery_Basic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	q := createTestQuery(10)

	saved, inserted, err := s.SaveQuery(ctx, "recent orders", q, "SELECT orders.id FROM orders LIMIT 10")
	if err != nil {
		t.Fatalf("SaveQuery() failed: %v", err)
	}
	if !inserted {
		t.Error("inserted = false on first save, want true")
	}

	parsed, err := uuid.Parse(saved.ID)
	if err != nil {
		t.Fatalf("id %q is not a UUID: %v", saved.ID, err)
	}
	if parsed.Version() != 7 {
		t.Errorf("uuid version = %d, want 7", parsed.Version())
	}

	if want := canonical.MustQueryFingerprint(q); saved.Fingerprint != want {
		t.Errorf("fingerprint = %q, want %q", saved.Fingerprint, want)
	}
	if saved.Name != "recent orders" {
		t.Errorf("name = %q, want %q", saved.Name, "recent orders")
	}
	if saved.SQL != "SELECT orders.id FROM orders LIMIT 10" {
		t.Errorf("sql = %q", saved.SQL)
	}
	if !reflect.DeepEqual(saved.Query, q) {
		t.Errorf("query round trip mismatch:\n got %+v\nwant %+v", saved.Query, q)
	}
	if want := []string{"orders", "customers"}; !reflect.DeepEqual(saved.SourceIDs, want) {
		t.Errorf("SourceIDs = %v, want %v", saved.SourceIDs, want)
	}
}

func TestSaveQuery_IdempotentOnFingerprint(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	q := createTestQuery(10)

	first, _, err := s.SaveQuery(ctx, "first", q, "SELECT 1")
	if err != nil {
		t.Fatalf("first SaveQuery() failed: %v", err)
	}

	second, inserted, err := s.SaveQuery(ctx, "second", q, "SELECT 2")
	if err != nil {
		t.Fatalf("second SaveQuery() failed: %v", err)
	}
	if inserted {
		t.Error("inserted = true for identical option, want false")
	}
	if second.ID != first.ID {
		t.Errorf("second save id = %q, want existing %q", second.ID, first.ID)
	}
	if second.Name != "first" || second.SQL != "SELECT 1" {
		t.Errorf("existing record was modified: %+v", second)
	}

	queries, err := s.ListQueries(ctx, "")
	if err != nil {
		t.Fatalf("ListQueries() failed: %v", err)
	}
	if len(queries) != 1 {
		t.Errorf("len(queries) = %d, want 1", len(queries))
	}
}

func TestGetQuery(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	saved, _, err := s.SaveQuery(ctx, "q", createTestQuery(5), "SELECT 1")
	if err != nil {
		t.Fatalf("SaveQuery() failed: %v", err)
	}

	got, err := s.GetQuery(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetQuery() failed: %v", err)
	}
	if !reflect.DeepEqual(got, saved) {
		t.Errorf("GetQuery() = %+v, want %+v", got, saved)
	}

	byFingerprint, err := s.GetQueryByFingerprint(ctx, saved.Fingerprint)
	if err != nil {
		t.Fatalf("GetQueryByFingerprint() failed: %v", err)
	}
	if byFingerprint.ID != saved.ID {
		t.Errorf("GetQueryByFingerprint().ID = %q, want %q", byFingerprint.ID, saved.ID)
	}

	if _, err := s.GetQuery(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetQuery(missing) error = %v, want ErrNotFound", err)
	}
}

func TestListQueries_OrderAndFilter(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a, _, err := s.SaveQuery(ctx, "a", createTestQuery(1), "SELECT 1")
	if err != nil {
		t.Fatalf("SaveQuery(a) failed: %v", err)
	}
	b, _, err := s.SaveQuery(ctx, "b", createTestQuery(2), "SELECT 2")
	if err != nil {
		t.Fatalf("SaveQuery(b) failed: %v", err)
	}
	c, _, err := s.SaveQuery(ctx, "c", queryopt.QueryOption{Table: "products"}, "SELECT 3")
	if err != nil {
		t.Fatalf("SaveQuery(c) failed: %v", err)
	}

	all, err := s.ListQueries(ctx, "")
	if err != nil {
		t.Fatalf("ListQueries() failed: %v", err)
	}
	gotIDs := []string{}
	for _, q := range all {
		gotIDs = append(gotIDs, q.ID)
	}
	if want := []string{a.ID, b.ID, c.ID}; !reflect.DeepEqual(gotIDs, want) {
		t.Errorf("ListQueries() ids = %v, want %v", gotIDs, want)
	}

	customers, err := s.ListQueries(ctx, "customers")
	if err != nil {
		t.Fatalf("ListQueries(customers) failed: %v", err)
	}
	if len(customers) != 2 || customers[0].ID != a.ID || customers[1].ID != b.ID {
		t.Errorf("ListQueries(customers) = %v, want a and b", customers)
	}

	none, err := s.ListQueries(ctx, "warehouse")
	if err != nil {
		t.Fatalf("ListQueries(warehouse) failed: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("ListQueries(warehouse) = %v, want empty slice", none)
	}
}

func TestDeleteQuery_CascadesSourceLinks(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	saved, _, err := s.SaveQuery(ctx, "q", createTestQuery(3), "SELECT 1")
	if err != nil {
		t.Fatalf("SaveQuery() failed: %v", err)
	}
	if err := s.DeleteQuery(ctx, saved.ID); err != nil {
		t.Fatalf("DeleteQuery() failed: %v", err)
	}

	var links int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM query_sources WHERE query_id = ?", saved.ID).Scan(&links); err != nil {
		t.Fatalf("count links: %v", err)
	}
	if links != 0 {
		t.Errorf("query_sources rows = %d after delete, want 0", links)
	}

	if err := s.DeleteQuery(ctx, saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteQuery() error = %v, want ErrNotFound", err)
	}
}

func TestReferencedSources(t *testing.T) {
	q := queryopt.QueryOption{
		Table: "a",
		Joins: []queryopt.JoinConfig{{Table: "b"}, {Table: "a"}, {Table: ""}, {Table: "c"}, {Table: "b"}},
	}
	if got, want := referencedSources(q), []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("referencedSources() = %v, want %v", got, want)
	}
}

func TestReferencedSources_FilterConditions(t *testing.T) {
	q := queryopt.QueryOption{
		Table: "a",
		Filters: queryopt.Group{Op: queryopt.And, Elements: []queryopt.FilterNode{
			queryopt.Condition{Operator: queryopt.OpEq, SourceField: &queryopt.FieldReference{SourceID: "d", FieldMapping: "x"}},
			queryopt.Group{Op: queryopt.Or, Elements: []queryopt.FilterNode{
				&queryopt.Condition{
					Operator:              queryopt.OpGt,
					SourceField:           &queryopt.FieldReference{SourceID: "a", FieldMapping: "y"},
					CompareWithOtherField: true,
					TargetField:           &queryopt.FieldReference{SourceID: "e", FieldMapping: "z"},
				},
				queryopt.Condition{
					Operator:    queryopt.OpEq,
					SourceField: &queryopt.FieldReference{SourceID: "d", FieldMapping: "w"},
					TargetField: &queryopt.FieldReference{SourceID: "ignored", FieldMapping: "v"},
				},
			}},
		}},
	}
	if got, want := referencedSources(q), []string{"a", "d", "e"}; !reflect.DeepEqual(got, want) {
		t.Errorf("referencedSources() = %v, want %v", got, want)
	}
}
