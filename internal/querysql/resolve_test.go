package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/optsql/internal/queryopt"
)

func TestResolvePrefix(t *testing.T) {
	sources := append(testSources(), queryopt.Source{ID: "s5", Name: "Pending"})

	testCases := []struct {
		name           string
		sourceID       string
		explicitAlias  string
		isMainTable    bool
		mainTableAlias string
		want           string
	}{
		{"explicit alias wins", "s1", "x", true, "o", "x"},
		{"explicit alias for unknown source", "nope", "x", false, "", "x"},
		{"unknown source", "nope", "", true, "o", ""},
		{"main table alias", "s1", "", true, "o", "o"},
		{"main table without alias", "s1", "", true, "", "orders"},
		{"non-main ignores main alias", "s2", "", false, "o", "customers"},
		{"table name not loaded", "s5", "", false, "", ""},
		{"table name not loaded, main alias set", "s5", "", true, "p", "p"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolvePrefix(sources, tc.sourceID, tc.explicitAlias, tc.isMainTable, tc.mainTableAlias)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolvePrefix_FirstSourceWins(t *testing.T) {
	sources := []queryopt.Source{
		queryopt.NewSource("dup", "First", "first_table"),
		queryopt.NewSource("dup", "Second", "second_table"),
	}
	assert.Equal(t, "first_table", ResolvePrefix(sources, "dup", "", false, ""))
}

func TestQuoteAlias(t *testing.T) {
	testCases := []struct {
		alias string
		want  string
	}{
		{"total", "total"},
		{"Total_2", "Total_2"},
		{"Total Amount", `"Total Amount"`},
		{"a-b", `"a-b"`},
		{"café", `"café"`},
		{`say "hi"`, `"say ""hi"""`},
	}

	for _, tc := range testCases {
		t.Run(tc.alias, func(t *testing.T) {
			assert.Equal(t, tc.want, quoteAlias(tc.alias))
		})
	}
}

func TestQualify(t *testing.T) {
	assert.Equal(t, "o.id", qualify("o", "id"))
	assert.Equal(t, "id", qualify("", "id"))
}

func TestSourceByReference(t *testing.T) {
	s, ok := newScope(newCatalog(testSources()), queryopt.QueryOption{Table: "s1"})
	assert.True(t, ok)

	src, found := s.sourceByReference("customers")
	assert.True(t, found)
	assert.Equal(t, "s2", src.ID)

	src, found = s.sourceByReference("s3")
	assert.True(t, found)
	assert.Equal(t, "products", src.Table())

	src, found = s.sourceByReference("ORDERS")
	assert.True(t, found)
	assert.Equal(t, "s1", src.ID)

	_, found = s.sourceByReference("warehouse")
	assert.False(t, found)
}
