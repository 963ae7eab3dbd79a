package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// saveOrdersQuery compiles and saves the orders document, returning the
// saved id and fingerprint.
func saveOrdersQuery(t *testing.T, db string) (string, string) {
	t.Helper()
	path := writeFile(t, t.TempDir(), "orders.yaml", ordersDocument)

	stdout, _, err := executeCommand(t, "compile", path, "--save", "--name", "recent orders", "--db", db, "--format", "json")
	require.NoError(t, err)

	_, data := decodeResponse(t, stdout)
	id, _ := data["saved_id"].(string)
	fingerprint, _ := data["fingerprint"].(string)
	require.NotEmpty(t, id)
	return id, fingerprint
}

func TestQueries_ListEmpty(t *testing.T) {
	stdout, _, err := executeCommand(t, "queries", "list", "--db", tempDatabase(t))
	require.NoError(t, err)
	assert.Equal(t, "No saved queries.\n", stdout)
}

func TestQueries_ListFilterBySource(t *testing.T) {
	db := tempDatabase(t)
	id, _ := saveOrdersQuery(t, db)

	stdout, _, err := executeCommand(t, "queries", "list", "--db", db)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, id+"  recent orders"), "got %q", stdout)
	assert.True(t, strings.HasSuffix(stdout, " s1\n"), "got %q", stdout)

	stdout, _, err = executeCommand(t, "queries", "list", "--source", "s1", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, id)

	stdout, _, err = executeCommand(t, "queries", "list", "--source", "s2", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No saved queries.\n", stdout)
}

func TestQueries_Show(t *testing.T) {
	db := tempDatabase(t)
	id, fingerprint := saveOrdersQuery(t, db)

	stdout, _, err := executeCommand(t, "queries", "show", id, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "ID:          "+id+"\n")
	assert.Contains(t, stdout, "Name:        recent orders\n")
	assert.Contains(t, stdout, "Fingerprint: "+fingerprint+"\n")
	assert.Contains(t, stdout, "Sources:     s1\n")
	assert.True(t, strings.HasSuffix(stdout, "\nSELECT orders.id FROM orders LIMIT 10\n"), "got %q", stdout)
}

func TestQueries_ShowByFingerprint(t *testing.T) {
	db := tempDatabase(t)
	id, fingerprint := saveOrdersQuery(t, db)

	stdout, _, err := executeCommand(t, "queries", "show", fingerprint, "--db", db, "--format", "json")
	require.NoError(t, err)

	resp, data := decodeResponse(t, stdout)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, id, data["id"])
	assert.Equal(t, "SELECT orders.id FROM orders LIMIT 10", data["sql"])
}

func TestQueries_ShowMissing(t *testing.T) {
	stdout, _, err := executeCommand(t, "queries", "show", "ghost", "--db", tempDatabase(t))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E005]")
}

func TestQueries_Delete(t *testing.T) {
	db := tempDatabase(t)
	id, _ := saveOrdersQuery(t, db)

	stdout, _, err := executeCommand(t, "queries", "delete", id, "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "✓ Deleted query "+id+"\n", stdout)

	stdout, _, err = executeCommand(t, "queries", "list", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No saved queries.\n", stdout)

	_, _, err = executeCommand(t, "queries", "delete", id, "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
