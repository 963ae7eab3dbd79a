package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_Text(t *testing.T) {
	path := writeFile(t, t.TempDir(), "orders.yaml", ordersDocument)

	stdout, stderr, err := executeCommand(t, "compile", path)
	require.NoError(t, err)
	assert.Equal(t, "SELECT orders.id FROM orders LIMIT 10\n", stdout)
	assert.Empty(t, stderr)
}

func TestCompile_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "orders.yaml", ordersDocument)

	stdout, _, err := executeCommand(t, "compile", path, "--format", "json")
	require.NoError(t, err)

	resp, data := decodeResponse(t, stdout)
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
	assert.Equal(t, "SELECT orders.id FROM orders LIMIT 10", data["sql"])
	assert.Len(t, data["fingerprint"], 64)
	assert.Len(t, data["sources_fingerprint"], 64)
	assert.NotEqual(t, data["fingerprint"], data["sources_fingerprint"])
	assert.Len(t, data["clauses"], 3)

	report, ok := data["report"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, report["complete"])
	assert.NotContains(t, data, "check")
	assert.NotContains(t, data, "saved_id")
}

func TestCompile_IncompleteStillCompiles(t *testing.T) {
	path := writeFile(t, t.TempDir(), "draft.yaml", draftDocument)

	stdout, stderr, err := executeCommand(t, "compile", path)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders\n", stdout)
	assert.Contains(t, stderr, "Query is incomplete (1 issue(s))")
	assert.Contains(t, stderr, "[Q103]")
}

func TestCompile_Strict(t *testing.T) {
	path := writeFile(t, t.TempDir(), "draft.yaml", draftDocument)

	stdout, _, err := executeCommand(t, "compile", path, "--strict")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeIncomplete)
	assert.Contains(t, stdout, "✗ Query is incomplete")
}

func TestCompile_StrictJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "draft.yaml", draftDocument)

	stdout, _, err := executeCommand(t, "compile", path, "--strict", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp, data := decodeResponse(t, stdout)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeIncomplete, resp.Error.Code)
	assert.Equal(t, "SELECT * FROM orders", data["sql"])
}

func TestCompile_UnknownMainTable(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", unknownTableDocument)

	stdout, _, err := executeCommand(t, "compile", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E010]")
	assert.Contains(t, stdout, `main table not found: "s9"`)
}

func TestCompile_MissingDocument(t *testing.T) {
	_, _, err := executeCommand(t, "compile", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCompile_UnsupportedExtension(t *testing.T) {
	path := writeFile(t, t.TempDir(), "query.toml", "table = 's1'")

	stdout, _, err := executeCommand(t, "compile", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, ErrCodeBadFormat)
}

func TestCompile_Check(t *testing.T) {
	path := writeFile(t, t.TempDir(), "orders.yaml", ordersDocument)

	stdout, _, err := executeCommand(t, "compile", path, "--check", "--format", "json")
	require.NoError(t, err)

	_, data := decodeResponse(t, stdout)
	check, ok := data["check"].(map[string]any)
	require.True(t, ok, "check result missing: %s", stdout)
	assert.Equal(t, true, check["valid"])
}

func TestCompile_Output(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "orders.yaml", ordersDocument)
	out := filepath.Join(dir, "orders.sql")

	stdout, stderr, err := executeCommand(t, "compile", path, "-o", out)
	require.NoError(t, err)
	assert.Equal(t, "SELECT orders.id FROM orders LIMIT 10\n", stdout)
	assert.Contains(t, stderr, "Wrote SQL to "+out)

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "SELECT orders.id FROM orders LIMIT 10\n", string(written))
}

func TestCompile_SaveRequiresDatabase(t *testing.T) {
	path := writeFile(t, t.TempDir(), "orders.yaml", ordersDocument)

	_, _, err := executeCommand(t, "compile", path, "--save")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNoDatabase)
}

func TestCompile_Save(t *testing.T) {
	path := writeFile(t, t.TempDir(), "recent-orders.yaml", ordersDocument)
	db := tempDatabase(t)

	_, stderr, err := executeCommand(t, "compile", path, "--save", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Saved query ")

	stdout, _, err := executeCommand(t, "queries", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "recent-orders")

	stdout, _, err = executeCommand(t, "sources", "list", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(stdout, "\n"))
}

func TestCompile_SaveIsIdempotent(t *testing.T) {
	path := writeFile(t, t.TempDir(), "orders.yaml", ordersDocument)
	db := tempDatabase(t)

	first, _, err := executeCommand(t, "compile", path, "--save", "--name", "first", "--db", db, "--format", "json")
	require.NoError(t, err)
	second, _, err := executeCommand(t, "compile", path, "--save", "--name", "second", "--db", db, "--format", "json")
	require.NoError(t, err)

	_, a := decodeResponse(t, first)
	_, b := decodeResponse(t, second)
	assert.NotEmpty(t, a["saved_id"])
	assert.Equal(t, a["saved_id"], b["saved_id"])
}

func TestCompile_Verbose(t *testing.T) {
	path := writeFile(t, t.TempDir(), "orders.yaml", ordersDocument)

	stdout, stderr, err := executeCommand(t, "compile", path, "-v")
	require.NoError(t, err)
	assert.Equal(t, "SELECT orders.id FROM orders LIMIT 10\n", stdout)
	assert.Contains(t, stderr, "Loaded 2 source(s)")
	assert.Contains(t, stderr, "query compiled")
}

func TestCompile_Stdin(t *testing.T) {
	stdout, _, err := executeCommandWithInput(t, ordersDocument, "compile", "-")
	require.NoError(t, err)
	assert.Equal(t, "SELECT orders.id FROM orders LIMIT 10\n", stdout)
}

func TestCompile_StdinJSON(t *testing.T) {
	input := `{"sources":[{"id":"s1","name":"Orders","table_name":"orders"}],"query":{"table":"s1"}}`

	stdout, _, err := executeCommandWithInput(t, input, "compile", "-")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders\n", stdout)
}

func TestCompile_StdinSaveDefaultName(t *testing.T) {
	db := tempDatabase(t)

	_, _, err := executeCommandWithInput(t, ordersDocument, "compile", "-", "--save", "--db", db)
	require.NoError(t, err)

	stdout, _, err := executeCommand(t, "queries", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "  stdin ")
}

func TestCompile_SourcesFingerprintTracksCatalog(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", ordersDocument)
	b := writeFile(t, dir, "b.yaml", strings.Replace(ordersDocument, "table_name: customers", "table_name: clients", 1))

	outA, _, err := executeCommand(t, "compile", a, "--format", "json")
	require.NoError(t, err)
	outB, _, err := executeCommand(t, "compile", b, "--format", "json")
	require.NoError(t, err)

	_, dataA := decodeResponse(t, outA)
	_, dataB := decodeResponse(t, outB)
	assert.Equal(t, dataA["fingerprint"], dataB["fingerprint"], "query option is unchanged")
	assert.NotEqual(t, dataA["sources_fingerprint"], dataB["sources_fingerprint"])
}
