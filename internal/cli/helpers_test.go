package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const ordersDocument = `sources:
  - {id: s1, name: Orders, table_name: orders}
  - {id: s2, name: Customers, table_name: customers}
query:
  table: s1
  fields:
    - {field_name: id, field_mapping: id, source_id: s1}
  limit: 10
`

const draftDocument = `sources:
  - {id: s1, name: Orders, table_name: orders}
query:
  table: s1
`

const unknownTableDocument = `sources:
  - {id: s1, name: Orders, table_name: orders}
query:
  table: s9
  fields:
    - {field_name: id, field_mapping: id, source_id: s9}
`

// executeCommand runs the root command with args and captures both streams.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeCommandWithInput(t, "", args...)
}

// executeCommandWithInput is executeCommand with stdin set to input.
func executeCommandWithInput(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(EnvDatabase, "")

	cmd := NewRootCommand()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeFile writes content to name inside dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// decodeResponse decodes a JSON envelope with a map payload.
func decodeResponse(t *testing.T, out string) (CLIResponse, map[string]any) {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	data, _ := resp.Data.(map[string]any)
	return resp, data
}

// tempDatabase returns a catalog path in a fresh temp dir.
func tempDatabase(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "catalog.db")
}
