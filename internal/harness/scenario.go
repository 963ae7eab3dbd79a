package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/optsql/internal/document"
)

// Scenario defines one compile scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Document is a path to a JSON, YAML or CUE document holding sources
	// and query. Relative paths resolve against the scenario file.
	// Mutually exclusive with Query.
	Document string `yaml:"document,omitempty"`

	// Sources is the inline source catalog.
	Sources []map[string]any `yaml:"sources,omitempty"`

	// Query is the inline query option, in the same shape as the JSON
	// document format.
	Query map[string]any `yaml:"query,omitempty"`

	// Expect holds the expectations checked after compiling.
	Expect Expect `yaml:"expect"`
}

// Expect lists what a scenario's compiled output must satisfy.
// Unset fields are not checked.
type Expect struct {
	SQL         string   `yaml:"sql,omitempty"`
	Contains    []string `yaml:"contains,omitempty"`
	NotContains []string `yaml:"not_contains,omitempty"`
	Error       string   `yaml:"error,omitempty"`
	Parses      *bool    `yaml:"parses,omitempty"`
	Complete    *bool    `yaml:"complete,omitempty"`
	Issues      []string `yaml:"issues,omitempty"`
	Tables      []string `yaml:"tables,omitempty"` // tables named in FROM and JOIN, in order
}

// isEmpty reports whether no expectation is set.
func (e Expect) isEmpty() bool {
	return e.SQL == "" && len(e.Contains) == 0 && len(e.NotContains) == 0 &&
		e.Error == "" && e.Parses == nil && e.Complete == nil && e.Issues == nil && e.Tables == nil
}

// checksSQL reports whether any expectation inspects the compiled SQL.
func (e Expect) checksSQL() bool {
	return e.SQL != "" || len(e.Contains) > 0 || len(e.NotContains) > 0 || e.Parses != nil || e.Tables != nil
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Document != "" && !filepath.IsAbs(scenario.Document) {
		scenario.Document = filepath.Join(filepath.Dir(path), scenario.Document)
	}
	if scenario.Document != "" {
		if _, err := os.Stat(scenario.Document); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: document not found: %s", scenario.Document)
		}
	}

	return scenario, nil
}

// ParseScenario decodes a scenario from YAML bytes. Document paths are
// left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "not_contain:" vs "not_contains:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Document == "" && s.Query == nil:
		return fmt.Errorf("either document or query is required")
	case s.Document != "" && (s.Query != nil || s.Sources != nil):
		return fmt.Errorf("document cannot be combined with inline sources or query")
	}

	if s.Expect.isEmpty() {
		return fmt.Errorf("expect must set at least one expectation")
	}

	if s.Expect.Error != "" && s.Expect.checksSQL() {
		return fmt.Errorf("expect.error cannot be combined with sql, contains, not_contains, parses or tables")
	}

	return nil
}

// document builds the document the scenario compiles.
func (s *Scenario) document() (*document.Document, error) {
	if s.Document != "" {
		return document.Load(s.Document)
	}

	sources := make([]any, len(s.Sources))
	for i, src := range s.Sources {
		sources[i] = src
	}
	return document.FromValue(map[string]any{
		"sources": sources,
		"query":   s.Query,
	})
}
