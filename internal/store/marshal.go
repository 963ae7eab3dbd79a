package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/optsql/internal/canonical"
	"github.com/roach88/optsql/internal/queryopt"
)

// marshalOption converts a query option to canonical JSON TEXT for storage.
func marshalOption(q queryopt.QueryOption) (string, error) {
	data, err := canonical.Marshal(q)
	if err != nil {
		return "", fmt.Errorf("marshal option: %w", err)
	}
	return string(data), nil
}

// unmarshalOption parses stored JSON TEXT back into a query option.
func unmarshalOption(data string) (queryopt.QueryOption, error) {
	var q queryopt.QueryOption
	if err := json.Unmarshal([]byte(data), &q); err != nil {
		return queryopt.QueryOption{}, fmt.Errorf("unmarshal option: %w", err)
	}
	return q, nil
}

// nullString maps a nil pointer to NULL for nullable TEXT columns.
func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
