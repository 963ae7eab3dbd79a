package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/optsql/internal/queryopt"
)

// DiscoverSources reads the table and view names of another SQLite database
// and returns one source per name. The id and table name are the physical
// name; the display name is derived with DisplayName.
//
// The database is opened read-only and never modified.
func DiscoverSources(ctx context.Context, path string) ([]queryopt.Source, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("discover sources: open: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("discover sources: %s: %w", path, err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("discover sources: list tables: %w", err)
	}
	defer rows.Close()

	sources := []queryopt.Source{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("discover sources: scan: %w", err)
		}
		sources = append(sources, queryopt.NewSource(name, DisplayName(name), name))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("discover sources: iterate: %w", err)
	}

	return sources, nil
}

// ImportSources discovers the tables of the SQLite database at path and
// stores a source for each.
func (s *Store) ImportSources(ctx context.Context, path string) ([]queryopt.Source, error) {
	sources, err := DiscoverSources(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := s.PutSources(ctx, sources); err != nil {
		return nil, fmt.Errorf("import sources: %w", err)
	}

	s.log.Info("sources imported", zap.String("path", path), zap.Int("count", len(sources)))
	return sources, nil
}

// DisplayName turns a physical table name into a title-cased label:
// "order_items" becomes "Order Items".
func DisplayName(table string) string {
	words := strings.FieldsFunc(table, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == ' '
	})
	return cases.Title(language.English).String(strings.Join(words, " "))
}
