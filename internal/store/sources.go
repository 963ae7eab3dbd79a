package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/optsql/internal/queryopt"
)

// PutSource inserts a source, or updates name and table name when the id
// already exists. An update keeps the source's original position.
func (s *Store) PutSource(ctx context.Context, src queryopt.Source) error {
	if src.ID == "" {
		return fmt.Errorf("put source: empty id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put source: begin tx: %w", err)
	}
	defer tx.Rollback()

	seq, err := nextSeq(ctx, tx, "sources")
	if err != nil {
		return fmt.Errorf("put source: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sources (id, name, table_name, seq)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			table_name = excluded.table_name
	`, src.ID, src.Name, nullString(src.TableName), seq)
	if err != nil {
		return fmt.Errorf("put source: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put source: commit: %w", err)
	}

	s.log.Debug("source stored", zap.String("id", src.ID), zap.String("table", src.Table()))
	return nil
}

// PutSources stores every source in order.
func (s *Store) PutSources(ctx context.Context, sources []queryopt.Source) error {
	for _, src := range sources {
		if err := s.PutSource(ctx, src); err != nil {
			return err
		}
	}
	return nil
}

// GetSource returns the source with the given id, or ErrNotFound.
func (s *Store) GetSource(ctx context.Context, id string) (queryopt.Source, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, table_name FROM sources WHERE id = ?
	`, id)

	src, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return queryopt.Source{}, fmt.Errorf("source %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return queryopt.Source{}, fmt.Errorf("get source: %w", err)
	}
	return src, nil
}

// ListSources returns all sources in insertion order.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListSources(ctx context.Context) ([]queryopt.Source, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, table_name
		FROM sources
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	sources := []queryopt.Source{}
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}

	return sources, nil
}

// DeleteSource removes a source. Returns ErrNotFound if it does not exist.
// Saved queries that read from it are kept.
func (s *Store) DeleteSource(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("source %q: %w", id, ErrNotFound)
	}

	s.log.Debug("source deleted", zap.String("id", id))
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (queryopt.Source, error) {
	var (
		src       queryopt.Source
		tableName sql.NullString
	)
	if err := row.Scan(&src.ID, &src.Name, &tableName); err != nil {
		return queryopt.Source{}, err
	}
	if tableName.Valid {
		name := tableName.String
		src.TableName = &name
	}
	return src, nil
}
