package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roach88/optsql/internal/canonical"
	"github.com/roach88/optsql/internal/queryopt"
)

// SavedQuery is a stored query option together with the SQL it compiled to.
type SavedQuery struct {
	ID          string               `json:"id"`
	Fingerprint string               `json:"fingerprint"`
	Name        string               `json:"name"`
	Query       queryopt.QueryOption `json:"query"`
	SQL         string               `json:"sql"`
	Seq         int64                `json:"seq"`
	SourceIDs   []string             `json:"source_ids"`
}

// SaveQuery stores a query option and its compiled SQL.
//
// Saving is idempotent on the option's fingerprint: if an identical option
// is already stored, the existing record is returned with inserted=false
// and name and sql are left untouched.
func (s *Store) SaveQuery(ctx context.Context, name string, q queryopt.QueryOption, compiled string) (saved SavedQuery, inserted bool, err error) {
	fingerprint, err := canonical.QueryFingerprint(q)
	if err != nil {
		return SavedQuery{}, false, fmt.Errorf("save query: %w", err)
	}
	optionJSON, err := marshalOption(q)
	if err != nil {
		return SavedQuery{}, false, fmt.Errorf("save query: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SavedQuery{}, false, fmt.Errorf("save query: begin tx: %w", err)
	}
	defer tx.Rollback()

	seq, err := nextSeq(ctx, tx, "saved_queries")
	if err != nil {
		return SavedQuery{}, false, fmt.Errorf("save query: %w", err)
	}

	id := uuid.Must(uuid.NewV7()).String()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO saved_queries (id, fingerprint, name, option, sql, seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`, id, fingerprint, name, optionJSON, compiled, seq)
	if err != nil {
		return SavedQuery{}, false, fmt.Errorf("save query: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return SavedQuery{}, false, fmt.Errorf("save query: rows affected: %w", err)
	}
	inserted = rows > 0

	if inserted {
		for i, sourceID := range referencedSources(q) {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO query_sources (query_id, source_id, position) VALUES (?, ?, ?)
			`, id, sourceID, i); err != nil {
				return SavedQuery{}, false, fmt.Errorf("save query: link source %q: %w", sourceID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return SavedQuery{}, false, fmt.Errorf("save query: commit: %w", err)
	}

	saved, err = s.getQuery(ctx, "fingerprint", fingerprint)
	if err != nil {
		return SavedQuery{}, false, fmt.Errorf("save query: %w", err)
	}

	s.log.Debug("query saved",
		zap.String("id", saved.ID),
		zap.String("fingerprint", fingerprint),
		zap.Bool("inserted", inserted))
	return saved, inserted, nil
}

// GetQuery returns the saved query with the given id, or ErrNotFound.
func (s *Store) GetQuery(ctx context.Context, id string) (SavedQuery, error) {
	return s.getQuery(ctx, "id", id)
}

// GetQueryByFingerprint returns the saved query with the given fingerprint,
// or ErrNotFound.
func (s *Store) GetQueryByFingerprint(ctx context.Context, fingerprint string) (SavedQuery, error) {
	return s.getQuery(ctx, "fingerprint", fingerprint)
}

func (s *Store) getQuery(ctx context.Context, column, value string) (SavedQuery, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, fingerprint, name, option, sql, seq
		FROM saved_queries WHERE %s = ?
	`, column), value)

	saved, err := scanSavedQuery(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedQuery{}, fmt.Errorf("query %s %q: %w", column, value, ErrNotFound)
	}
	if err != nil {
		return SavedQuery{}, fmt.Errorf("get query: %w", err)
	}

	saved.SourceIDs, err = s.querySources(ctx, saved.ID)
	if err != nil {
		return SavedQuery{}, err
	}
	return saved, nil
}

// ListQueries returns all saved queries in save order.
// A non-empty sourceID restricts the list to queries that read from it.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListQueries(ctx context.Context, sourceID string) ([]SavedQuery, error) {
	query := `
		SELECT id, fingerprint, name, option, sql, seq
		FROM saved_queries
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`
	args := []any{}
	if sourceID != "" {
		query = `
			SELECT q.id, q.fingerprint, q.name, q.option, q.sql, q.seq
			FROM saved_queries q
			WHERE EXISTS (
				SELECT 1 FROM query_sources qs
				WHERE qs.query_id = q.id AND qs.source_id = ?
			)
			ORDER BY q.seq ASC, q.id COLLATE BINARY ASC
		`
		args = append(args, sourceID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query saved queries: %w", err)
	}

	queries := []SavedQuery{}
	for rows.Next() {
		saved, err := scanSavedQuery(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan saved query: %w", err)
		}
		queries = append(queries, saved)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate saved queries: %w", err)
	}
	// Close before the follow-up reads: the pool holds a single connection.
	rows.Close()

	for i := range queries {
		queries[i].SourceIDs, err = s.querySources(ctx, queries[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return queries, nil
}

// DeleteQuery removes a saved query and its source links.
// Returns ErrNotFound if it does not exist.
func (s *Store) DeleteQuery(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM saved_queries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete query: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete query: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("query id %q: %w", id, ErrNotFound)
	}

	s.log.Debug("query deleted", zap.String("id", id))
	return nil
}

func (s *Store) querySources(ctx context.Context, queryID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_id FROM query_sources
		WHERE query_id = ?
		ORDER BY position ASC
	`, queryID)
	if err != nil {
		return nil, fmt.Errorf("query sources of %q: %w", queryID, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan query source: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate query sources: %w", err)
	}
	return ids, nil
}

func scanSavedQuery(row rowScanner) (SavedQuery, error) {
	var (
		saved      SavedQuery
		optionJSON string
	)
	if err := row.Scan(&saved.ID, &saved.Fingerprint, &saved.Name, &optionJSON, &saved.SQL, &saved.Seq); err != nil {
		return SavedQuery{}, err
	}
	q, err := unmarshalOption(optionJSON)
	if err != nil {
		return SavedQuery{}, err
	}
	saved.Query = q
	return saved, nil
}

// referencedSources lists the main table, each distinct join table and then
// the sources named by filter conditions, skipping empty ids.
func referencedSources(q queryopt.QueryOption) []string {
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}
	add(q.Table)
	for _, j := range q.Joins {
		add(j.Table)
	}
	queryopt.Walk(q.Filters, func(node queryopt.FilterNode) {
		c, ok := node.(queryopt.Condition)
		if !ok {
			return
		}
		if c.SourceField != nil {
			add(c.SourceField.SourceID)
		}
		if c.CompareWithOtherField && c.TargetField != nil {
			add(c.TargetField.SourceID)
		}
	})
	return ids
}
