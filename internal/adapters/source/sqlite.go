package source

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/followrank/internal/domain/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS rankings (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT    NOT NULL UNIQUE,
	account_name TEXT    NOT NULL,
	store_name   TEXT    NOT NULL DEFAULT '',
	profile_url  TEXT    NOT NULL DEFAULT '',
	image_url    TEXT    NOT NULL DEFAULT '',
	followers    INTEGER NOT NULL,
	popularity   INTEGER NOT NULL DEFAULT 0,
	area         TEXT    NOT NULL DEFAULT ''
);`

// SQLiteSource reads the rankings table. Rows are returned in insertion order.
type SQLiteSource struct {
	db *sql.DB
}

// OpenSQLite opens path and creates the rankings table if needed.
func OpenSQLite(ctx context.Context, path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteSource{db: db}, nil
}

// Close closes the database.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

// Name implements Source.
func (s *SQLiteSource) Name() string { return "sqlite" }

// Fetch implements Source.
func (s *SQLiteSource) Fetch(ctx context.Context) ([]model.RankedEntity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_name, store_name, profile_url, image_url, followers, popularity, area
		FROM rankings ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("%w: query rankings: %v", ErrFetch, err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.RankedEntity{}
	for rows.Next() {
		var e model.RankedEntity
		if err := rows.Scan(&e.ID, &e.DisplayName, &e.Attributes.SecondaryLabel, &e.Attributes.ProfileURL,
			&e.Attributes.ImageURL, &e.MetricValue, &e.Attributes.Popularity, &e.Category); err != nil {
			return nil, fmt.Errorf("%w: scan ranking: %v", ErrFetch, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate rankings: %v", ErrFetch, err)
	}
	return out, nil
}

// Import replaces the table contents with entities in one transaction.
// Entities are validated first, so a malformed list leaves the table untouched.
func (s *SQLiteSource) Import(ctx context.Context, entities []model.RankedEntity) error {
	if err := model.Validate(entities); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rankings`); err != nil {
		return fmt.Errorf("clear rankings: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rankings (id, account_name, store_name, profile_url, image_url, followers, popularity, area)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entities {
		if _, err := stmt.ExecContext(ctx, e.ID, e.DisplayName, e.Attributes.SecondaryLabel, e.Attributes.ProfileURL,
			e.Attributes.ImageURL, e.MetricValue, e.Attributes.Popularity, e.Category); err != nil {
			return fmt.Errorf("insert %q: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// Count returns the number of stored rows.
func (s *SQLiteSource) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rankings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rankings: %w", err)
	}
	return n, nil
}
