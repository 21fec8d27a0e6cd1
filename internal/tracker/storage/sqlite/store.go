// Package sqlite provides a SQLite-backed collection name index.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/collectiontracker/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/collectiontracker/internal/tracker/domain"
	"github.com/louisbranch/collectiontracker/internal/tracker/storage"
	"github.com/louisbranch/collectiontracker/internal/tracker/storage/sqlite/migrations"
	"golang.org/x/text/cases"
	_ "modernc.org/sqlite"
)

// Store persists the collection name index in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite name index and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// foldName lowercases with full Unicode case folding. SQLite's LOWER only
// handles ASCII, so matching happens against a folded column written here.
func foldName(name string) string {
	return cases.Fold().String(name)
}

// escapeLike escapes LIKE wildcards so search terms match literally.
func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}

// Upsert stores or replaces the display name of a collection.
func (s *Store) Upsert(ctx context.Context, collectionID, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	collectionID = domain.NormalizeID(collectionID)
	name = strings.TrimSpace(name)
	if collectionID == "" {
		return fmt.Errorf("collection id is required")
	}
	if name == "" {
		return fmt.Errorf("collection name is required")
	}

	now := time.Now().UTC().UnixMilli()
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO collections (id, name, name_folded, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    name_folded = excluded.name_folded,
    updated_at = excluded.updated_at
`, collectionID, name, foldName(name), now, now)
	if err != nil {
		return fmt.Errorf("upsert collection: %w", err)
	}
	return nil
}

// Name returns the stored display name of a collection.
func (s *Store) Name(ctx context.Context, collectionID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s == nil || s.sqlDB == nil {
		return "", fmt.Errorf("storage is not configured")
	}
	collectionID = domain.NormalizeID(collectionID)
	if collectionID == "" {
		return "", fmt.Errorf("collection id is required")
	}

	var name string
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT name FROM collections WHERE id = ?", collectionID).Scan(&name)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("query collection name: %w", err)
	}
	return name, nil
}

// Search returns collections whose name contains term, case-insensitively,
// ordered by name and capped at limit rows.
func (s *Store) Search(ctx context.Context, term string, limit int) ([]domain.CollectionRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("search term is required")
	}
	if limit <= 0 {
		limit = 400
	}

	pattern := "%" + escapeLike(foldName(term)) + "%"
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, name FROM collections
WHERE name_folded LIKE ? ESCAPE '\'
ORDER BY name ASC
LIMIT ?
`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search collections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []domain.CollectionRef
	for rows.Next() {
		var ref domain.CollectionRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("scan collection row: %w", err)
		}
		matches = append(matches, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collection rows: %w", err)
	}
	return matches, nil
}
