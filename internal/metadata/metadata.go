// Package metadata persists MediaItem records in SQLite.
//
// Records are write-once: created when content is first stored, read by
// status, accounting, and deletion flows, and removed only by the deletion
// cascade. No partial updates exist.
package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound reports a lookup for an identifier with no stored record.
var ErrNotFound = errors.New("media item not found")

// Item is the metadata record for one stored media item.
type Item struct {
	// Identifier is derived from the content hash; unique and immutable.
	Identifier string
	// OriginalFilename is "<identifier>.<extension>".
	OriginalFilename string
	// Compression is the byte size of the original stored file at creation
	// time. Compression accounting reads it, nothing rewrites it.
	Compression int64
	// SourceIP is the caller's resolved address, kept for abuse tracking.
	SourceIP  string
	CreatedAt time.Time
}

// Extension returns the item's original file extension.
func (i *Item) Extension() string {
	idx := strings.LastIndexByte(i.OriginalFilename, '.')
	if idx < 0 || idx == len(i.OriginalFilename)-1 {
		return ""
	}
	return strings.ToLower(i.OriginalFilename[idx+1:])
}

// Store manages media item persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the media item database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("metadata: database path must be set")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	schema := `CREATE TABLE IF NOT EXISTS media_items (
        identifier        TEXT PRIMARY KEY,
        original_filename TEXT NOT NULL,
        compression       INTEGER NOT NULL,
        source_ip         TEXT NOT NULL,
        created_at        TEXT NOT NULL
    )`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create media_items table: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save inserts a new media item. Identifiers are unique; saving an existing
// identifier is an error because records are write-once.
func (s *Store) Save(ctx context.Context, item *Item) error {
	if item == nil || item.Identifier == "" {
		return errors.New("metadata: item with identifier required")
	}
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO media_items (identifier, original_filename, compression, source_ip, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		item.Identifier,
		item.OriginalFilename,
		item.Compression,
		item.SourceIP,
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert media item %s: %w", item.Identifier, err)
	}
	return nil
}

// GetByIdentifier loads a media item, or ErrNotFound.
func (s *Store) GetByIdentifier(ctx context.Context, identifier string) (*Item, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT identifier, original_filename, compression, source_ip, created_at
         FROM media_items WHERE identifier = ?`,
		identifier,
	)

	var (
		item      Item
		createdAt string
	)
	err := row.Scan(&item.Identifier, &item.OriginalFilename, &item.Compression, &item.SourceIP, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", identifier, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load media item %s: %w", identifier, err)
	}
	if parsed, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
		item.CreatedAt = parsed
	}
	return &item, nil
}

// Delete removes a media item record. Deleting an absent record is not an
// error; the deletion cascade may retry after a partial failure.
func (s *Store) Delete(ctx context.Context, identifier string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM media_items WHERE identifier = ?", identifier)
	if err != nil {
		return fmt.Errorf("delete media item %s: %w", identifier, err)
	}
	return nil
}
