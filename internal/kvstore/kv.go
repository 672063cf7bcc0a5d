package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, timestamp(),
	)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Get returns the value stored under key. The second return value is false
// when the key is absent.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	ctx = ensureContext(ctx)
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv_entries WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Exists reports whether key is present. Presence alone is a protocol
// signal for marker keys; callers must not assume anything about the value.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	ctx = ensureContext(ctx)
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM kv_entries WHERE key = ?", key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %q: %w", key, err)
	}
	return true, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.execWithRetry(ctx, "DELETE FROM kv_entries WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Take reads and removes key in a single transaction. The second return
// value is false when the key was absent. A concurrent Take of the same
// key yields the value to exactly one caller.
func (s *Store) Take(ctx context.Context, key string) (string, bool, error) {
	ctx = ensureContext(ctx)
	var (
		value string
		found bool
	)
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		row := tx.QueryRowContext(ctx, "SELECT value FROM kv_entries WHERE key = ?", key)
		scanErr := row.Scan(&value)
		if errors.Is(scanErr, sql.ErrNoRows) {
			found = false
			return tx.Commit()
		}
		if scanErr != nil {
			return scanErr
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM kv_entries WHERE key = ?", key); err != nil {
			return err
		}
		found = true
		return tx.Commit()
	})
	if err != nil {
		return "", false, fmt.Errorf("take %q: %w", key, err)
	}
	if !found {
		return "", false, nil
	}
	return value, true, nil
}
