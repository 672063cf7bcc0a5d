package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Push appends value to the tail of the named queue.
func (s *Store) Push(ctx context.Context, queue, value string) error {
	_, err := s.execWithRetry(
		ctx,
		"INSERT INTO queue_entries (queue, value, created_at) VALUES (?, ?, ?)",
		queue, value, timestamp(),
	)
	if err != nil {
		return fmt.Errorf("push to %q: %w", queue, err)
	}
	return nil
}

// Pop removes and returns the oldest entry of the named queue. The second
// return value is false when the queue is empty. Selection and removal run
// in one transaction, so concurrent consumers each receive distinct entries.
func (s *Store) Pop(ctx context.Context, queue string) (string, bool, error) {
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

		var id int64
		row := tx.QueryRowContext(ctx,
			"SELECT id, value FROM queue_entries WHERE queue = ? ORDER BY id LIMIT 1", queue)
		scanErr := row.Scan(&id, &value)
		if errors.Is(scanErr, sql.ErrNoRows) {
			found = false
			return tx.Commit()
		}
		if scanErr != nil {
			return scanErr
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM queue_entries WHERE id = ?", id); err != nil {
			return err
		}
		found = true
		return tx.Commit()
	})
	if err != nil {
		return "", false, fmt.Errorf("pop from %q: %w", queue, err)
	}
	if !found {
		return "", false, nil
	}
	return value, true, nil
}

// Entries returns the queue contents in FIFO order without consuming them.
func (s *Store) Entries(ctx context.Context, queue string) ([]string, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT value FROM queue_entries WHERE queue = ? ORDER BY id", queue)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", queue, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scan %q entry: %w", queue, err)
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %q: %w", queue, err)
	}
	return values, nil
}
