package kvstore

import (
	"context"
	"database/sql"
	"fmt"
)

// Tx scopes a group of state mutations to one SQLite transaction.
type Tx struct {
	ctx context.Context
	tx  *sql.Tx
}

// Update runs fn inside a transaction; every mutation made through the Tx
// becomes visible atomically on commit. fn returning an error rolls the
// whole group back.
func (s *Store) Update(ctx context.Context, fn func(*Tx) error) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		sqlTx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = sqlTx.Rollback() }()

		if err := fn(&Tx{ctx: ctx, tx: sqlTx}); err != nil {
			return err
		}
		return sqlTx.Commit()
	})
}

// Set stores value under key within the transaction.
func (t *Tx) Set(key, value string) error {
	_, err := t.tx.ExecContext(
		t.ctx,
		`INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, timestamp(),
	)
	if err != nil {
		return fmt.Errorf("tx set %q: %w", key, err)
	}
	return nil
}

// Delete removes key within the transaction.
func (t *Tx) Delete(key string) error {
	_, err := t.tx.ExecContext(t.ctx, "DELETE FROM kv_entries WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("tx delete %q: %w", key, err)
	}
	return nil
}

// Push appends value to the named queue within the transaction.
func (t *Tx) Push(queue, value string) error {
	_, err := t.tx.ExecContext(
		t.ctx,
		"INSERT INTO queue_entries (queue, value, created_at) VALUES (?, ?, ?)",
		queue, value, timestamp(),
	)
	if err != nil {
		return fmt.Errorf("tx push to %q: %w", queue, err)
	}
	return nil
}
