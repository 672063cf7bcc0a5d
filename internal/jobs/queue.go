package jobs

import (
	"context"
	"fmt"

	"mediabin/internal/kvstore"
)

// State is the externally visible processing state of an identifier.
type State string

const (
	StateProcessing State = "processing"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Status resolves to one of three states. Reason carries the worker's
// failure token and is set only when State is StateFailed.
type Status struct {
	State  State
	Reason string
}

// Queue drives the job protocol against a shared state store.
type Queue struct {
	kv   *kvstore.Store
	keys Keys
}

// New returns a Queue over the given store and namespace.
func New(kv *kvstore.Store, namespace string) *Queue {
	return &Queue{kv: kv, keys: NewKeys(namespace)}
}

// Keys exposes the queue's key composer, mainly for tests and tooling.
func (q *Queue) Keys() Keys {
	return q.keys
}

// Enqueue pushes an identifier onto the work queue and sets its lock marker
// in one transaction. From this moment status reads report processing until
// a worker completes or fails the job.
func (q *Queue) Enqueue(ctx context.Context, identifier string) error {
	err := q.kv.Update(ctx, func(tx *kvstore.Tx) error {
		if err := tx.Push(q.keys.Queue(), identifier); err != nil {
			return err
		}
		return tx.Set(q.keys.Lock(identifier), "1")
	})
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", identifier, err)
	}
	return nil
}

// Pop removes and returns the oldest queued identifier; ok is false when
// the queue is empty. Exactly one consumer receives each entry.
func (q *Queue) Pop(ctx context.Context) (string, bool, error) {
	return q.kv.Pop(ctx, q.keys.Queue())
}

// Pending returns the queued identifiers in FIFO order without consuming
// them.
func (q *Queue) Pending(ctx context.Context) ([]string, error) {
	return q.kv.Entries(ctx, q.keys.Queue())
}

// Complete clears the lock marker after a successful job. Status reads
// switch to done.
func (q *Queue) Complete(ctx context.Context, identifier string) error {
	if err := q.kv.Delete(ctx, q.keys.Lock(identifier)); err != nil {
		return fmt.Errorf("complete %s: %w", identifier, err)
	}
	return nil
}

// Fail records the failure reason and clears the lock marker in one
// transaction, so readers never observe lock and error simultaneously.
func (q *Queue) Fail(ctx context.Context, identifier, reason string) error {
	err := q.kv.Update(ctx, func(tx *kvstore.Tx) error {
		if err := tx.Set(q.keys.Error(identifier), reason); err != nil {
			return err
		}
		return tx.Delete(q.keys.Lock(identifier))
	})
	if err != nil {
		return fmt.Errorf("fail %s: %w", identifier, err)
	}
	return nil
}

// Locked reports whether a processing job is outstanding for the
// identifier.
func (q *Queue) Locked(ctx context.Context, identifier string) (bool, error) {
	return q.kv.Exists(ctx, q.keys.Lock(identifier))
}

// TakeError consumes the error marker for an identifier. The read is
// one-shot: the first caller receives the failure token and clears the
// marker, every later call reports ok=false. Callers that need the token
// must keep it.
func (q *Queue) TakeError(ctx context.Context, identifier string) (string, bool, error) {
	return q.kv.Take(ctx, q.keys.Error(identifier))
}

// Status derives the three-state processing status of an identifier.
//
// Reading a failure consumes the error marker (see TakeError), so the poll
// immediately after a reported failure returns done. The lock check and the
// error read are two store round trips; a worker failing in between is
// simply observed on the next poll.
func (q *Queue) Status(ctx context.Context, identifier string) (Status, error) {
	locked, err := q.Locked(ctx, identifier)
	if err != nil {
		return Status{}, err
	}
	if locked {
		return Status{State: StateProcessing}, nil
	}

	reason, ok, err := q.TakeError(ctx, identifier)
	if err != nil {
		return Status{}, err
	}
	if ok {
		return Status{State: StateFailed, Reason: reason}, nil
	}

	return Status{State: StateDone}, nil
}
