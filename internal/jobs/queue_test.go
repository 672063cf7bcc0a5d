package jobs_test

import (
	"context"
	"path/filepath"
	"testing"

	"mediabin/internal/jobs"
	"mediabin/internal/kvstore"
)

func newQueue(t *testing.T) *jobs.Queue {
	t.Helper()
	kv, err := kvstore.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("kvstore.Open: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return jobs.New(kv, "testns")
}

func TestEnqueueSetsLockAndQueues(t *testing.T) {
	q := newQueue(t)
	ctx := context.Background()

	if err := q.Enqueue(ctx, "id-one"); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	locked, err := q.Locked(ctx, "id-one")
	if err != nil || !locked {
		t.Fatalf("Locked = (%v, %v), want (true, nil)", locked, err)
	}

	status, err := q.Status(ctx, "id-one")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.State != jobs.StateProcessing {
		t.Fatalf("expected processing immediately after enqueue, got %v", status.State)
	}

	pending, err := q.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(pending) != 1 || pending[0] != "id-one" {
		t.Fatalf("unexpected pending entries %v", pending)
	}
}

func TestPopIsFIFO(t *testing.T) {
	q := newQueue(t)
	ctx := context.Background()

	for _, id := range []string{"first", "second", "third"} {
		if err := q.Enqueue(ctx, id); err != nil {
			t.Fatalf("Enqueue %s failed: %v", id, err)
		}
	}

	for _, want := range []string{"first", "second", "third"} {
		got, ok, err := q.Pop(ctx)
		if err != nil || !ok {
			t.Fatalf("Pop = (%q, %v, %v)", got, ok, err)
		}
		if got != want {
			t.Fatalf("Pop order: got %q, want %q", got, want)
		}
	}
	if _, ok, _ := q.Pop(ctx); ok {
		t.Fatal("expected empty queue")
	}
}

func TestCompleteTransitionsToDone(t *testing.T) {
	q := newQueue(t)
	ctx := context.Background()

	if err := q.Enqueue(ctx, "done-item"); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := q.Complete(ctx, "done-item"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	// Done is idempotent across repeated polls.
	for i := 0; i < 3; i++ {
		status, err := q.Status(ctx, "done-item")
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		if status.State != jobs.StateDone {
			t.Fatalf("poll %d: expected done, got %v", i, status.State)
		}
	}
}

func TestStatusClearsFailureTokenOnce(t *testing.T) {
	q := newQueue(t)
	ctx := context.Background()

	if err := q.Enqueue(ctx, "bad-item"); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := q.Fail(ctx, "bad-item", "transcode-failed"); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}

	first, err := q.Status(ctx, "bad-item")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if first.State != jobs.StateFailed || first.Reason != "transcode-failed" {
		t.Fatalf("first poll = %+v, want failed/transcode-failed", first)
	}

	// The read is destructive: the marker must actually be gone from the
	// store, not merely masked.
	second, err := q.Status(ctx, "bad-item")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if second.State != jobs.StateDone {
		t.Fatalf("second poll = %+v, want done", second)
	}
}

func TestFailNeverExposesLockAndErrorTogether(t *testing.T) {
	q := newQueue(t)
	ctx := context.Background()

	if err := q.Enqueue(ctx, "x"); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := q.Fail(ctx, "x", "timeout"); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}
	locked, err := q.Locked(ctx, "x")
	if err != nil || locked {
		t.Fatalf("lock must be cleared by Fail, got (%v, %v)", locked, err)
	}
	reason, ok, err := q.TakeError(ctx, "x")
	if err != nil || !ok || reason != "timeout" {
		t.Fatalf("TakeError = (%q, %v, %v)", reason, ok, err)
	}
}

func TestNamespacesIsolateQueues(t *testing.T) {
	kv, err := kvstore.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("kvstore.Open: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	ctx := context.Background()
	qa := jobs.New(kv, "a")
	qb := jobs.New(kv, "b")

	if err := qa.Enqueue(ctx, "shared-id"); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if _, ok, _ := qb.Pop(ctx); ok {
		t.Fatal("namespace b must not see namespace a's jobs")
	}
	status, err := qb.Status(ctx, "shared-id")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.State != jobs.StateDone {
		t.Fatalf("namespace b should see no markers, got %v", status.State)
	}
}
