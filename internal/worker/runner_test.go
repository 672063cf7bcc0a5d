package worker_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"mediabin/internal/blob"
	"mediabin/internal/jobs"
	"mediabin/internal/mediatype"
	"mediabin/internal/metadata"
	"mediabin/internal/testsupport"
	"mediabin/internal/worker"
)

// fakeTranscoder writes a fixed payload per produced rendition, or fails
// when told to.
type fakeTranscoder struct {
	mu       sync.Mutex
	produced []string
	failWith error
}

func (f *fakeTranscoder) Transcode(_ context.Context, _, outputPath string, target mediatype.Format) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.produced = append(f.produced, target.Ext)
	return os.WriteFile(outputPath, []byte("rendition:"+target.Ext), 0o644)
}

type workerEnv struct {
	runner *worker.Runner
	queue  *jobs.Queue
	blobs  *blob.Store
	items  *metadata.Store
	fake   *fakeTranscoder
}

func newWorkerEnv(t *testing.T) *workerEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	kv := testsupport.MustOpenKV(t, cfg)
	blobs := testsupport.MustOpenBlobs(t, cfg)
	items := testsupport.MustOpenMetadata(t, cfg)
	queue := testsupport.NewQueue(t, cfg, kv)

	fake := &fakeTranscoder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &workerEnv{
		runner: worker.New(queue, items, blobs, fake, logger, 10*time.Millisecond),
		queue:  queue,
		blobs:  blobs,
		items:  items,
		fake:   fake,
	}
}

func (e *workerEnv) enqueueItem(t *testing.T, identifier, ext string) {
	t.Helper()
	ctx := context.Background()
	if _, err := e.blobs.Put(identifier, ext, bytes.NewReader([]byte("original"))); err != nil {
		t.Fatalf("store original: %v", err)
	}
	item := &metadata.Item{
		Identifier:       identifier,
		OriginalFilename: blob.FileName(identifier, ext),
		Compression:      8,
		SourceIP:         "ip",
	}
	if err := e.items.Save(ctx, item); err != nil {
		t.Fatalf("save metadata: %v", err)
	}
	if err := e.queue.Enqueue(ctx, identifier); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
}

func TestRunOnceProducesAllRenditions(t *testing.T) {
	e := newWorkerEnv(t)
	ctx := context.Background()
	e.enqueueItem(t, "gifjob000000", "gif")

	worked, err := e.runner.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if !worked {
		t.Fatal("expected a job to be processed")
	}

	for _, ext := range []string{"mp4", "ogv", "webm", "png"} {
		if ok, _ := e.blobs.Exists("gifjob000000", ext); !ok {
			t.Errorf("rendition %s was not produced", ext)
		}
	}

	status, err := e.queue.Status(ctx, "gifjob000000")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.State != jobs.StateDone {
		t.Fatalf("status = %v, want done", status.State)
	}
}

func TestRunOnceIdleQueue(t *testing.T) {
	e := newWorkerEnv(t)
	worked, err := e.runner.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if worked {
		t.Fatal("empty queue must report no work")
	}
}

func TestRunOnceCompletesProfileWithoutRenditions(t *testing.T) {
	e := newWorkerEnv(t)
	ctx := context.Background()
	e.enqueueItem(t, "jpegjob00000", "jpg")

	if _, err := e.runner.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if len(e.fake.produced) != 0 {
		t.Fatalf("jpeg profile must not transcode, produced %v", e.fake.produced)
	}
	status, _ := e.queue.Status(ctx, "jpegjob00000")
	if status.State != jobs.StateDone {
		t.Fatalf("status = %v, want done", status.State)
	}
}

func TestRunOnceSkipsExistingRenditions(t *testing.T) {
	e := newWorkerEnv(t)
	ctx := context.Background()
	e.enqueueItem(t, "gifskip00000", "gif")
	if _, err := e.blobs.Put("gifskip00000", "mp4", bytes.NewReader([]byte("already here"))); err != nil {
		t.Fatalf("pre-store rendition: %v", err)
	}

	if _, err := e.runner.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	for _, ext := range e.fake.produced {
		if ext == "mp4" {
			t.Fatal("existing rendition was re-produced")
		}
	}
	size, err := e.blobs.SizeOf("gifskip00000", "mp4")
	if err != nil || size != int64(len("already here")) {
		t.Fatalf("pre-existing rendition was overwritten: (%d, %v)", size, err)
	}
}

func TestFailureRecordsTokenAndClearsLock(t *testing.T) {
	e := newWorkerEnv(t)
	ctx := context.Background()
	e.enqueueItem(t, "gifboom00000", "gif")
	e.fake.failWith = errors.New("encoder exploded")

	worked, err := e.runner.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if !worked {
		t.Fatal("expected the job to be consumed")
	}

	status, err := e.queue.Status(ctx, "gifboom00000")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.State != jobs.StateFailed {
		t.Fatalf("status = %v, want failed", status.State)
	}
	if status.Reason != worker.FailureTranscode {
		t.Fatalf("reason = %q, want %q", status.Reason, worker.FailureTranscode)
	}

	// The status read consumed the token; the next poll reports done.
	status, _ = e.queue.Status(ctx, "gifboom00000")
	if status.State != jobs.StateDone {
		t.Fatalf("second poll = %v, want done", status.State)
	}
}

func TestTimeoutMapsToTimeoutToken(t *testing.T) {
	e := newWorkerEnv(t)
	ctx := context.Background()
	e.enqueueItem(t, "giftime00000", "gif")
	e.fake.failWith = context.DeadlineExceeded

	if _, err := e.runner.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	status, _ := e.queue.Status(ctx, "giftime00000")
	if status.State != jobs.StateFailed || status.Reason != worker.FailureTimeout {
		t.Fatalf("status = %+v, want failed/%s", status, worker.FailureTimeout)
	}
}

func TestShutdownRequeuesInterruptedJob(t *testing.T) {
	e := newWorkerEnv(t)
	ctx := context.Background()
	e.enqueueItem(t, "gifstop00000", "gif")
	e.fake.failWith = context.Canceled

	worked, err := e.runner.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if !worked {
		t.Fatal("expected the job to be consumed")
	}

	// The interruption is not an encoder failure: no token, lock still
	// held, and the job is back on the queue for the next run.
	pending, err := e.queue.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(pending) != 1 || pending[0] != "gifstop00000" {
		t.Fatalf("interrupted job not requeued, pending = %v", pending)
	}
	status, err := e.queue.Status(ctx, "gifstop00000")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.State != jobs.StateProcessing {
		t.Fatalf("status = %+v, want processing", status)
	}

	e.fake.failWith = nil
	if _, err := e.runner.RunOnce(ctx); err != nil {
		t.Fatalf("retry RunOnce failed: %v", err)
	}
	status, _ = e.queue.Status(ctx, "gifstop00000")
	if status.State != jobs.StateDone {
		t.Fatalf("retry status = %v, want done", status.State)
	}
}

func TestMissingMetadataFailsJob(t *testing.T) {
	e := newWorkerEnv(t)
	ctx := context.Background()
	if err := e.queue.Enqueue(ctx, "ghostjob0000"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if _, err := e.runner.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	status, _ := e.queue.Status(ctx, "ghostjob0000")
	if status.State != jobs.StateFailed || status.Reason != worker.FailureInternal {
		t.Fatalf("status = %+v, want failed/%s", status, worker.FailureInternal)
	}
}

func TestStartProcessesQueueInBackground(t *testing.T) {
	e := newWorkerEnv(t)
	ctx := context.Background()
	e.enqueueItem(t, "gifloop00000", "gif")

	if err := e.runner.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer e.runner.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		status, err := e.queue.Status(ctx, "gifloop00000")
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		if status.State == jobs.StateDone {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job was not processed in the background")
}
