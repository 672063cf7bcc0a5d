// Package worker consumes the transcode queue. Each popped identifier is
// resolved to its processing profile, every declared rendition is produced
// under the profile's time budget, and the job's lock or failure marker is
// settled so status reads stay truthful.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mediabin/internal/blob"
	"mediabin/internal/jobs"
	"mediabin/internal/mediatype"
	"mediabin/internal/metadata"
	"mediabin/internal/transcode"
)

// Failure tokens recorded against an identifier when processing ends badly.
// They surface verbatim through status reads.
const (
	FailureTranscode = "transcode-failed"
	FailureTimeout   = "timeout"
	FailureInternal  = "internal"
)

// MetadataStore is the lookup contract the runner needs.
type MetadataStore interface {
	GetByIdentifier(ctx context.Context, identifier string) (*metadata.Item, error)
}

// Runner polls the queue and processes jobs sequentially.
type Runner struct {
	queue        *jobs.Queue
	items        MetadataStore
	blobs        *blob.Store
	transcoder   transcode.Transcoder
	logger       *slog.Logger
	pollInterval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// New constructs a runner. pollInterval governs how long the loop sleeps
// when the queue is empty.
func New(queue *jobs.Queue, items MetadataStore, blobs *blob.Store, transcoder transcode.Transcoder, logger *slog.Logger, pollInterval time.Duration) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Runner{
		queue:        queue,
		items:        items,
		blobs:        blobs,
		transcoder:   transcoder,
		logger:       logger.With(slog.String("component", "worker")),
		pollInterval: pollInterval,
	}
}

// Start launches the poll loop. It is an error to start a running runner.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return errors.New("worker: already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true

	session := uuid.NewString()
	r.logger.Info("worker started", slog.String("session", session))

	go r.loop(loopCtx)
	return nil
}

// Stop cancels the loop and waits for the in-flight job to settle.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	done := r.done
	r.running = false
	r.mu.Unlock()

	cancel()
	<-done
	r.logger.Info("worker stopped")
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)
	for {
		worked, err := r.RunOnce(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("job failed", slog.String("error", err.Error()))
		}
		if worked {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.pollInterval):
		}
	}
}

// RunOnce pops and processes at most one job. The bool reports whether a
// job was available. Per-job failures are settled through the queue's
// failure marker and do not bubble up as errors.
func (r *Runner) RunOnce(ctx context.Context) (bool, error) {
	identifier, ok, err := r.queue.Pop(ctx)
	if err != nil {
		return false, fmt.Errorf("pop job: %w", err)
	}
	if !ok {
		return false, nil
	}

	logger := r.logger.With(slog.String("identifier", identifier))
	start := time.Now()
	if err := r.process(ctx, identifier, logger); err != nil {
		if errors.Is(err, context.Canceled) {
			// Shutdown interrupted the job, not the encoder. Push it
			// back so the next worker run resumes it; already-produced
			// renditions are skipped on the retry.
			if requeueErr := r.requeue(identifier); requeueErr != nil {
				return true, fmt.Errorf("requeue %s after shutdown: %w", identifier, requeueErr)
			}
			logger.Info("requeued interrupted job")
			return true, nil
		}
		token := classifyFailure(err)
		logger.Warn("processing failed",
			slog.String("token", token),
			slog.String("error", err.Error()),
		)
		if failErr := r.queue.Fail(ctx, identifier, token); failErr != nil {
			return true, fmt.Errorf("record failure for %s: %w", identifier, failErr)
		}
		return true, nil
	}

	if err := r.queue.Complete(ctx, identifier); err != nil {
		return true, fmt.Errorf("complete %s: %w", identifier, err)
	}
	logger.Info("processing complete", slog.Duration("elapsed", time.Since(start)))
	return true, nil
}

func (r *Runner) process(ctx context.Context, identifier string, logger *slog.Logger) error {
	item, err := r.items.GetByIdentifier(ctx, identifier)
	if err != nil {
		return fmt.Errorf("load metadata: %w", err)
	}

	ext := item.Extension()
	profile, ok := mediatype.ProfileForExtension(ext)
	if !ok {
		return fmt.Errorf("no processing profile for %q", ext)
	}

	renditions := append(append([]mediatype.Format{}, profile.Targets...), profile.Extras...)
	if len(renditions) == 0 {
		return nil
	}

	inputPath, err := r.blobs.Path(identifier, ext)
	if err != nil {
		return fmt.Errorf("resolve input: %w", err)
	}

	jobCtx := ctx
	if profile.TimeBudget > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, profile.TimeBudget)
		defer cancel()
	}

	for _, rendition := range renditions {
		if done, err := r.blobs.Exists(identifier, rendition.Ext); err != nil {
			return err
		} else if done {
			continue
		}

		outputPath, err := r.blobs.Path(identifier, rendition.Ext)
		if err != nil {
			return fmt.Errorf("resolve output: %w", err)
		}
		logger.Info("producing rendition", slog.String("target", rendition.MIME))
		if err := r.transcoder.Transcode(jobCtx, inputPath, outputPath, rendition); err != nil {
			// Never leave a partial rendition behind; presence of the
			// path means the rendition is complete.
			_ = r.blobs.Delete(identifier, rendition.Ext)
			return err
		}
	}
	return nil
}

// requeue runs on a fresh context: the poll context is already canceled
// when a shutdown interrupts a job, and the push must still land.
func (r *Runner) requeue(identifier string) error {
	return r.queue.Enqueue(context.Background(), identifier)
}

func classifyFailure(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.Is(err, metadata.ErrNotFound):
		return FailureInternal
	default:
		return FailureTranscode
	}
}
