// Package ingest accepts media byte sources, deduplicates them by content
// hash, persists them, and enqueues the asynchronous processing job.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"mediabin/internal/blob"
	"mediabin/internal/contentid"
	"mediabin/internal/fetch"
	"mediabin/internal/jobs"
	"mediabin/internal/mediatype"
	"mediabin/internal/metadata"
	"mediabin/internal/ratelimit"
)

// genericContentType is the declared type that carries no format
// information and is ignored for extension derivation.
const genericContentType = "application/octet-stream"

// MetadataStore is the persistence contract the pipeline needs from the
// metadata collaborator.
type MetadataStore interface {
	Save(ctx context.Context, item *metadata.Item) error
	GetByIdentifier(ctx context.Context, identifier string) (*metadata.Item, error)
}

// Result is a successful (or duplicate) ingestion outcome.
type Result struct {
	Identifier string
	// Duplicate is set when the content was already stored; the original
	// ingestion's job owns processing and nothing was re-enqueued.
	Duplicate bool
}

// HTTPStatus returns the status code callers report for this result.
func (r Result) HTTPStatus() int {
	if r.Duplicate {
		return 409
	}
	return 200
}

// Pipeline wires the ingestion flow together.
type Pipeline struct {
	blobs   *blob.Store
	items   MetadataStore
	queue   *jobs.Queue
	limiter ratelimit.Limiter
	logger  *slog.Logger
	debug   bool
}

// NewPipeline constructs an ingestion pipeline. In debug mode the rate
// limiter is never consulted.
func NewPipeline(blobs *blob.Store, items MetadataStore, queue *jobs.Queue, limiter ratelimit.Limiter, logger *slog.Logger, debug bool) *Pipeline {
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		blobs:   blobs,
		items:   items,
		queue:   queue,
		limiter: limiter,
		logger:  logger.With(slog.String("component", "ingest")),
		debug:   debug,
	}
}

// Ingest runs the full pipeline over a seekable byte source: extension
// derivation, allow-list gate, rate limiting, identifier derivation, dedup,
// persistence, metadata creation, and job enqueue.
//
// callerAddr is the resolved caller address, recorded for abuse tracking
// and used as the rate-limit key.
func (p *Pipeline) Ingest(ctx context.Context, src io.ReadSeeker, filename, contentType, callerAddr string) (*Result, error) {
	if contentType != "" && contentType != genericContentType {
		if ext := mediatype.ExtensionForMIME(contentType); ext != "" {
			filename += "." + ext
		}
	}

	if !mediatype.AllowedFilename(filename) {
		return nil, fmt.Errorf("%q: %w", filename, ErrUnsupportedType)
	}
	ext := mediatype.ExtensionOf(filename)

	if !p.debug {
		length, err := sourceLength(src)
		if err != nil {
			return nil, err
		}
		// Recording happens before the check on purpose: the refused
		// upload still counts against the caller's budget.
		if err := p.limiter.Record(ctx, callerAddr, length); err != nil {
			return nil, fmt.Errorf("record usage: %w", err)
		}
		over, err := p.limiter.Exceeded(ctx, callerAddr)
		if err != nil {
			return nil, fmt.Errorf("check usage: %w", err)
		}
		if over {
			return nil, fmt.Errorf("caller %s: %w", callerAddr, ErrRateLimited)
		}
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind source: %w", err)
	}
	identifier, err := contentid.Derive(src)
	if err != nil {
		return nil, err
	}

	exists, err := p.blobs.Exists(identifier, ext)
	if err != nil {
		return nil, err
	}
	if exists {
		p.logger.Info("duplicate content", slog.String("identifier", identifier), slog.String("ext", ext))
		return &Result{Identifier: identifier, Duplicate: true}, nil
	}

	// The same bytes may already be stored under another extension; the
	// metadata record is keyed by identifier alone, so it is the
	// authoritative dedup check.
	if _, err := p.items.GetByIdentifier(ctx, identifier); err == nil {
		p.logger.Info("duplicate content", slog.String("identifier", identifier), slog.String("ext", ext))
		return &Result{Identifier: identifier, Duplicate: true}, nil
	} else if !errors.Is(err, metadata.ErrNotFound) {
		return nil, err
	}

	if _, err := p.blobs.Put(identifier, ext, src); err != nil {
		// A racing ingestion of identical content may have won; treat the
		// collision as the duplicate it is.
		if errors.Is(err, blob.ErrAlreadyExists) {
			return &Result{Identifier: identifier, Duplicate: true}, nil
		}
		return nil, err
	}

	size, err := p.blobs.SizeOf(identifier, ext)
	if err != nil {
		return nil, err
	}

	item := &metadata.Item{
		Identifier:       identifier,
		OriginalFilename: blob.FileName(identifier, ext),
		Compression:      size,
		SourceIP:         callerAddr,
	}
	if err := p.items.Save(ctx, item); err != nil {
		// The blob was written for this ingestion only; a failed record
		// must not leave it orphaned.
		_ = p.blobs.Delete(identifier, ext)
		return nil, fmt.Errorf("save metadata: %w", err)
	}

	if err := p.queue.Enqueue(ctx, identifier); err != nil {
		return nil, err
	}

	p.logger.Info("ingested",
		slog.String("identifier", identifier),
		slog.String("ext", ext),
		slog.Int64("bytes", size),
		slog.String("source", callerAddr),
	)
	return &Result{Identifier: identifier}, nil
}

// IngestURL downloads a remote URL into a spool and feeds it through the
// same pipeline as an upload. A dead link aborts before any mutation.
func (p *Pipeline) IngestURL(ctx context.Context, fetcher *fetch.Fetcher, url, callerAddr string) (*Result, error) {
	remote, err := fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer remote.Close()
	return p.Ingest(ctx, remote, remote.Filename, remote.ContentType, callerAddr)
}

func sourceLength(src io.ReadSeeker) (int64, error) {
	length, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("measure source: %w", err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewind source: %w", err)
	}
	return length, nil
}
