// Package fetch downloads remote media into a local spool file so the
// ingestion pipeline can hash, measure, and store it like an upload.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound reports a remote server response that must abort
	// ingestion before any store or queue mutation.
	ErrNotFound = errors.New("remote media not found")
	// ErrTooLarge reports a download over the configured size cap.
	ErrTooLarge = errors.New("remote media exceeds size cap")
)

const userAgent = "mediabin/0.1.0"

// RemoteFile is a spooled download. It reads and seeks over the spool, and
// Close removes the spool file.
type RemoteFile struct {
	// Filename is the tail of the request URL, usable as a name hint.
	Filename string
	// ContentType is the response Content-Type header, "" when absent.
	ContentType string

	file *os.File
}

func (r *RemoteFile) Read(p []byte) (int, error) {
	return r.file.Read(p)
}

func (r *RemoteFile) Seek(offset int64, whence int) (int64, error) {
	return r.file.Seek(offset, whence)
}

// Close removes the spool file.
func (r *RemoteFile) Close() error {
	name := r.file.Name()
	closeErr := r.file.Close()
	if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return closeErr
}

// Fetcher streams remote URLs into spool files under a configured directory.
type Fetcher struct {
	client   *http.Client
	spoolDir string
	maxBytes int64
}

// NewFetcher builds a fetcher with the given request timeout and download
// size cap. Spool files are created in spoolDir.
func NewFetcher(timeout time.Duration, maxBytes int64, spoolDir string) *Fetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		spoolDir: spoolDir,
		maxBytes: maxBytes,
	}
}

// Fetch downloads rawURL into a spool file. The caller owns the returned
// RemoteFile and must Close it. Any non-OK response aborts with ErrNotFound
// so no downstream mutation can happen for dead links.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*RemoteFile, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s responded %d: %w", rawURL, resp.StatusCode, ErrNotFound)
	}

	spool, err := os.CreateTemp(f.spoolDir, "fetch-"+uuid.NewString()+"-*")
	if err != nil {
		return nil, fmt.Errorf("create spool: %w", err)
	}

	limit := f.maxBytes
	if limit <= 0 {
		limit = 1 << 40
	}
	written, err := io.Copy(spool, io.LimitReader(resp.Body, limit+1))
	if err != nil {
		discardSpool(spool)
		return nil, fmt.Errorf("spool %s: %w", rawURL, err)
	}
	if written > limit {
		discardSpool(spool)
		return nil, fmt.Errorf("%s: %w", rawURL, ErrTooLarge)
	}

	return &RemoteFile{
		Filename:    path.Base(parsed.Path),
		ContentType: strings.TrimSpace(resp.Header.Get("Content-Type")),
		file:        spool,
	}, nil
}

func discardSpool(spool *os.File) {
	name := spool.Name()
	_ = spool.Close()
	_ = os.Remove(name)
}
