// Package catalog serves queries and lifecycle operations over stored
// media items: processing status, compression accounting, and the
// deletion cascade.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"mediabin/internal/blob"
	"mediabin/internal/jobs"
	"mediabin/internal/mediatype"
	"mediabin/internal/metadata"
)

// MetadataStore is the persistence contract the catalog needs from the
// metadata collaborator.
type MetadataStore interface {
	GetByIdentifier(ctx context.Context, identifier string) (*metadata.Item, error)
	Delete(ctx context.Context, identifier string) error
}

// Catalog composes the stores behind item-level queries.
type Catalog struct {
	items  MetadataStore
	blobs  *blob.Store
	queue  *jobs.Queue
	logger *slog.Logger
}

// New constructs a catalog over the given collaborators.
func New(items MetadataStore, blobs *blob.Store, queue *jobs.Queue, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		items:  items,
		blobs:  blobs,
		queue:  queue,
		logger: logger.With(slog.String("component", "catalog")),
	}
}

// Status resolves the processing status of an identifier. Reading a failure
// consumes its reason; see jobs.Queue.Status.
func (c *Catalog) Status(ctx context.Context, identifier string) (jobs.Status, error) {
	return c.queue.Status(ctx, identifier)
}

// CompressionRatio reports the original size divided by the smallest size
// observed among the original and the target renditions produced so far,
// rounded to two decimals. Content types without target renditions yield 0.
//
// The metric advances while renditions are still being produced: a poll
// after the first rendition lands rewards that rendition even though
// others are pending.
func (c *Catalog) CompressionRatio(ctx context.Context, identifier string) (float64, error) {
	item, err := c.items.GetByIdentifier(ctx, identifier)
	if err != nil {
		return 0, err
	}

	profile, ok := mediatype.ProfileForExtension(item.Extension())
	if !ok || !profile.HasTargets() {
		return 0, nil
	}

	originalSize := item.Compression
	if originalSize <= 0 {
		return 0, nil
	}

	minSize := originalSize
	if diskSize, err := c.blobs.SizeOf(identifier, item.Extension()); err == nil && diskSize > 0 && diskSize < minSize {
		minSize = diskSize
	} else if err != nil && !errors.Is(err, blob.ErrNotFound) {
		return 0, err
	}

	for _, target := range profile.Targets {
		size, err := c.blobs.SizeOf(identifier, target.Ext)
		if errors.Is(err, blob.ErrNotFound) {
			// Not produced yet; skip rather than treating it as zero.
			continue
		}
		if err != nil {
			return 0, err
		}
		if size > 0 && size < minSize {
			minSize = size
		}
	}

	ratio := float64(originalSize) / float64(minSize)
	return math.Round(ratio*100) / 100, nil
}

// Delete removes an item's original blob, every rendition declared for its
// content type, and finally its metadata record. Storage deletions run
// first so a crash mid-cascade leaves a harmless orphaned record rather
// than metadata-less files. Individual missing renditions are tolerated.
func (c *Catalog) Delete(ctx context.Context, identifier string) error {
	item, err := c.items.GetByIdentifier(ctx, identifier)
	if err != nil {
		return err
	}

	ext := item.Extension()
	c.removeBlob(identifier, ext)

	if profile, ok := mediatype.ProfileForExtension(ext); ok {
		for _, rendition := range profile.Targets {
			c.removeBlob(identifier, rendition.Ext)
		}
		for _, rendition := range profile.Extras {
			c.removeBlob(identifier, rendition.Ext)
		}
	}

	if err := c.items.Delete(ctx, identifier); err != nil {
		return fmt.Errorf("delete metadata: %w", err)
	}
	c.logger.Info("deleted", slog.String("identifier", identifier))
	return nil
}

// removeBlob is best-effort: cleanup must not fail the cascade because one
// rendition was already gone or briefly unremovable.
func (c *Catalog) removeBlob(identifier, ext string) {
	if err := c.blobs.Delete(identifier, ext); err != nil {
		c.logger.Warn("failed to delete blob",
			slog.String("identifier", identifier),
			slog.String("ext", ext),
			slog.String("error", err.Error()),
		)
	}
}
