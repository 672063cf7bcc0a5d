package testsupport

import (
	"testing"

	"mediabin/internal/blob"
	"mediabin/internal/config"
	"mediabin/internal/jobs"
	"mediabin/internal/kvstore"
	"mediabin/internal/metadata"
)

// MustOpenKV opens the shared state store for tests and registers cleanup.
func MustOpenKV(t testing.TB, cfg *config.Config) *kvstore.Store {
	t.Helper()

	store, err := kvstore.Open(cfg.StateDBPath())
	if err != nil {
		t.Fatalf("kvstore.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// MustOpenMetadata opens the media item store for tests and registers cleanup.
func MustOpenMetadata(t testing.TB, cfg *config.Config) *metadata.Store {
	t.Helper()

	store, err := metadata.Open(cfg.MetadataDBPath())
	if err != nil {
		t.Fatalf("metadata.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// MustOpenBlobs opens the content store for tests.
func MustOpenBlobs(t testing.TB, cfg *config.Config) *blob.Store {
	t.Helper()

	store, err := blob.NewStore(cfg.Paths.StorageDir)
	if err != nil {
		t.Fatalf("blob.NewStore: %v", err)
	}
	return store
}

// NewQueue builds a job queue over a fresh state store.
func NewQueue(t testing.TB, cfg *config.Config, kv *kvstore.Store) *jobs.Queue {
	t.Helper()
	return jobs.New(kv, cfg.Store.Namespace)
}
