// Package testsupport provides shared helpers for package tests: temp-dir
// configs and pre-opened stores with registered cleanup.
package testsupport

import (
	"path/filepath"
	"testing"

	"mediabin/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StorageDir = filepath.Join(base, "storage")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Store.Namespace = "test"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return &cfg
}

// WithDebug enables ingest debug mode on the test config.
func WithDebug() ConfigOption {
	return func(c *config.Config) {
		c.Ingest.Debug = true
	}
}
