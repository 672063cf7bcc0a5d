package main

import (
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"mediabin/internal/blob"
	"mediabin/internal/catalog"
	"mediabin/internal/config"
	"mediabin/internal/fetch"
	"mediabin/internal/ingest"
	"mediabin/internal/jobs"
	"mediabin/internal/kvstore"
	"mediabin/internal/logging"
	"mediabin/internal/metadata"
	"mediabin/internal/ratelimit"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// app bundles the opened stores a command needs. Everything hangs off the
// same config so the CLI and the worker observe identical state.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	kv     *kvstore.Store
	blobs  *blob.Store
	items  *metadata.Store
	queue  *jobs.Queue
}

// withApp opens the stores, runs fn, and closes them afterwards.
func (c *commandContext) withApp(fn func(*app) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	kv, err := kvstore.Open(cfg.StateDBPath())
	if err != nil {
		return err
	}
	defer kv.Close()

	items, err := metadata.Open(cfg.MetadataDBPath())
	if err != nil {
		return err
	}
	defer items.Close()

	blobs, err := blob.NewStore(cfg.Paths.StorageDir)
	if err != nil {
		return err
	}

	return fn(&app{
		cfg:    cfg,
		logger: logger,
		kv:     kv,
		blobs:  blobs,
		items:  items,
		queue:  jobs.New(kv, cfg.Store.Namespace),
	})
}

func (a *app) pipeline() *ingest.Pipeline {
	limiter := ratelimit.NewWindowLimiter(
		a.kv,
		a.cfg.Store.Namespace,
		time.Duration(a.cfg.RateLimit.WindowSeconds)*time.Second,
		a.cfg.RateLimit.MaxBytes,
	)
	return ingest.NewPipeline(a.blobs, a.items, a.queue, limiter, a.logger, a.cfg.Ingest.Debug)
}

func (a *app) catalog() *catalog.Catalog {
	return catalog.New(a.items, a.blobs, a.queue, a.logger)
}

func (a *app) fetcher() *fetch.Fetcher {
	return fetch.NewFetcher(
		time.Duration(a.cfg.Fetch.TimeoutSeconds)*time.Second,
		a.cfg.Fetch.MaxBytes,
		os.TempDir(),
	)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
