package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateRateLimit(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateWorker(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StorageDir) == "" {
		return errors.New("paths.storage_dir must be set")
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.Namespace == "" {
		return errors.New("store.namespace must be set")
	}
	if strings.ContainsAny(c.Store.Namespace, ": \t") {
		return fmt.Errorf("store.namespace %q must not contain separators or whitespace", c.Store.Namespace)
	}
	return nil
}

func (c *Config) validateRateLimit() error {
	if c.RateLimit.WindowSeconds <= 0 {
		return errors.New("ratelimit.window_seconds must be positive")
	}
	if c.RateLimit.MaxBytes <= 0 {
		return errors.New("ratelimit.max_bytes must be positive")
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.TimeoutSeconds <= 0 {
		return errors.New("fetch.timeout_seconds must be positive")
	}
	if c.Fetch.MaxBytes <= 0 {
		return errors.New("fetch.max_bytes must be positive")
	}
	return nil
}

func (c *Config) validateWorker() error {
	if c.Worker.PollIntervalSeconds <= 0 {
		return errors.New("worker.poll_interval must be positive")
	}
	if c.Worker.FFmpegBinary == "" {
		return errors.New("worker.ffmpeg_binary must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
