package config

const (
	defaultStorageDir           = "~/.local/share/mediabin/storage"
	defaultDataDir              = "~/.local/share/mediabin/data"
	defaultLogDir               = "~/.local/share/mediabin/logs"
	defaultNamespace            = "mediabin"
	defaultRateLimitWindowSecs  = 3600
	defaultRateLimitMaxBytes    = 512 << 20
	defaultFetchTimeoutSeconds  = 60
	defaultFetchMaxBytes        = 256 << 20
	defaultWorkerPollInterval   = 2
	defaultWorkerFFmpegBinary   = "ffmpeg"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StorageDir: defaultStorageDir,
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
		},
		Store: Store{
			Namespace: defaultNamespace,
		},
		RateLimit: RateLimit{
			WindowSeconds: defaultRateLimitWindowSecs,
			MaxBytes:      defaultRateLimitMaxBytes,
		},
		Fetch: Fetch{
			TimeoutSeconds: defaultFetchTimeoutSeconds,
			MaxBytes:       defaultFetchMaxBytes,
		},
		Worker: Worker{
			PollIntervalSeconds: defaultWorkerPollInterval,
			FFmpegBinary:        defaultWorkerFFmpegBinary,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
