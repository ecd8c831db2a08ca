package batch

import "time"

// Config holds configuration for sync runs.
type Config struct {
	// ChunkSize is the number of devices per chunk.
	ChunkSize int `mapstructure:"chunk_size" default:"50"`
	// Workers bounds the number of chunks processed in parallel.
	Workers int `mapstructure:"workers" default:"4"`
	// ChunkTimeoutSeconds is the wall-clock budget of one chunk attempt.
	ChunkTimeoutSeconds int `mapstructure:"chunk_timeout_seconds" default:"600"`
	// MaxAttempts is the number of times a failing chunk is tried.
	MaxAttempts int `mapstructure:"max_attempts" default:"3"`
	// BackoffMillis is multiplied by the attempt number between retries.
	BackoffMillis int `mapstructure:"backoff_millis" default:"1000"`
	// CacheTTLSeconds is the lifetime of a cached reference id.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" default:"3600"`
	// EnrichInline merges security agent data right after each device is reconciled.
	EnrichInline bool `mapstructure:"enrich_inline" default:"true"`
}

// Options converts the configuration into dispatcher options.
func (c Config) Options() Options {
	return Options{
		Workers:     c.Workers,
		Timeout:     time.Duration(c.ChunkTimeoutSeconds) * time.Second,
		MaxAttempts: c.MaxAttempts,
		Backoff:     time.Duration(c.BackoffMillis) * time.Millisecond,
	}
}

// CacheTTL returns the reference cache lifetime, 0 meaning the cache default.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}
