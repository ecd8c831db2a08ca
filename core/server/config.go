package server

import (
	"strings"
	"time"
)

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// ReadTimeoutSeconds bounds reading a request.
	ReadTimeoutSeconds int `mapstructure:"read_timeout_seconds" default:"30"`
	// BodyLimitMB caps request bodies, which carry whole snapshots on POST /sync/:source.
	BodyLimitMB int `mapstructure:"body_limit_mb" default:"64"`
}

// Addr returns the listen address for the configured port.
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// ReadTimeout returns the request read timeout, falling back to 30s.
func (c Config) ReadTimeout() time.Duration {
	if c.ReadTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// AuthEnabled reports whether requests must carry the API key.
func (c Config) AuthEnabled() bool {
	return c.ApiKey != ""
}

// BodyLimit returns the request body limit in bytes, falling back to 64MB.
func (c Config) BodyLimit() int {
	if c.BodyLimitMB <= 0 {
		return 64 << 20
	}
	return c.BodyLimitMB << 20
}
