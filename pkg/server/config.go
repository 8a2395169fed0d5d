package server

import (
	"fmt"
	"time"
)

// Config holds the HTTP server settings.
type Config struct {
	// Addr is the listen address.
	// Default: ":8080".
	Addr string

	// MaxRequestBytes caps the whole request body.
	// Default: 64MB.
	MaxRequestBytes int64

	// ReadHeaderTimeout bounds reading request headers.
	// Default: 10 seconds.
	ReadHeaderTimeout time.Duration

	// ReadTimeout bounds reading the entire request, body included.
	// Default: 60 seconds.
	ReadTimeout time.Duration

	// IdleTimeout is the keep-alive timeout.
	// Default: 120 seconds.
	IdleTimeout time.Duration

	// ShutdownTimeout is how long in-flight requests may drain on shutdown.
	// Default: 15 seconds.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Addr:              ":8080",
		MaxRequestBytes:   64 << 20, // 64MB
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ShutdownTimeout:   15 * time.Second,
	}
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("server: empty listen address")
	}
	if c.MaxRequestBytes <= 0 {
		return fmt.Errorf("server: MaxRequestBytes must be positive, got %d", c.MaxRequestBytes)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("server: ShutdownTimeout must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}
