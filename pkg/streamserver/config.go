package streamserver

import (
	"fmt"
	"time"
)

// Config holds configuration parameters for the stream server.
//
// Zero values are replaced with defaults by New, except Port, where 0 asks
// the OS for an ephemeral port (useful in tests).
type Config struct {
	// Port is the TCP port to listen on, bound on the wildcard address.
	// 0 lets the OS pick a free port; query it with Server.Port.
	Port int `mapstructure:"port" validate:"min=0,max=65535"`

	// Backlog is the requested listen backlog. The Go runtime sizes the
	// kernel backlog itself (net.Listen offers no knob), so this value is
	// validated and logged for visibility only.
	Backlog int `mapstructure:"backlog" validate:"min=0"`

	// PoolSize is the number of worker goroutines consuming accepted
	// connections. Fixed for the lifetime of the server.
	// If 0, defaults to 4.
	PoolSize int `mapstructure:"pool_size" validate:"min=0"`

	// MaxConnections limits the number of connections alive at once
	// (accepted and not yet closed). When the limit is reached the accept
	// loop blocks until a connection finishes.
	// 0 means unlimited, which matches the baseline behavior.
	MaxConnections int `mapstructure:"max_connections" validate:"min=0"`

	// AcceptRate throttles accepts per second using a token bucket.
	// 0 disables throttling (the baseline behavior).
	AcceptRate uint `mapstructure:"accept_rate"`

	// AcceptBurst is the token bucket capacity when AcceptRate is set.
	AcceptBurst uint `mapstructure:"accept_burst"`

	// ShutdownTimeout bounds how long Stop and Serve wait for workers to
	// finish in-flight handlers before giving up.
	// If 0, defaults to 30s.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`

	// MetricsLogInterval is the interval at which Serve logs connection
	// counters. 0 disables periodic metrics logging.
	MetricsLogInterval time.Duration `mapstructure:"metrics_log_interval" validate:"min=0"`
}

// applyDefaults fills in zero values with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Backlog <= 0 {
		c.Backlog = 128
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 4
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
}

// validate checks that the configuration is usable.
func (c *Config) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be 0-65535", c.Port)
	}
	if c.Backlog < 0 {
		return fmt.Errorf("invalid Backlog %d: must be >= 0", c.Backlog)
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("invalid PoolSize %d: must be > 0", c.PoolSize)
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("invalid MaxConnections %d: must be >= 0", c.MaxConnections)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid ShutdownTimeout %v: must be > 0", c.ShutdownTimeout)
	}
	if c.MetricsLogInterval < 0 {
		return fmt.Errorf("invalid MetricsLogInterval %v: must be >= 0", c.MetricsLogInterval)
	}
	return nil
}
