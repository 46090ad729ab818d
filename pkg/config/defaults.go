package config

import (
	"strings"
	"time"

	"github.com/grzegorz-grzeda/stream-server/pkg/streamserver"
)

// Default server settings for the daemon. The library itself treats port 0
// as "pick an ephemeral port", which is useless for a daemon, so a fixed
// default is applied here.
const (
	DefaultPort        = 9090
	DefaultBacklog     = 5
	DefaultPoolSize    = 4
	DefaultMetricsPort = 9091
)

// ApplyDefaults sets default values for any unspecified configuration
// fields. Explicit values are preserved; only zero values are replaced.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyMetricsDefaults(&cfg.Metrics)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)
}

// applyServerDefaults sets acceptor and pool defaults.
func applyServerDefaults(cfg *streamserver.Config) {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Backlog == 0 {
		cfg.Backlog = DefaultBacklog
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = DefaultPoolSize
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.MetricsLogInterval == 0 {
		cfg.MetricsLogInterval = 5 * time.Minute
	}
}

// applyMetricsDefaults sets metrics exposition defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = DefaultMetricsPort
	}
	// Enabled defaults to false: metrics are opt-in.
}
