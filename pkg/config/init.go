package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// InitConfig creates a default configuration file at the default location.
//
// Parameters:
//   - force: Overwrite an existing configuration file
//
// Returns the path of the created file or an error.
func InitConfig(force bool) (string, error) {
	configPath := GetDefaultConfigPath()

	if err := InitConfigToPath(configPath, force); err != nil {
		return "", err
	}

	return configPath, nil
}

// InitConfigToPath creates a default configuration file at the given path,
// creating parent directories as needed.
func InitConfigToPath(configPath string, force bool) error {
	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists at %s (use force to overwrite)", configPath)
		}
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to generate config: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateYAMLWithComments renders the configuration as a commented YAML
// document. The template is round-tripped through the YAML parser to catch
// template drift before it reaches a user's config directory.
func generateYAMLWithComments(cfg *Config) (string, error) {
	out := fmt.Sprintf(`# Stream Server Configuration File
#
# Environment variables with the STREAMSERVER_ prefix override any value
# in this file, e.g. STREAMSERVER_LOGGING_LEVEL=DEBUG.

logging:
  # Minimum log level: DEBUG, INFO, WARN, ERROR
  level: %s

server:
  # TCP port to listen on (wildcard address)
  port: %d

  # Requested listen backlog (advisory; the runtime sizes the kernel queue)
  backlog: %d

  # Number of worker goroutines handling connections
  pool_size: %d

  # Maximum connections alive at once; 0 means unlimited
  max_connections: %d

  # Accepted connections per second; 0 disables throttling
  accept_rate: %d

  # How long to wait for in-flight handlers on shutdown
  shutdown_timeout: %s

metrics:
  # Enable Prometheus metrics collection and the /metrics endpoint
  enabled: %t

  # HTTP port for the /metrics endpoint
  port: %d
`,
		cfg.Logging.Level,
		cfg.Server.Port,
		cfg.Server.Backlog,
		cfg.Server.PoolSize,
		cfg.Server.MaxConnections,
		cfg.Server.AcceptRate,
		cfg.Server.ShutdownTimeout,
		cfg.Metrics.Enabled,
		cfg.Metrics.Port,
	)

	var check map[string]any
	if err := yaml.Unmarshal([]byte(out), &check); err != nil {
		return "", fmt.Errorf("generated config is not valid YAML: %w", err)
	}

	return out, nil
}
