// Package config provides configuration loading for taskhub.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/tgienger/taskhub/internal/logging"
)

// Config is the complete taskhub configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Logging  logging.Config `koanf:"logging"`
	Perf     PerfConfig     `koanf:"perf"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Tasks    TasksConfig    `koanf:"tasks"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// PerfConfig toggles operation timing.
type PerfConfig struct {
	Enabled bool `koanf:"enabled"`
}

// MetricsConfig configures the prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// TasksConfig holds task repository behavior.
type TasksConfig struct {
	// CompensateOrphans deletes a freshly created task when linking its tags fails.
	CompensateOrphans bool `koanf:"compensate_orphans"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Logging: *logging.NewDefaultConfig(),
	}
}

// Validate checks the configuration for unsupported values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database.path is required")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if c.Metrics.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Addr); err != nil {
			return fmt.Errorf("metrics.addr %q: %w", c.Metrics.Addr, err)
		}
	}
	return nil
}
