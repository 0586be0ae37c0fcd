// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the service configuration from a YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the taskdesk-service configuration. Zero values are
// filled with defaults by Load.
type Config struct {
	// ListenAddress is the host:port the HTTP server binds.
	// Defaults to ":8080".
	ListenAddress string `yaml:"listen_address"`

	// DatabasePath is the SQLite database file. Defaults to
	// "<state_dir>/taskdesk.db".
	DatabasePath string `yaml:"database_path"`

	// StateDir holds the database and the session signing keypair.
	// Defaults to "/var/lib/taskdesk".
	StateDir string `yaml:"state_dir"`

	// SweepInterval is how often the due-date sweep runs. Defaults
	// to 24h.
	SweepInterval Duration `yaml:"sweep_interval"`

	// TokenLifetime is how long issued session tokens stay valid.
	// Defaults to 20m.
	TokenLifetime Duration `yaml:"token_lifetime"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `yaml:"log_level"`
}

// Duration wraps time.Duration so YAML values like "24h" and "20m"
// parse with time.ParseDuration.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns a Config with every field at its default.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.ListenAddress == "" {
		c.ListenAddress = ":8080"
	}
	if c.StateDir == "" {
		c.StateDir = "/var/lib/taskdesk"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = c.StateDir + "/taskdesk.db"
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = Duration(24 * time.Hour)
	}
	if c.TokenLifetime == 0 {
		c.TokenLifetime = Duration(20 * time.Minute)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Load reads a YAML config file, applies defaults, and validates. An
// empty path returns the defaults.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SweepInterval < 0 {
		return fmt.Errorf("config: sweep_interval must be positive")
	}
	if c.TokenLifetime < 0 {
		return fmt.Errorf("config: token_lifetime must be positive")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps LogLevel to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
}
