// Package config loads and validates typetrace configuration.
//
// Configuration comes from three layers, later layers winning:
// built-in defaults, an optional TOML file, and TYPETRACE_* environment
// variables (a .env file loaded by the binaries feeds the last layer).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config holds settings for all three typetrace binaries.
type Config struct {
	Collector CollectorConfig `toml:"collector"`
	Tracker   TrackerConfig   `toml:"tracker"`
	Listener  ListenerConfig  `toml:"listener"`
	Storage   StorageConfig   `toml:"storage"`
	Logging   LoggingConfig   `toml:"logging"`
}

// CollectorConfig configures the daemon's HTTP API.
type CollectorConfig struct {
	// Address the API listens on. Loopback only by default.
	Address string `toml:"address"`

	// RatePerMinute and Burst bound context updates per client address.
	RatePerMinute int `toml:"rate_per_minute"`
	Burst         int `toml:"burst"`
}

// TrackerConfig configures the browser-tracker agent.
type TrackerConfig struct {
	// BridgeAddress is where the extension's WebSocket connects.
	BridgeAddress string `toml:"bridge_address"`

	// CollectorURL is the fixed context-update endpoint.
	CollectorURL string `toml:"collector_url"`

	// QueryTimeoutMs bounds each tab lookup sent over the bridge.
	QueryTimeoutMs int `toml:"query_timeout_ms"`

	// Signature overrides the browser user-agent signature normally
	// received from the extension. Mainly for testing.
	Signature string `toml:"signature"`
}

// ListenerConfig configures global keystroke capture.
type ListenerConfig struct {
	Enabled        bool `toml:"enabled"`
	IdleTimeoutSec int  `toml:"idle_timeout_sec"`
}

// StorageConfig configures SQLite persistence.
type StorageConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text or json
}

// DataDir returns the platform data directory for typetrace.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".typetrace"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "typetrace")
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "typetrace")
	default:
		return filepath.Join(home, ".local", "share", "typetrace")
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DataDir(), "typetrace.toml")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Collector: CollectorConfig{
			Address:       "127.0.0.1:7890",
			RatePerMinute: 120,
			Burst:         30,
		},
		Tracker: TrackerConfig{
			BridgeAddress:  "127.0.0.1:7891",
			CollectorURL:   "http://127.0.0.1:7890/v1/context",
			QueryTimeoutMs: 2000,
		},
		Listener: ListenerConfig{
			Enabled:        true,
			IdleTimeoutSec: 5,
		},
		Storage: StorageConfig{
			Path: filepath.Join(DataDir(), "typetrace.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the config file at path if it exists, applies environment
// overrides, and validates the result. A missing file is not an error; the
// defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TYPETRACE_ADDRESS"); v != "" {
		c.Collector.Address = v
	}
	if v := os.Getenv("TYPETRACE_COLLECTOR_URL"); v != "" {
		c.Tracker.CollectorURL = v
	}
	if v := os.Getenv("TYPETRACE_BRIDGE_ADDRESS"); v != "" {
		c.Tracker.BridgeAddress = v
	}
	if v := os.Getenv("TYPETRACE_DB_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("TYPETRACE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TYPETRACE_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("TYPETRACE_LISTENER_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Listener.Enabled = b
		}
	}
}

// Validate checks the configuration for values the daemons cannot run with.
func (c *Config) Validate() error {
	if c.Collector.Address == "" {
		return errors.New("collector.address is required")
	}
	if c.Collector.RatePerMinute <= 0 || c.Collector.Burst <= 0 {
		return errors.New("collector rate limit must be positive")
	}
	if c.Tracker.CollectorURL != "" {
		if _, err := url.Parse(c.Tracker.CollectorURL); err != nil {
			return fmt.Errorf("tracker.collector_url: %w", err)
		}
	}
	if c.Tracker.QueryTimeoutMs <= 0 {
		return errors.New("tracker.query_timeout_ms must be positive")
	}
	if c.Storage.Path == "" {
		return errors.New("storage.path is required")
	}
	if c.Listener.IdleTimeoutSec <= 0 {
		return errors.New("listener.idle_timeout_sec must be positive")
	}
	return nil
}
