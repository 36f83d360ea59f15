// Package config loads replaycheck run configuration files.
//
// Files are JSON with comments and trailing commas allowed. Every field is
// optional; command line flags override what a file sets.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tailscale/hujson"
)

const maxFileSize = 1 << 20

// Config is a run configuration.
type Config struct {
	// TempDir is where per-case temporary directories are created.
	TempDir string `json:"temp_dir,omitempty"`

	// KeepTemp keeps temporary directories of passing cases.
	KeepTemp bool `json:"keep_temp,omitempty"`

	// CaptureDir receives capture files. Empty means each case's
	// temporary directory.
	CaptureDir string `json:"capture_dir,omitempty"`

	LogLevel string `json:"log_level,omitempty"`

	// Tests filters cases by name substring. Empty runs everything.
	Tests []string `json:"tests,omitempty"`

	// Timeout bounds the whole run, as a duration string like "2m".
	Timeout string `json:"timeout,omitempty"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	clean := filepath.Clean(path)
	switch ext := filepath.Ext(clean); ext {
	case ".json", ".jsonc", ".hujson":
	default:
		return nil, fmt.Errorf("config: %s: unsupported extension %q", clean, ext)
	}

	fi, err := os.Stat(clean)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if fi.Size() > maxFileSize {
		return nil, fmt.Errorf("config: %s too large: %d bytes (max %d)", clean, fi.Size(), maxFileSize)
	}
	data, err := os.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", clean, err)
	}
	return cfg, nil
}

// Parse decodes and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(std))
	dec.DisallowUnknownFields()

	cfg := &Config{}
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the level and timeout strings parse.
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level, Info when unset.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// TimeoutDuration returns the run timeout, zero when unset.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid timeout %q: negative", c.Timeout)
	}
	return d, nil
}
