// Package config loads tally's settings from defaults, an optional TOML file
// and TALLY_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DBPath       string        `toml:"db_path"`
	LogPath      string        `toml:"log_path"`
	LogLevel     string        `toml:"log_level"`
	TickInterval time.Duration `toml:"tick_interval"`
}

// Dir is tally's directory under the user config dir.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(base, "tally"), nil
}

// DefaultPath is where Load looks for config.toml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func Default() *Config {
	cfg := &Config{
		LogLevel:     "info",
		TickInterval: time.Second,
	}
	if dir, err := Dir(); err == nil {
		cfg.DBPath = filepath.Join(dir, "tally.db")
		cfg.LogPath = filepath.Join(dir, "tally.log")
	}
	return cfg
}

// Load reads the config file at the default path. A missing file is not an
// error.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath starts from Default, decodes the TOML file at path over it if
// the file exists, applies environment overrides and validates the result.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies environment variables on top of the current values.
//
// Supported environment variables:
//   - TALLY_DB_PATH: overrides db_path
//   - TALLY_LOG_PATH: overrides log_path
//   - TALLY_LOG_LEVEL: overrides log_level
//   - TALLY_TICK: overrides tick_interval, as a Go duration ("500ms", "2s")
//
// An unparsable TALLY_TICK is ignored.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("TALLY_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("TALLY_LOG_PATH"); v != "" {
		c.LogPath = v
	}
	if v := os.Getenv("TALLY_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("TALLY_TICK"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.TickInterval = d
		}
	}
}

// Level maps LogLevel to a slog level. Validate guarantees it is known.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidationError is one invalid config field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

func (c *Config) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, ValidationError{Field: "db_path", Message: "must not be empty"})
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "log_level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.LogLevel),
		})
	}

	if c.TickInterval < 100*time.Millisecond || c.TickInterval > time.Minute {
		errs = append(errs, ValidationError{
			Field:   "tick_interval",
			Message: fmt.Sprintf("%s out of range, must be between 100ms and 1m", c.TickInterval),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
