package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration. Values come from the defaults, then
// the optional YAML file named by CONFIG_FILE, then the environment.
type Config struct {
	// LogDir is the root of the per-service log trees.
	LogDir string `yaml:"log_dir"`
	// RetentionDays is the age in days beyond which a daily file is deleted.
	RetentionDays int `yaml:"retention_days"`
	// CleanupIntervalHours is the minimum spacing between two sweeps.
	CleanupIntervalHours int `yaml:"cleanup_interval_hours"`
	// SweepGraceSeconds protects recently modified files from deletion.
	SweepGraceSeconds int `yaml:"sweep_grace_seconds"`
	// InputFile, when set, is followed instead of reading stdin.
	InputFile string `yaml:"input_file"`
	// MetricsAddr, when set, serves Prometheus metrics on /metrics.
	MetricsAddr string `yaml:"metrics_addr"`
	// LogLevel is the minimum level of diagnostics.
	LogLevel string `yaml:"log_level"`
	// DiagLogFile, when set, also receives diagnostics, rotated.
	DiagLogFile string `yaml:"diag_log_file"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		LogDir:               "/logs",
		RetentionDays:        30,
		CleanupIntervalHours: 1,
		SweepGraceSeconds:    60,
		LogLevel:             "info",
	}
}

// Retention returns RetentionDays as a duration.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// CleanupInterval returns CleanupIntervalHours as a duration.
func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalHours) * time.Hour
}

// SweepGrace returns SweepGraceSeconds as a duration.
func (c *Config) SweepGrace() time.Duration {
	return time.Duration(c.SweepGraceSeconds) * time.Second
}

// LoadConfig builds the configuration from getenv, usually os.Getenv.
func LoadConfig(getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()

	if path := getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.parseYAML(data); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) parseYAML(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"LOG_DIR", &c.LogDir},
		{"INPUT_FILE", &c.InputFile},
		{"METRICS_ADDR", &c.MetricsAddr},
		{"LOG_LEVEL", &c.LogLevel},
		{"DIAG_LOG_FILE", &c.DiagLogFile},
	}
	for _, s := range strs {
		if v := getenv(s.key); v != "" {
			*s.dst = v
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"RETENTION_DAYS", &c.RetentionDays},
		{"CLEANUP_INTERVAL_HOURS", &c.CleanupIntervalHours},
		{"SWEEP_GRACE_SECONDS", &c.SweepGraceSeconds},
	}
	for _, i := range ints {
		v := getenv(i.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s %q: must be an integer", i.key, v)
		}
		*i.dst = n
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.LogDir == "":
		return errors.New("log_dir must not be empty")
	case c.RetentionDays < 0:
		return fmt.Errorf("retention_days must not be negative, got %d", c.RetentionDays)
	case c.CleanupIntervalHours < 0:
		return fmt.Errorf("cleanup_interval_hours must not be negative, got %d", c.CleanupIntervalHours)
	case c.SweepGraceSeconds < 0:
		return fmt.Errorf("sweep_grace_seconds must not be negative, got %d", c.SweepGraceSeconds)
	}
	return nil
}
