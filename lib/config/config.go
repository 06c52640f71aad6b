// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for the deposit worker.
type Config struct {
	// Environment identifies the deployment type (development,
	// staging, production).
	Environment Environment `yaml:"environment"`

	// Queue configures the connection to the submission bus.
	Queue QueueConfig `yaml:"queue"`

	// Ledger configures the deposit ledger database.
	Ledger LedgerConfig `yaml:"ledger"`

	// Repositories is the path to the repository definitions file.
	Repositories string `yaml:"repositories"`

	// Workspace is the directory for assembled packages and
	// temporary spool files.
	Workspace string `yaml:"workspace"`

	// Status configures the deposit status poller.
	Status StatusConfig `yaml:"status"`

	// Log configures the worker's logger.
	Log LogConfig `yaml:"log"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Queue        *QueueConfig  `yaml:"queue,omitempty"`
	Ledger       *LedgerConfig `yaml:"ledger,omitempty"`
	Repositories string        `yaml:"repositories,omitempty"`
	Workspace    string        `yaml:"workspace,omitempty"`
	Status       *StatusConfig `yaml:"status,omitempty"`
	Log          *LogConfig    `yaml:"log,omitempty"`
}

// QueueConfig configures the connection to the submission bus.
type QueueConfig struct {
	// URL is the NATS server URL.
	// Default: nats://127.0.0.1:4222
	URL string `yaml:"url"`

	// Name identifies the connection in server monitoring.
	// Default: deposit-worker
	Name string `yaml:"name"`
}

// LedgerConfig configures the deposit ledger database.
type LedgerConfig struct {
	// Path is the SQLite database file.
	// Default: ${DEPOSIT_WORKSPACE}/ledger.db
	Path string `yaml:"path"`

	// PoolSize is the connection pool size.
	// Default: 4
	PoolSize int `yaml:"pool_size"`
}

// StatusConfig configures the deposit status poller.
type StatusConfig struct {
	// Interval is how often pending deposits are re-checked, as a
	// Go duration string.
	// Default: 1m
	Interval string `yaml:"interval"`

	// Timeout bounds a single statement fetch, as a Go duration
	// string.
	// Default: 30s
	Timeout string `yaml:"timeout"`
}

// LogConfig configures the worker's logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// Format is text or json.
	// Default: text (development), json (production)
	Format string `yaml:"format"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultWorkspace := filepath.Join(homeDir, ".cache", "deposit")

	return &Config{
		Environment: Development,
		Queue: QueueConfig{
			URL:  "nats://127.0.0.1:4222",
			Name: "deposit-worker",
		},
		Ledger: LedgerConfig{
			Path:     filepath.Join(defaultWorkspace, "ledger.db"),
			PoolSize: 4,
		},
		Workspace: defaultWorkspace,
		Status: StatusConfig{
			Interval: "1m",
			Timeout:  "30s",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from the DEPOSIT_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if DEPOSIT_CONFIG is not set,
// this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("DEPOSIT_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("DEPOSIT_CONFIG environment variable not set; " +
			"set it to the path of your deposit.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is applied over [Default], then the matching
// environment section, then the fixed DEPOSIT_* override set, then
// variable expansion on path fields.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.applyEnvOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: structured logs.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Log: &LogConfig{Format: "json"},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Queue != nil {
		if overrides.Queue.URL != "" {
			c.Queue.URL = overrides.Queue.URL
		}
		if overrides.Queue.Name != "" {
			c.Queue.Name = overrides.Queue.Name
		}
	}

	if overrides.Ledger != nil {
		if overrides.Ledger.Path != "" {
			c.Ledger.Path = overrides.Ledger.Path
		}
		if overrides.Ledger.PoolSize != 0 {
			c.Ledger.PoolSize = overrides.Ledger.PoolSize
		}
	}

	if overrides.Repositories != "" {
		c.Repositories = overrides.Repositories
	}
	if overrides.Workspace != "" {
		c.Workspace = overrides.Workspace
	}

	if overrides.Status != nil {
		if overrides.Status.Interval != "" {
			c.Status.Interval = overrides.Status.Interval
		}
		if overrides.Status.Timeout != "" {
			c.Status.Timeout = overrides.Status.Timeout
		}
	}

	if overrides.Log != nil {
		if overrides.Log.Level != "" {
			c.Log.Level = overrides.Log.Level
		}
		if overrides.Log.Format != "" {
			c.Log.Format = overrides.Log.Format
		}
	}
}

// applyEnvOverrides applies the fixed DEPOSIT_* override set. The
// table here is the complete list; no other variables are consulted.
func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		name  string
		field *string
	}{
		{"DEPOSIT_QUEUE_URL", &c.Queue.URL},
		{"DEPOSIT_LEDGER_PATH", &c.Ledger.Path},
		{"DEPOSIT_REPOSITORIES", &c.Repositories},
		{"DEPOSIT_WORKSPACE", &c.Workspace},
		{"DEPOSIT_LOG_LEVEL", &c.Log.Level},
		{"DEPOSIT_LOG_FORMAT", &c.Log.Format},
	}
	for _, o := range overrides {
		if value := os.Getenv(o.name); value != "" {
			*o.field = value
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"DEPOSIT_WORKSPACE": c.Workspace,
		"HOME":              os.Getenv("HOME"),
	}

	c.Workspace = expandVars(c.Workspace, vars)
	vars["DEPOSIT_WORKSPACE"] = c.Workspace // Update for dependent paths.

	c.Ledger.Path = expandVars(c.Ledger.Path, vars)
	c.Repositories = expandVars(c.Repositories, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Queue.URL == "" {
		errs = append(errs, fmt.Errorf("queue.url is required"))
	}

	if c.Ledger.Path == "" {
		errs = append(errs, fmt.Errorf("ledger.path is required"))
	}
	if c.Ledger.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("ledger.pool_size must be at least 1"))
	}

	if c.Repositories == "" {
		errs = append(errs, fmt.Errorf("repositories is required"))
	}

	if c.Workspace == "" {
		errs = append(errs, fmt.Errorf("workspace is required"))
	}

	if _, err := parsePositiveDuration(c.Status.Interval); err != nil {
		errs = append(errs, fmt.Errorf("status.interval: %w", err))
	}
	if _, err := parsePositiveDuration(c.Status.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("status.timeout: %w", err))
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !contains(levels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", levels))
	}
	formats := []string{"text", "json"}
	if !contains(formats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of: %v", formats))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func parsePositiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %s is not positive", s)
	}
	return d, nil
}

// StatusInterval returns the poll interval. Call Validate first; an
// unparseable string falls back to one minute.
func (c *Config) StatusInterval() time.Duration {
	d, err := parsePositiveDuration(c.Status.Interval)
	if err != nil {
		return time.Minute
	}
	return d
}

// StatusTimeout returns the per-fetch timeout. Call Validate first;
// an unparseable string falls back to thirty seconds.
func (c *Config) StatusTimeout() time.Duration {
	d, err := parsePositiveDuration(c.Status.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// SlogLevel maps Log.Level to a slog level. Unknown levels map to
// info; Validate rejects them first.
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
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

// EnsureWorkspace creates the workspace and the ledger's parent
// directory if they don't exist.
func (c *Config) EnsureWorkspace() error {
	paths := []string{
		c.Workspace,
		filepath.Dir(c.Ledger.Path),
	}

	for _, path := range paths {
		if path == "" || path == "." {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
