// Package config provides configuration loading and validation for plan-bridge.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Standard config file location.
const defaultConfigPath = "~/.config/plan-bridge/config.json"

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds all plan-bridge configuration settings.
type Config struct {
	StorageBackend      string `json:"storage_backend"`
	StorageDir          string `json:"storage_dir"`    // Root for global plans and the project registry
	LocalDirName        string `json:"local_dir_name"` // Per-project directory holding local plans
	DatabasePath        string `json:"database_path"`  // Used by the sqlite backend
	DefaultSource       string `json:"default_source"`
	DefaultScope        string `json:"default_scope"`
	PollIntervalSeconds int    `json:"poll_interval_seconds"`
	WaitTimeoutSeconds  int    `json:"wait_timeout_seconds"`
	AutoPhase           bool   `json:"auto_phase"` // Analyze and split complex plans on submission
	LogLevel            string `json:"log_level"`

	// expandedPaths tracks whether ExpandPaths has been called.
	expandedPaths bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		StorageBackend:      BackendFile,
		StorageDir:          "~/.plan-bridge",
		LocalDirName:        ".plan-bridge",
		DatabasePath:        "~/.plan-bridge/plans.db",
		DefaultSource:       "claude-code",
		DefaultScope:        "global",
		PollIntervalSeconds: 5,
		WaitTimeoutSeconds:  300,
		AutoPhase:           true,
		LogLevel:            "info",
	}
}

// Load reads config from the standard location (~/.config/plan-bridge/config.json),
// falling back to defaults if the file doesn't exist.
// Missing fields use default values (not zero values).
func Load() (*Config, error) {
	configPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}
	return LoadFromPath(configPath)
}

// LoadFromPath reads config from a specific path.
// If the file doesn't exist, returns default config.
// If the file exists but is invalid, returns an error.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := cfg.ExpandPaths(); err != nil {
			return nil, fmt.Errorf("failed to expand paths: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse into pointer fields so unset keys keep their defaults.
	var fileCfg fileConfig
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	mergeConfig(cfg, &fileCfg)

	if err := cfg.ExpandPaths(); err != nil {
		return nil, fmt.Errorf("failed to expand paths: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// fileConfig is used for parsing JSON with pointer fields to detect what was set.
type fileConfig struct {
	StorageBackend      *string `json:"storage_backend"`
	StorageDir          *string `json:"storage_dir"`
	LocalDirName        *string `json:"local_dir_name"`
	DatabasePath        *string `json:"database_path"`
	DefaultSource       *string `json:"default_source"`
	DefaultScope        *string `json:"default_scope"`
	PollIntervalSeconds *int    `json:"poll_interval_seconds"`
	WaitTimeoutSeconds  *int    `json:"wait_timeout_seconds"`
	AutoPhase           *bool   `json:"auto_phase"`
	LogLevel            *string `json:"log_level"`
}

// mergeConfig merges file config values into the default config.
// Only non-nil values from the file config are applied.
func mergeConfig(cfg *Config, fileCfg *fileConfig) {
	if fileCfg.StorageBackend != nil {
		cfg.StorageBackend = *fileCfg.StorageBackend
	}
	if fileCfg.StorageDir != nil {
		cfg.StorageDir = *fileCfg.StorageDir
	}
	if fileCfg.LocalDirName != nil {
		cfg.LocalDirName = *fileCfg.LocalDirName
	}
	if fileCfg.DatabasePath != nil {
		cfg.DatabasePath = *fileCfg.DatabasePath
	}
	if fileCfg.DefaultSource != nil {
		cfg.DefaultSource = *fileCfg.DefaultSource
	}
	if fileCfg.DefaultScope != nil {
		cfg.DefaultScope = *fileCfg.DefaultScope
	}
	if fileCfg.PollIntervalSeconds != nil {
		cfg.PollIntervalSeconds = *fileCfg.PollIntervalSeconds
	}
	if fileCfg.WaitTimeoutSeconds != nil {
		cfg.WaitTimeoutSeconds = *fileCfg.WaitTimeoutSeconds
	}
	if fileCfg.AutoPhase != nil {
		cfg.AutoPhase = *fileCfg.AutoPhase
	}
	if fileCfg.LogLevel != nil {
		cfg.LogLevel = *fileCfg.LogLevel
	}
}

// Validate checks that all config values are valid.
func (c *Config) Validate() error {
	var errs []error

	switch c.StorageBackend {
	case BackendFile, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("storage_backend must be %q or %q, got %q", BackendFile, BackendSQLite, c.StorageBackend))
	}

	if c.StorageDir == "" {
		errs = append(errs, errors.New("storage_dir must be non-empty"))
	}

	if c.LocalDirName == "" || strings.ContainsRune(c.LocalDirName, filepath.Separator) {
		errs = append(errs, errors.New("local_dir_name must be a single non-empty path element"))
	}

	if c.StorageBackend == BackendSQLite && c.DatabasePath == "" {
		errs = append(errs, errors.New("database_path must be set for the sqlite backend"))
	}

	if c.DefaultSource == "" {
		errs = append(errs, errors.New("default_source must be non-empty"))
	}

	if c.DefaultScope != "global" && c.DefaultScope != "local" {
		errs = append(errs, fmt.Errorf("default_scope must be global or local, got %q", c.DefaultScope))
	}

	if c.PollIntervalSeconds < 1 {
		errs = append(errs, errors.New("poll_interval_seconds must be >= 1"))
	}

	if c.WaitTimeoutSeconds < 1 {
		errs = append(errs, errors.New("wait_timeout_seconds must be >= 1"))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", c.LogLevel))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// ExpandPaths expands ~ to home directory in all path fields.
func (c *Config) ExpandPaths() error {
	if c.expandedPaths {
		return nil
	}

	var err error

	c.StorageDir, err = expandPath(c.StorageDir)
	if err != nil {
		return fmt.Errorf("failed to expand storage_dir: %w", err)
	}

	c.DatabasePath, err = expandPath(c.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to expand database_path: %w", err)
	}

	c.expandedPaths = true
	return nil
}

// PollInterval returns the wait_for_status polling interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// WaitTimeout returns the default wait_for_status timeout.
func (c *Config) WaitTimeout() time.Duration {
	return time.Duration(c.WaitTimeoutSeconds) * time.Second
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}

	return filepath.Clean(path), nil
}
