package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadFromPath_MissingFile(t *testing.T) {
	cfg, err := LoadFromPath("/nonexistent/path/config.json")
	if err != nil {
		t.Fatalf("expected default config for missing file, got error: %v", err)
	}

	if cfg.StorageBackend != BackendFile {
		t.Errorf("expected default storage_backend=file, got %s", cfg.StorageBackend)
	}
	if cfg.PollIntervalSeconds != 5 {
		t.Errorf("expected default poll_interval_seconds=5, got %d", cfg.PollIntervalSeconds)
	}
	if cfg.WaitTimeoutSeconds != 300 {
		t.Errorf("expected default wait_timeout_seconds=300, got %d", cfg.WaitTimeoutSeconds)
	}
	if !cfg.AutoPhase {
		t.Error("expected auto_phase=true by default")
	}
	if strings.HasPrefix(cfg.StorageDir, "~") {
		t.Errorf("expected storage_dir to be expanded, got %s", cfg.StorageDir)
	}
}

func TestLoadFromPath_PartialConfig(t *testing.T) {
	path := writeConfig(t, `{"poll_interval_seconds": 2, "auto_phase": false}`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.PollIntervalSeconds != 2 {
		t.Errorf("expected poll_interval_seconds=2, got %d", cfg.PollIntervalSeconds)
	}
	if cfg.AutoPhase {
		t.Error("expected auto_phase=false from file")
	}
	// Untouched fields keep defaults
	if cfg.DefaultSource != "claude-code" {
		t.Errorf("expected default_source=claude-code, got %s", cfg.DefaultSource)
	}
	if cfg.LocalDirName != ".plan-bridge" {
		t.Errorf("expected local_dir_name=.plan-bridge, got %s", cfg.LocalDirName)
	}
}

func TestLoadFromPath_SQLiteBackend(t *testing.T) {
	path := writeConfig(t, `{"storage_backend": "sqlite", "database_path": "~/plans/bridge.db"}`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	home, _ := os.UserHomeDir()
	want := filepath.Join(home, "plans", "bridge.db")
	if cfg.DatabasePath != want {
		t.Errorf("DatabasePath = %s, want %s", cfg.DatabasePath, want)
	}
}

func TestLoadFromPath_InvalidJSON(t *testing.T) {
	path := writeConfig(t, `{not json`)

	if _, err := LoadFromPath(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLoadFromPath_InvalidValues(t *testing.T) {
	path := writeConfig(t, `{"storage_backend": "redis", "poll_interval_seconds": 0, "default_scope": "team"}`)

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatal("expected validation error")
	}

	msg := err.Error()
	for _, want := range []string{"storage_backend", "poll_interval_seconds", "default_scope"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected error to mention %s, got: %s", want, msg)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty source", func(c *Config) { c.DefaultSource = "" }, true},
		{"nested local dir", func(c *Config) { c.LocalDirName = "a/b" }, true},
		{"zero timeout", func(c *Config) { c.WaitTimeoutSeconds = 0 }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"upper log level", func(c *Config) { c.LogLevel = "DEBUG" }, false},
		{"sqlite without path", func(c *Config) {
			c.StorageBackend = BackendSQLite
			c.DatabasePath = ""
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExpandPaths_Idempotent(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ExpandPaths(); err != nil {
		t.Fatalf("ExpandPaths() error: %v", err)
	}
	first := cfg.StorageDir
	if err := cfg.ExpandPaths(); err != nil {
		t.Fatalf("second ExpandPaths() error: %v", err)
	}
	if cfg.StorageDir != first {
		t.Errorf("ExpandPaths not idempotent: %s != %s", cfg.StorageDir, first)
	}
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.PollInterval() != 5*time.Second {
		t.Errorf("PollInterval() = %v, want 5s", cfg.PollInterval())
	}
	if cfg.WaitTimeout() != 300*time.Second {
		t.Errorf("WaitTimeout() = %v, want 300s", cfg.WaitTimeout())
	}
}
