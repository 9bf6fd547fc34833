package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Daemon.SyncInterval != 5*time.Minute {
		t.Errorf("expected 5m sync interval, got %s", cfg.Daemon.SyncInterval)
	}
	if cfg.Daemon.DebounceInterval != 500*time.Millisecond {
		t.Errorf("expected 500ms debounce, got %s", cfg.Daemon.DebounceInterval)
	}
	if cfg.Dashboard.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Dashboard.Port)
	}
	if cfg.Dashboard.Enabled {
		t.Error("dashboard should be off by default")
	}
	if cfg.Local.DBPath == "" {
		t.Error("default db path should be set")
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if cfg.Daemon.SyncInterval != 5*time.Minute {
		t.Errorf("defaults not applied: %s", cfg.Daemon.SyncInterval)
	}
}

func TestLoadFile(t *testing.T) {
	content := `
remote:
  url: https://api.example.com
  owner_id: user-1
daemon:
  sync_interval: 90s
dashboard:
  enabled: true
  port: 9999
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Remote.URL != "https://api.example.com" {
		t.Errorf("unexpected remote url %q", cfg.Remote.URL)
	}
	if cfg.Remote.OwnerID != "user-1" {
		t.Errorf("unexpected owner %q", cfg.Remote.OwnerID)
	}
	if cfg.Daemon.SyncInterval != 90*time.Second {
		t.Errorf("unexpected sync interval %s", cfg.Daemon.SyncInterval)
	}
	if !cfg.Dashboard.Enabled || cfg.Dashboard.Port != 9999 {
		t.Errorf("dashboard config not applied: %+v", cfg.Dashboard)
	}
	// Unset knobs keep their defaults.
	if cfg.Daemon.DebounceInterval != 500*time.Millisecond {
		t.Errorf("default debounce lost: %s", cfg.Daemon.DebounceInterval)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DAYTRACK_REMOTE_API_KEY", "secret-from-env")
	t.Setenv("DAYTRACK_DASHBOARD_PORT", "7070")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Remote.APIKey != "secret-from-env" {
		t.Errorf("env api key not applied, got %q", cfg.Remote.APIKey)
	}
	if cfg.Dashboard.Port != 7070 {
		t.Errorf("env port not applied, got %d", cfg.Dashboard.Port)
	}
}
