package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
env: test
http_server:
  address: ":9090"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.HTTPServer.Address != ":9090" {
		t.Errorf("Expected address :9090, got %s", cfg.HTTPServer.Address)
	}
	if cfg.Notifications.DebounceWindow != 15*time.Second {
		t.Errorf("Expected default debounce window 15s, got %s", cfg.Notifications.DebounceWindow)
	}
	if cfg.Notifications.SweepInterval != time.Second {
		t.Errorf("Expected default sweep interval 1s, got %s", cfg.Notifications.SweepInterval)
	}
	if cfg.Notifications.FlushOnShutdown {
		t.Error("Expected pending batches to be dropped on shutdown by default")
	}
	if cfg.Storage.Driver != "postgres" {
		t.Errorf("Expected postgres driver by default, got %s", cfg.Storage.Driver)
	}
	if cfg.Media.ConfirmedKeyTTL != 168*time.Hour {
		t.Errorf("Expected confirmed keys to be kept for a week, got %s", cfg.Media.ConfirmedKeyTTL)
	}
	if len(cfg.Admin.UserIDs) != 0 {
		t.Errorf("Expected no admins by default, got %v", cfg.Admin.UserIDs)
	}
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
env: test
storage:
  driver: sqlite
sqlite:
  path: /tmp/notify.db
http_server:
  address: ":8081"
notifications:
  debounce_window: 3s
  sweep_interval: 250ms
  flush_on_shutdown: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Notifications.DebounceWindow != 3*time.Second {
		t.Errorf("Expected debounce window 3s, got %s", cfg.Notifications.DebounceWindow)
	}
	if cfg.Notifications.SweepInterval != 250*time.Millisecond {
		t.Errorf("Expected sweep interval 250ms, got %s", cfg.Notifications.SweepInterval)
	}
	if !cfg.Notifications.FlushOnShutdown {
		t.Error("Expected flush_on_shutdown to be true")
	}
	if cfg.SQLite.Path != "/tmp/notify.db" {
		t.Errorf("Expected sqlite path /tmp/notify.db, got %s", cfg.SQLite.Path)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "unknown driver",
			body: "env: test\nstorage:\n  driver: mongo\nhttp_server:\n  address: \":1\"\n",
		},
		{
			name: "negative window",
			body: "env: test\nhttp_server:\n  address: \":1\"\nnotifications:\n  debounce_window: -1s\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Fatal("Expected an error")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Expected an error for a missing file")
	}
}
