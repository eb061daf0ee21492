package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Server != DefaultServerURL {
		t.Errorf("expected default server %q, got %q", DefaultServerURL, cfg.Server)
	}
	if cfg.Language != "French" {
		t.Errorf("expected default language 'French', got %q", cfg.Language)
	}
	if cfg.RequestTimeout != 60*time.Second {
		t.Errorf("expected default request_timeout 60s, got %v", cfg.RequestTimeout)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level 'info', got %q", cfg.Log.Level)
	}
	if cfg.Log.MaxSizeMB != 10 {
		t.Errorf("expected default log max_size_mb 10, got %d", cfg.Log.MaxSizeMB)
	}
	if cfg.History.Disabled {
		t.Error("expected history enabled by default")
	}
	if cfg.History.MaxEntries != 500 {
		t.Errorf("expected default history max_entries 500, got %d", cfg.History.MaxEntries)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server != DefaultServerURL {
		t.Errorf("expected default server, got %q", cfg.Server)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "server: https://legal.example.com\nlanguage: English\nrequest_timeout: 5s\nlog:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server != "https://legal.example.com" {
		t.Errorf("server not loaded, got %q", cfg.Server)
	}
	if cfg.Language != "English" {
		t.Errorf("language not loaded, got %q", cfg.Language)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("request_timeout not loaded, got %v", cfg.RequestTimeout)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level not loaded, got %q", cfg.Log.Level)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [broken"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("JURIS_SERVER", "https://env.example.com")
	t.Setenv("JURIS_LANGUAGE", "عربي")
	t.Setenv("JURIS_TIMEOUT", "90")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server != "https://env.example.com" {
		t.Errorf("JURIS_SERVER override not applied, got %q", cfg.Server)
	}
	if cfg.Language != "عربي" {
		t.Errorf("JURIS_LANGUAGE override not applied, got %q", cfg.Language)
	}
	if cfg.RequestTimeout != 90*time.Second {
		t.Errorf("JURIS_TIMEOUT override not applied, got %v", cfg.RequestTimeout)
	}
}
