// Package config loads and manages juris configuration.
// Configuration source priority (highest to lowest):
// 1. Environment variables (JURIS_SERVER, JURIS_LANGUAGE, etc.)
// 2. Config file path specified via --config flag
// 3. ~/.config/juris/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultServerURL is used when no server is configured anywhere.
const DefaultServerURL = "http://localhost:8000"

// Languages the answering service accepts, in display order.
// French first: the service defaults to it when the field is missing.
var Languages = []string{"French", "English", "عربي"}

// LogConfig holds settings for the rotated client log file.
type LogConfig struct {
	// File is the log file path. Empty = ~/.local/share/juris/juris.log.
	File string `yaml:"file"`

	// Level: "debug" | "info" (default) | "warn" | "error".
	Level string `yaml:"level"`

	// MaxSizeMB is the rotation threshold in megabytes.
	MaxSizeMB int `yaml:"max_size_mb"`

	// MaxBackups is how many rotated files to keep.
	MaxBackups int `yaml:"max_backups"`
}

// HistoryConfig holds settings for the local prompt-input history.
// Only typed prompts are recorded; conversation transcripts always come
// from the server and are never stored locally.
type HistoryConfig struct {
	Disabled bool `yaml:"disabled"`

	// Path is the history database path. Empty = ~/.local/share/juris/history.db.
	Path string `yaml:"path"`

	// MaxEntries caps how many prompts are retained, default 500.
	MaxEntries int `yaml:"max_entries"`
}

// Config is the complete configuration structure for juris.
type Config struct {
	// Server is the base URL of the legal-assistant service.
	Server string `yaml:"server"`

	// Language is forwarded verbatim with every prompt submission.
	Language string `yaml:"language"`

	// RequestTimeout bounds every remote call. 0 = no client-side timeout;
	// the transport's own behavior applies.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Log holds settings for the client log file.
	Log LogConfig `yaml:"log"`

	// History holds settings for the prompt-input history.
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server:         DefaultServerURL,
		Language:       "French",
		RequestTimeout: 60 * time.Second,
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		History: HistoryConfig{
			MaxEntries: 500,
		},
	}
}

// Dir returns the juris config directory (~/.config/juris).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "juris"), nil
}

// DataDir returns the juris data directory (~/.local/share/juris).
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "juris"), nil
}

// Load reads the config file and merges environment variable overrides.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Determine config file path
	if configPath == "" {
		if dir, err := Dir(); err == nil {
			configPath = filepath.Join(dir, "config.yaml")
		}
	}

	// Read config file (use defaults if not found)
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.Server == "" {
		cfg.Server = DefaultServerURL
	}
	if cfg.Language == "" {
		cfg.Language = "French"
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("JURIS_SERVER"); v != "" {
		cfg.Server = v
	}
	if v := os.Getenv("JURIS_LANGUAGE"); v != "" {
		cfg.Language = v
	}
	if v := os.Getenv("JURIS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		} else if secs, err := strconv.Atoi(v); err == nil {
			cfg.RequestTimeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("JURIS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// SaveLanguage persists the selected language into the config file,
// preserving all other user settings.
func SaveLanguage(language string) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	cfgPath := filepath.Join(dir, "config.yaml")

	// Read existing file into a generic map to preserve unknown fields.
	raw := make(map[string]any)
	if data, err := os.ReadFile(cfgPath); err == nil {
		_ = yaml.Unmarshal(data, &raw) // ignore errors; start fresh if corrupt
	}
	raw["language"] = language

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(cfgPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
