// Package config loads NeuroLens settings from defaults, an optional YAML
// file and NEUROLENS_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/neurolens/neurolens/internal/domain"
	"github.com/neurolens/neurolens/internal/llm"
	"github.com/neurolens/neurolens/internal/local"
	"gopkg.in/yaml.v3"
)

type LogConfig struct {
	Level  string `yaml:"level"`  // trace|debug|info|warn|error
	Format string `yaml:"format"` // json|console
	File   string `yaml:"file"`   // empty writes to stderr
}

type SessionConfig struct {
	Source       string `yaml:"source"` // local|remote|mock|none
	ThrottleMs   int    `yaml:"throttle_ms"`
	MockDelayMs  int    `yaml:"mock_delay_ms"`
	TimeoutMs    int    `yaml:"timeout_ms"`
	HistoryTurns int    `yaml:"history_turns"`
	SystemPrompt string `yaml:"system_prompt"`
}

type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type Config struct {
	LLM     llm.Config    `yaml:"llm"`
	Local   local.Config  `yaml:"local"`
	Session SessionConfig `yaml:"session"`
	Journal JournalConfig `yaml:"journal"`
	Log     LogConfig     `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LLM:   llm.DefaultConfig(),
		Local: local.DefaultConfig(),
		Session: SessionConfig{
			Source:      "",
			ThrottleMs:  500,
			MockDelayMs: 600,
			TimeoutMs:   60000,
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    filepath.Join(homeDir(), "journal.db"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			File:   filepath.Join(homeDir(), "neurolens.log"),
		},
	}
}

// DefaultPath returns NEUROLENS_CONFIG or ~/.neurolens/config.yaml.
func DefaultPath() string {
	if v := os.Getenv("NEUROLENS_CONFIG"); v != "" {
		return v
	}
	return filepath.Join(homeDir(), "config.yaml")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".neurolens"
	}
	return filepath.Join(home, ".neurolens")
}

// Load reads the file at path (DefaultPath when empty) over the defaults
// and applies environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	ApplyEnv(&cfg)
	normalize(&cfg)
	return cfg, nil
}

// Save writes cfg to path as YAML, creating the directory if needed.
func Save(path string, cfg Config) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ApplyEnv overlays NEUROLENS_* variables. Invalid values are ignored.
func ApplyEnv(cfg *Config) {
	llm.ApplyEnv(&cfg.LLM)

	if v := os.Getenv("NEUROLENS_SOURCE"); v != "" {
		if _, ok := domain.ParseModelSource(v); ok {
			cfg.Session.Source = v
		}
	}
	if v := os.Getenv("NEUROLENS_LOCAL_ENDPOINT"); v != "" {
		cfg.Local.Endpoint = strings.TrimRight(strings.TrimSpace(v), "/")
	}
	if v := os.Getenv("NEUROLENS_LOCAL_MODEL"); v != "" {
		cfg.Local.DefaultModel = v
	}
	if v := os.Getenv("NEUROLENS_MODELS_DIR"); v != "" {
		cfg.Local.ModelsDir = v
	}
	if v := os.Getenv("NEUROLENS_DB"); v != "" {
		cfg.Journal.Path = v
	}
	if v := os.Getenv("NEUROLENS_JOURNAL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Journal.Enabled = b
		}
	}
	if v := os.Getenv("NEUROLENS_THROTTLE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Session.ThrottleMs = n
		}
	}
	if v := os.Getenv("NEUROLENS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("NEUROLENS_LOG_FORMAT"); v != "" {
		switch f := strings.ToLower(v); f {
		case "json", "console":
			cfg.Log.Format = f
		}
	}
	if v, ok := os.LookupEnv("NEUROLENS_LOG_FILE"); ok {
		cfg.Log.File = v
	}
}

func normalize(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Local.MinBytes <= 0 {
		cfg.Local.MinBytes = local.MinModelBytes
	}
	if cfg.Session.ThrottleMs < 0 {
		cfg.Session.ThrottleMs = 0
	}
}

// Source returns the configured initial model source.
func (c Config) Source() domain.ModelSource {
	src, _ := domain.ParseModelSource(c.Session.Source)
	return src
}
