// Package config loads the on-disk configuration for a coderloop run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults mirror the suggested retry and timeout caps for a loop run.
const (
	DefaultMaxParseFailures = 3
	DefaultMaxApplyFailures = 3
	DefaultMaxBuildFailures = 3
	DefaultBuildTimeout     = 3 * time.Minute
	// DefaultBuildErrorBudget is the truncation budget for lastBuildError,
	// 32 KiB keeps a single truncated build log well within prompt budgets.
	DefaultBuildErrorBudget = 32 * 1024
)

// Config is the top-level configuration for a loop run.
type Config struct {
	Model               string        `yaml:"model"`
	MaxParseFailures     int           `yaml:"max_parse_failures"`
	MaxApplyFailures     int           `yaml:"max_apply_failures"`
	MaxBuildFailures     int           `yaml:"max_build_failures"`
	BuildTimeout         time.Duration `yaml:"build_timeout"`
	BuildErrorBudget     int           `yaml:"build_error_budget"`
	BuildCommand         string        `yaml:"build_command"`
	TestCommand          string        `yaml:"test_command"`
	OllamaServerURL      string        `yaml:"ollama_server_url"`
	EditableIgnoreFile   string        `yaml:"editable_ignore_file"`
	AcceptImmediately    bool          `yaml:"-"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Model:              "qwen2.5-coder:32b",
		MaxParseFailures:   DefaultMaxParseFailures,
		MaxApplyFailures:   DefaultMaxApplyFailures,
		MaxBuildFailures:   DefaultMaxBuildFailures,
		BuildTimeout:       DefaultBuildTimeout,
		BuildErrorBudget:   DefaultBuildErrorBudget,
		OllamaServerURL:    "http://localhost:11434",
		EditableIgnoreFile: ".coderloopignore",
	}
}

// Load reads a YAML config file at path, applying defaults for any zero
// fields left unset. A missing file is not an error: it yields Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	d := Default()
	if cfg.Model == "" {
		cfg.Model = d.Model
	}
	if cfg.MaxParseFailures == 0 {
		cfg.MaxParseFailures = d.MaxParseFailures
	}
	if cfg.MaxApplyFailures == 0 {
		cfg.MaxApplyFailures = d.MaxApplyFailures
	}
	if cfg.MaxBuildFailures == 0 {
		cfg.MaxBuildFailures = d.MaxBuildFailures
	}
	if cfg.BuildTimeout == 0 {
		cfg.BuildTimeout = d.BuildTimeout
	}
	if cfg.BuildErrorBudget == 0 {
		cfg.BuildErrorBudget = d.BuildErrorBudget
	}
	if cfg.OllamaServerURL == "" {
		cfg.OllamaServerURL = d.OllamaServerURL
	}
	if cfg.EditableIgnoreFile == "" {
		cfg.EditableIgnoreFile = d.EditableIgnoreFile
	}
}

// Save writes cfg to path as YAML, creating parent directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
