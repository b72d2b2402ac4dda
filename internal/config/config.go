// Package config provides layered YAML configuration for dagnav.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chazu/dagnav/internal/logging"
)

// Config is the complete dagnav configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Materials MaterialsConfig `yaml:"materials"`
	Script    ScriptConfig    `yaml:"script"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// LogConfig configures the stderr logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// MaterialsConfig tunes the suggestions offered when a material lookup
// fails.
type MaterialsConfig struct {
	// Suggestions is the maximum number of close matches reported.
	Suggestions int `yaml:"suggestions"`
	// Cutoff is the minimum similarity ratio in [0,1].
	Cutoff float64 `yaml:"cutoff"`
}

// ScriptConfig configures the script engine.
type ScriptConfig struct {
	// Timeout is the hard limit for a single script run.
	Timeout time.Duration `yaml:"timeout"`
}

// MetricsConfig configures metrics output.
type MetricsConfig struct {
	// File receives the counters in Prometheus text format when set.
	File string `yaml:"file"`
}

// DefaultConfig returns a Config with the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Materials: MaterialsConfig{
			Suggestions: 3,
			Cutoff:      0.6,
		},
		Script: ScriptConfig{
			Timeout: 5 * time.Second,
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Materials.Suggestions < 0 {
		return fmt.Errorf("config: materials.suggestions must not be negative")
	}
	if c.Materials.Cutoff < 0 || c.Materials.Cutoff > 1 {
		return fmt.Errorf("config: materials.cutoff must be between 0 and 1")
	}
	if c.Script.Timeout <= 0 {
		return fmt.Errorf("config: script.timeout must be positive")
	}
	return nil
}

// LoadFromFile reads one YAML file. Keys the file omits are left zero so
// Merge can tell them apart from explicit settings.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML, creating parent
// directories.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Merge overlays the non-zero values of other onto c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}
	if other.Materials.Suggestions != 0 {
		c.Materials.Suggestions = other.Materials.Suggestions
	}
	if other.Materials.Cutoff != 0 {
		c.Materials.Cutoff = other.Materials.Cutoff
	}
	if other.Script.Timeout != 0 {
		c.Script.Timeout = other.Script.Timeout
	}
	if other.Metrics.File != "" {
		c.Metrics.File = other.Metrics.File
	}
}
