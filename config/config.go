// Package config loads the optional netprune config file. Flags
// override everything here; the file just sets defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration accepts yaml values like "5m" or "90s".
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config represents the main configuration
type Config struct {
	Version        string   `yaml:"version"`
	Profile        string   `yaml:"profile,omitempty"`
	Regions        []string `yaml:"regions,omitempty"`
	MaxWorkers     int      `yaml:"max_workers,omitempty"`
	RegionTimeout  Duration `yaml:"region_timeout,omitempty"`
	ExcludeDefault *bool    `yaml:"exclude_default,omitempty"`
	MetricsAddr    string   `yaml:"metrics_addr,omitempty"`
	Output         string   `yaml:"output,omitempty"`
	LogLevel       string   `yaml:"log_level,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	excludeDefault := true
	return &Config{
		Version:        "1",
		MaxWorkers:     10,
		RegionTimeout:  Duration(5 * time.Minute),
		ExcludeDefault: &excludeDefault,
		Output:         "table",
		LogLevel:       "info",
	}
}

// LoadConfig loads configuration from file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate ensures config has required fields
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("version is required")
	}
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("max_workers must be positive")
	}
	if c.RegionTimeout <= 0 {
		return fmt.Errorf("region_timeout must be positive")
	}
	switch c.Output {
	case "table", "json", "csv":
	default:
		return fmt.Errorf("output must be table, json or csv")
	}
	return nil
}

// ExcludesDefault reports whether default resources stay out of
// results. Unset means yes.
func (c *Config) ExcludesDefault() bool {
	if c.ExcludeDefault == nil {
		return true
	}
	return *c.ExcludeDefault
}
