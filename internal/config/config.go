// Package config loads and validates the matcher service's YAML
// configuration, grounded on the Load/Parse/validate/setDefaults shape of
// the style of this codebase's backend configuration loader.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level tamatch.yaml configuration.
type Config struct {
	// Backend configures the external model-checker invocation.
	Backend BackendConfig `yaml:"backend"`

	// Matching configures default matcher behavior; callers may still
	// override per-request flags.
	Matching MatchingConfig `yaml:"matching"`

	// Cache configures the sqlite-backed result cache.
	Cache CacheConfig `yaml:"cache"`

	// GRPC configures the matcher service's network listener.
	GRPC GRPCConfig `yaml:"grpc"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level,omitempty"`
}

// BackendConfig points at the external model-checker executable.
type BackendConfig struct {
	// VerifytaPath is the path to the verifyta binary.
	VerifytaPath string `yaml:"verifyta_path"`

	// Timeout bounds a single invocation; zero means no timeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// ExtraArgs are appended verbatim to every invocation.
	ExtraArgs []string `yaml:"extra_args,omitempty"`
}

// MatchingConfig carries the default matcher configuration flags from
// the matcher builder.
type MatchingConfig struct {
	SupportLocationMatching  bool           `yaml:"support_location_matching"`
	SupportCommittedMatching bool           `yaml:"support_committed_matching"`
	SupportShiftedMatching   bool           `yaml:"support_shifted_matching"`
	SupportPartialMatching   bool           `yaml:"support_partial_matching"`
	AllowedDeviations        map[string]int `yaml:"allowed_deviations,omitempty"`
	MaximumInitialDelay      int            `yaml:"maximum_initial_delay,omitempty"`
}

// CacheConfig configures the sqlite result cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// GRPCConfig configures the network listener for pkg/matchsvc.
type GRPCConfig struct {
	Address        string `yaml:"address"`
	ReflectionOn   bool   `yaml:"reflection,omitempty"`
}

// Load reads and parses path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses configuration content from data. path is used only in error
// messages.
func Parse(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

func (c *Config) validate(path string) error {
	if c.Backend.VerifytaPath == "" {
		return fmt.Errorf("%s: backend.verifyta_path is required", path)
	}
	for name, dev := range c.Matching.AllowedDeviations {
		if dev < 0 {
			return fmt.Errorf("%s: matching.allowed_deviations[%s] must be non-negative, got %d", path, name, dev)
		}
	}
	if c.Matching.MaximumInitialDelay < 0 {
		return fmt.Errorf("%s: matching.maximum_initial_delay must be non-negative", path)
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		return fmt.Errorf("%s: cache.path is required when cache.enabled is true", path)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 30 * time.Second
	}
	if c.GRPC.Address == "" {
		c.GRPC.Address = "127.0.0.1:7070"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
