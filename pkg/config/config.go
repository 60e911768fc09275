// Package config loads YAML configuration for the scaningest CLI.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultMaxFileSize caps report uploads at 100 MiB.
const DefaultMaxFileSize = 100 << 20

// Config holds caller-side settings. The parsing core itself is
// configuration-free; these knobs belong to the CLI wrapping it.
type Config struct {
	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose"`

	// StrictDetection rejects files whose format was only guessed from
	// the extension instead of confirmed from content.
	StrictDetection bool `yaml:"strict_detection"`

	// MaxFileSize is the largest report accepted, in bytes.
	MaxFileSize int64 `yaml:"max_file_size"`

	// MetricsListen is the address for the Prometheus endpoint.
	// Empty disables the endpoint.
	MetricsListen string `yaml:"metrics_listen"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		MaxFileSize: DefaultMaxFileSize,
	}
}

// Load reads a YAML config file. A missing path returns defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	return cfg, nil
}
