// Package config loads runtime settings. Precedence, lowest first: built-in
// defaults, an optional YAML file, IGT_* environment variables. Command-line
// flags are applied on top by the CLI.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/headline-goat/intent-goat/internal/identity"
	"github.com/headline-goat/intent-goat/internal/resolution"
	"github.com/headline-goat/intent-goat/internal/variant"
)

type Config struct {
	// Widget
	Endpoint        string        `yaml:"endpoint" env:"IGT_ENDPOINT"`
	ResolutionDelay time.Duration `yaml:"resolution_delay" env:"IGT_RESOLUTION_DELAY"`
	StoragePrefix   string        `yaml:"storage_prefix" env:"IGT_STORAGE_PREFIX"`
	MarkerAttr      string        `yaml:"marker_attr" env:"IGT_MARKER_ATTR"`
	SendTimeout     time.Duration `yaml:"send_timeout" env:"IGT_SEND_TIMEOUT"`

	// Storage and collector
	DBPath    string `yaml:"db_path" env:"IGT_DB_PATH"`
	Port      int    `yaml:"port" env:"IGT_PORT"`
	TokenFile string `yaml:"token_file" env:"IGT_TOKEN_FILE"`

	// Tracing, disabled when empty
	OTelEndpoint string `yaml:"otel_endpoint" env:"IGT_OTEL_ENDPOINT"`
}

func Default() Config {
	return Config{
		Endpoint:        "http://localhost:8080/events",
		ResolutionDelay: resolution.DefaultDelay,
		StoragePrefix:   variant.DefaultPrefix,
		MarkerAttr:      identity.DefaultMarker,
		SendTimeout:     30 * time.Second,
		DBPath:          "./igt.db",
		Port:            8080,
		TokenFile:       ".igt-token",
	}
}

// Load builds the configuration. path may be empty.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	if c.ResolutionDelay <= 0 {
		return fmt.Errorf("resolution delay must be positive, got %s", c.ResolutionDelay)
	}
	if c.MarkerAttr == "" {
		return fmt.Errorf("marker attribute must not be empty")
	}
	if c.SendTimeout < 0 {
		return fmt.Errorf("send timeout must not be negative, got %s", c.SendTimeout)
	}
	return nil
}
