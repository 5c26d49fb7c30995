// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Engine  EngineConfig  `yaml:"engine"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig represents durable storage configuration.
type StorageConfig struct {
	Path string `yaml:"path" default:"seekerplay.db" validate:"required"`
}

// EngineConfig represents playback engine configuration.
type EngineConfig struct {
	Type           string         `yaml:"type" default:"local" validate:"required"`
	Settings       map[string]any `yaml:"settings"`
	PollIntervalMs int            `yaml:"poll_interval_ms" default:"500" validate:"gte=100,lte=5000"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" default:"info"`
	Output string `yaml:"output" default:"stdout"`
}

// Load loads configuration from a YAML file. A missing file is not an
// error: defaults apply. Environment variables take precedence over file
// values for paths.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	case os.IsNotExist(err):
		// Fall through to defaults.
	default:
		return nil, errors.Wrap(err, "failed to read config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SEEKERPLAY_DB"); v != "" {
		c.Storage.Path = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}
