// Package config loads process settings for the statelab binaries from the
// environment, optionally seeded by a .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/statelab/internal/logging"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Prefix is prepended to every variable name.
const Prefix = "STATELAB_"

// Config holds the settings shared by the CLI commands and servers.
type Config struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// RedisAddr enables the snapshot publisher when set.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisChannel  string `env:"REDIS_CHANNEL" envDefault:"statelab:snapshots"`

	// SnapshotFile enables the file publisher when set.
	SnapshotFile string `env:"SNAPSHOT_FILE"`

	ReplayDelay  time.Duration `env:"REPLAY_DELAY" envDefault:"500ms"`
	MaxInputSize int           `env:"MAX_INPUT_SIZE" envDefault:"4096"`
}

// ErrInvalid is returned when a setting is out of range.
var ErrInvalid = errors.New("invalid configuration value")

// Load reads a .env file (if present) and parses the STATELAB_ variables.
// Variables already set in the environment win over the .env file.
func Load(files ...string) (Config, error) {
	// The file is optional.
	_ = godotenv.Load(files...)

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.ReplayDelay < 0 {
		return fmt.Errorf("%w: replay delay %s is negative", ErrInvalid, c.ReplayDelay)
	}
	if c.MaxInputSize <= 0 {
		return fmt.Errorf("%w: max input size must be positive, got %d", ErrInvalid, c.MaxInputSize)
	}
	switch c.LogFormat {
	case "text", "json", "pretty":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalid, c.LogFormat)
	}
	return nil
}

// Logger builds the logger described by the settings.
func (c Config) Logger() *slog.Logger {
	level := logging.ParseLevel(c.LogLevel)
	switch c.LogFormat {
	case "json":
		return logging.NewJSON(nil, level)
	case "pretty":
		return logging.NewPretty(nil, level)
	default:
		return logging.New(level)
	}
}
