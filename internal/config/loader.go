package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "EDURATE_"
	envConfigPath = "EDURATE_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if EDURATE_CONFIG is set
//  3. env (prefix EDURATE_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(envConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// EDURATE_ADDR -> addr, EDURATE_STORE__DRIVER -> store.driver.
	// Single underscores are kept to match the koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(envPrefix))
		if s == "config" {
			return ""
		}
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields the service cannot run without.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.Store.Driver {
	case "file", "sqlite", "redis":
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, c.Store.Driver)
	}
	if c.Feedback.QueueSize <= 0 {
		return fmt.Errorf("%w: feedback.queue_size must be positive", ErrInvalidConfig)
	}
	if c.Feedback.DedupeSize <= 0 {
		return fmt.Errorf("%w: feedback.dedupe_size must be positive", ErrInvalidConfig)
	}
	if c.Improvement.DefaultTasks <= 0 {
		return fmt.Errorf("%w: improvement.default_tasks must be positive", ErrInvalidConfig)
	}
	if c.Rating.HistoryLimit < 0 {
		return fmt.Errorf("%w: rating.history_limit must not be negative", ErrInvalidConfig)
	}
	if c.TextGen.TimeoutMS <= 0 {
		return fmt.Errorf("%w: textgen.timeout_ms must be positive", ErrInvalidConfig)
	}
	return nil
}
