package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // default_timezone must resolve on hosts without zoneinfo

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names.
const (
	EnvPrefix     = "LUMASYNC_"
	EnvConfigPath = "LUMASYNC_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if LUMASYNC_CONFIG is set
//  3. env (prefix LUMASYNC_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// LUMASYNC_STORE_DSN -> store_dsn. Underscores are kept so the keys
	// match the flat koanf tags on the struct.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}
	// the file path itself is not a config key
	k.Delete("config")

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	u, err := url.Parse(c.ProviderBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: provider_base_url must be an absolute URL", ErrInvalidConfig)
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("%w: fetch_timeout must not be negative", ErrInvalidConfig)
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return fmt.Errorf("%w: default_timezone %q: %w", ErrInvalidConfig, c.DefaultTimezone, err)
	}
	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite, StorePostgres:
		if c.StoreDSN == "" {
			return fmt.Errorf("%w: store_dsn is required for driver %s", ErrInvalidConfig, c.StoreDriver)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	return nil
}
