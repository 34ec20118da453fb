// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New returns a Config populated with defaults.
// - Load layers defaults, an optional YAML file and environment variables.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"time"
)

// Store drivers understood by the repository wiring in cmd/.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ProviderBaseURL is the calendar provider origin; calendar pages are
	// fetched from ProviderBaseURL + "/" + calendar identifier.
	ProviderBaseURL string `koanf:"provider_base_url"`

	// UserAgent and Accept are sent on every outbound fetch.
	UserAgent string `koanf:"user_agent"`
	Accept    string `koanf:"accept"`

	// FetchTimeout bounds a single page fetch. Zero disables the timeout.
	FetchTimeout time.Duration `koanf:"fetch_timeout"`

	// Defaults applied to canonical events on first creation.
	DefaultTimezone         string `koanf:"default_timezone"`
	DefaultEventType        string `koanf:"default_event_type"`
	DefaultRegistrationType string `koanf:"default_registration_type"`
	AutoPublish             bool   `koanf:"auto_publish"`

	// StoreDriver is one of memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`
	// StoreDSN is the driver specific connection string.
	StoreDSN string `koanf:"store_dsn"`
	// StoreAutoMigrate creates or migrates the events table on startup.
	StoreAutoMigrate bool `koanf:"store_auto_migrate"`

	// QueueSize bounds the asynchronous sync run queue.
	QueueSize int `koanf:"queue_size"`

	// Calendars lists identifiers enqueued by POST /sync/enqueue-all.
	Calendars []string `koanf:"calendars"`

	// Cover image size rewrite applied by the metadata extractor.
	CoverImageWidth   int `koanf:"cover_image_width"`
	CoverImageHeight  int `koanf:"cover_image_height"`
	CoverImageQuality int `koanf:"cover_image_quality"`

	// MaxListLimit caps GET /events?limit.
	MaxListLimit int `koanf:"max_list_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		ProviderBaseURL:         "https://lu.ma",
		UserAgent:               "Mozilla/5.0 (compatible; luma-sync/1.0; +https://github.com/okian/luma-sync)",
		Accept:                  "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		FetchTimeout:            0,
		DefaultTimezone:         "America/Mexico_City",
		DefaultEventType:        "IN_PERSON",
		DefaultRegistrationType: "EXTERNAL",
		AutoPublish:             true,
		StoreDriver:             StoreMemory,
		StoreDSN:                "",
		StoreAutoMigrate:        true,
		QueueSize:               64,
		Calendars:               nil,
		CoverImageWidth:         1200,
		CoverImageHeight:        630,
		CoverImageQuality:       90,
		MaxListLimit:            500,
	}
}
