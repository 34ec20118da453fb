package service

import (
	"context"
	"fmt"

	"github.com/okian/luma-sync/internal/adapters/fetch"
	repository "github.com/okian/luma-sync/internal/adapters/repository"
	"github.com/okian/luma-sync/internal/config"
	"github.com/okian/luma-sync/internal/domain/metadata"
	"github.com/okian/luma-sync/internal/domain/reconcile"
	"github.com/okian/luma-sync/pkg/logger"
)

// OpenStore returns the store selected by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory, "":
		return repository.NewMemoryStore(), nil
	case config.StoreSQLite, config.StorePostgres:
		store, err := repository.NewSQLStore(ctx, cfg.StoreDriver, cfg.StoreDSN, cfg.StoreAutoMigrate)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unknown store_driver %q", config.ErrInvalidConfig, cfg.StoreDriver)
	}
}

// NewFromConfig builds the store, fetcher and Service described by cfg.
func NewFromConfig(ctx context.Context, cfg *config.Config, l logger.Logger, opts ...Option) (*Service, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	fetcher := fetch.New(
		fetch.WithBaseURL(cfg.ProviderBaseURL),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithAccept(cfg.Accept),
		fetch.WithTimeout(cfg.FetchTimeout),
	)

	base := []Option{
		WithLogger(l),
		WithStore(store),
		WithFetcher(fetcher),
		WithDefaults(reconcile.Defaults{
			Timezone:         cfg.DefaultTimezone,
			EventType:        cfg.DefaultEventType,
			RegistrationType: cfg.DefaultRegistrationType,
			AutoPublish:      cfg.AutoPublish,
		}),
		WithCoverSize(metadata.CoverSize{
			Width:   cfg.CoverImageWidth,
			Height:  cfg.CoverImageHeight,
			Quality: cfg.CoverImageQuality,
		}),
		WithQueueSize(cfg.QueueSize),
		WithCalendars(cfg.Calendars),
	}
	return New(append(base, opts...)...), nil
}
