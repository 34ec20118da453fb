package service

import (
	"time"

	repository "github.com/okian/luma-sync/internal/adapters/repository"
	"github.com/okian/luma-sync/internal/domain/metadata"
	"github.com/okian/luma-sync/internal/domain/reconcile"
	"github.com/okian/luma-sync/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the canonical event store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithFetcher sets the page fetcher.
func WithFetcher(f PageFetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithDefaults sets the values applied to newly created events.
func WithDefaults(d reconcile.Defaults) Option {
	return func(s *Service) { s.defaults = d }
}

// WithCoverSize sets the size CDN cover URLs are rewritten to by the
// metadata extractor.
func WithCoverSize(size metadata.CoverSize) Option {
	return func(s *Service) { s.coverSize = size }
}

// WithQueueSize sets the capacity of the async sync queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithCalendars sets the calendars EnqueueAll triggers.
func WithCalendars(ids []string) Option {
	return func(s *Service) {
		s.calendars = append([]string(nil), ids...)
	}
}

// WithFeedName sets the name of the ICS feed.
func WithFeedName(name string) Option {
	return func(s *Service) { s.feedName = name }
}

// WithClock overrides the clock used for event status and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for the worker to drain.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}
