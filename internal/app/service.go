// Package service orchestrates calendar sync runs and exposes the
// operations the HTTP API and CLI depend on.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/okian/luma-sync/internal/adapters/fetch"
	"github.com/okian/luma-sync/internal/adapters/ics"
	eventqueue "github.com/okian/luma-sync/internal/adapters/mq/queue"
	"github.com/okian/luma-sync/internal/adapters/mq/worker"
	repository "github.com/okian/luma-sync/internal/adapters/repository"
	"github.com/okian/luma-sync/internal/domain/extract"
	"github.com/okian/luma-sync/internal/domain/inflight"
	"github.com/okian/luma-sync/internal/domain/metadata"
	"github.com/okian/luma-sync/internal/domain/model"
	"github.com/okian/luma-sync/internal/domain/normalize"
	"github.com/okian/luma-sync/internal/domain/reconcile"
	"github.com/okian/luma-sync/pkg/logger"
	"github.com/okian/luma-sync/pkg/metrics"
)

// PageFetcher retrieves provider pages by calendar id or event slug.
type PageFetcher interface {
	FetchCalendar(ctx context.Context, id string) (string, error)
}

// Service runs the ingestion pipeline against a store.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	fetcher    PageFetcher
	reconciler *reconcile.Reconciler
	extractor  *metadata.Extractor
	guard      inflight.Guard
	queue      eventqueue.Queue
	worker     *worker.Worker
	feed       *ics.Feed

	// Configuration
	defaults        reconcile.Defaults
	coverSize       metadata.CoverSize
	queueSize       int
	calendars       []string
	feedName        string
	shutdownTimeout time.Duration
	now             func() time.Time

	// State
	started    bool
	stopped    bool
	stopWorker context.CancelFunc
	lastRuns   map[string]model.SyncRunResult

	logger logger.Logger
}

// New constructs a Service. Without options it syncs into an in-memory
// store from the public provider.
func New(opts ...Option) *Service {
	s := &Service{
		store:           repository.NewMemoryStore(),
		fetcher:         fetch.New(),
		guard:           inflight.NewInMemoryGuard(),
		defaults:        reconcile.DefaultDefaults(),
		coverSize:       metadata.CoverSize{Width: 1200, Height: 630, Quality: 90},
		queueSize:       64,
		feedName:        "Community events",
		shutdownTimeout: 30 * time.Second,
		now:             time.Now,
		lastRuns:        make(map[string]model.SyncRunResult),
		logger:          logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.reconciler = reconcile.New(s.store,
		reconcile.WithDefaults(s.defaults),
		reconcile.WithLogger(s.logger.Named("reconcile")),
		reconcile.WithClock(s.now),
	)
	s.extractor = metadata.New(s.fetcher,
		metadata.WithDefaultTimezone(s.defaults.Timezone),
		metadata.WithCoverSize(s.coverSize),
	)
	s.feed = ics.New(ics.WithName(s.feedName), ics.WithClock(s.now))
	return s
}

// Start launches the async queue and its single worker. Synchronous runs
// work without Start.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.stopped {
		return ErrStopped
	}

	s.logger.Info(ctx, "starting sync service...")

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.worker = worker.New(s.queue, s,
		worker.WithName("sync-worker"),
		worker.WithLogger(s.logger),
	)
	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.stopWorker = cancel
	go s.worker.Run(workerCtx)

	s.started = true
	s.logger.Info(ctx, "sync service started",
		logger.Int("queueSize", s.queueSize),
		logger.Int("calendars", len(s.calendars)),
	)
	return nil
}

// Stop closes the queue, lets the worker finish pending runs and closes
// the store. It is safe to call on a service that was never started.
func (s *Service) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	q, w, cancel := s.queue, s.worker, s.stopWorker
	s.started = false
	s.mu.Unlock()

	ctx := context.Background()
	if started {
		s.logger.Info(ctx, "stopping sync service...")

		// The worker records results under s.mu, so wait without holding it.
		_ = q.Close()
		select {
		case <-w.Done():
		case <-time.After(s.shutdownTimeout):
			s.logger.Warn(ctx, "worker did not drain before timeout")
		}
		cancel()
	}

	if closer, ok := s.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Error(ctx, "error closing store", logger.Error(err))
		}
	}
	s.logger.Info(ctx, "sync service stopped")
}

// SyncCalendar runs the pipeline once for calendarID. A fetch failure
// returns an unsuccessful result together with the *fetch.FetchError and
// leaves the store untouched. Per-event failures are counted in the
// result; the run itself still succeeds.
func (s *Service) SyncCalendar(ctx context.Context, calendarID string) (model.SyncRunResult, error) {
	calendarID = strings.TrimSpace(calendarID)
	if calendarID == "" {
		return model.FailedRun(calendarID, ErrEmptyCalendarID), ErrEmptyCalendarID
	}
	if !s.guard.Acquire(ctx, calendarID) {
		metrics.RecordSyncRejected()
		return model.FailedRun(calendarID, ErrRunInProgress), ErrRunInProgress
	}
	defer s.guard.Release(ctx, calendarID)

	start := time.Now()
	defer func() {
		metrics.RecordSyncDuration(float64(time.Since(start).Microseconds()) / 1000)
	}()

	page, err := s.fetcher.FetchCalendar(ctx, calendarID)
	if err != nil {
		metrics.RecordSyncRun("fetch_failed")
		s.logger.Error(ctx, "calendar fetch failed",
			logger.String("calendar", calendarID),
			logger.Error(err),
		)
		res := model.FailedRun(calendarID, err)
		s.recordRun(res)
		return res, err
	}

	found := extract.Extract(page)
	metrics.RecordEventsExtracted(len(found.Events))
	metrics.RecordBlocksMalformed(found.Malformed)

	events := make([]model.NormalizedEvent, 0, len(found.Events))
	for _, raw := range found.Events {
		if ev, ok := normalize.Normalize(raw, calendarID); ok {
			events = append(events, ev)
		}
	}
	skipped := len(found.Events) - len(events)
	metrics.RecordEventsDropped(skipped)

	outcomes := s.reconciler.Reconcile(ctx, events)
	res := reconcile.Aggregate(calendarID, outcomes, skipped)

	metrics.RecordSyncRun("success")
	metrics.MarkCalendarSynced(calendarID, s.now().Unix())
	if n, err := s.store.Count(ctx); err == nil {
		metrics.UpdateStoredEvents(n)
	}
	s.logger.Info(ctx, res.Message,
		logger.String("calendar", calendarID),
		logger.Int("blocks", found.Blocks),
		logger.Int("malformed", found.Malformed),
		logger.Duration("took", time.Since(start)),
	)
	s.recordRun(res)
	return res, nil
}

func (s *Service) recordRun(res model.SyncRunResult) {
	s.mu.Lock()
	s.lastRuns[res.CalendarID] = res
	s.mu.Unlock()
}

// Enqueue schedules an asynchronous run of calendarID.
func (s *Service) Enqueue(ctx context.Context, calendarID string) error {
	calendarID = strings.TrimSpace(calendarID)
	if calendarID == "" {
		return ErrEmptyCalendarID
	}

	s.mu.RLock()
	q, started := s.queue, s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}

	err := q.Enqueue(ctx, model.SyncRequest{CalendarID: calendarID, RequestedAt: s.now()})
	switch {
	case errors.Is(err, eventqueue.ErrFull):
		return fmt.Errorf("%w: %s", ErrQueueFull, calendarID)
	case errors.Is(err, eventqueue.ErrClosed):
		return ErrNotStarted
	case err != nil:
		return err
	}
	s.logger.Debug(ctx, "sync queued", logger.String("calendar", calendarID))
	return nil
}

// EnqueueAll schedules a run for every configured calendar and returns
// how many were queued. It stops at the first failure.
func (s *Service) EnqueueAll(ctx context.Context) (int, error) {
	if len(s.calendars) == 0 {
		return 0, ErrNoCalendars
	}
	for i, id := range s.calendars {
		if err := s.Enqueue(ctx, id); err != nil {
			return i, err
		}
	}
	return len(s.calendars), nil
}

// Calendars returns the configured calendar ids.
func (s *Service) Calendars() []string {
	return append([]string(nil), s.calendars...)
}

// ExtractMetadata derives metadata for a single event URL without
// persisting anything. Failures are *metadata.Error.
func (s *Service) ExtractMetadata(ctx context.Context, url string) (model.EventMetadata, error) {
	md, err := s.extractor.Extract(ctx, url)
	if err != nil {
		var me *metadata.Error
		if errors.As(err, &me) {
			metrics.RecordMetadataRequest(string(me.Code))
		}
		s.logger.Warn(ctx, "metadata extraction failed",
			logger.String("url", url),
			logger.Error(err),
		)
		return model.EventMetadata{}, err
	}
	metrics.RecordMetadataRequest("OK")
	return md, nil
}

// ListEvents returns stored events ordered by start date.
func (s *Service) ListEvents(ctx context.Context, filter repository.ListFilter) ([]model.CanonicalEvent, error) {
	return s.store.List(ctx, filter)
}

// GetEvent returns the event stored under slug.
func (s *Service) GetEvent(ctx context.Context, slug string) (model.CanonicalEvent, error) {
	return s.store.FindBySlug(ctx, slug)
}

// WriteCalendar renders published events as an iCalendar feed, optionally
// restricted to one source calendar.
func (s *Service) WriteCalendar(ctx context.Context, w io.Writer, calendarID string) error {
	events, err := s.store.List(ctx, repository.ListFilter{PublishedOnly: true, CalendarID: calendarID})
	if err != nil {
		return err
	}
	return s.feed.Write(w, events)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lastRuns := make(map[string]model.SyncRunResult, len(s.lastRuns))
	for id, r := range s.lastRuns {
		lastRuns[id] = r
	}
	stats := map[string]any{
		"started":   s.started,
		"queueSize": s.queueSize,
		"calendars": append([]string(nil), s.calendars...),
		"inFlight":  s.guard.Active(),
		"lastRuns":  lastRuns,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		metrics.UpdateQueueSize(queueLen)
	}
	if n, err := s.store.Count(ctx); err == nil {
		stats["storedEvents"] = n
		metrics.UpdateStoredEvents(n)
	}
	return stats
}
