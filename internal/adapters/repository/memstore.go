package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/luma-sync/internal/domain/model"
	"github.com/okian/luma-sync/pkg/metrics"
)

// MemoryStore is an in-memory Store keyed by slug. Values are copied in and
// out so callers never share pointers with the stored rows.
type MemoryStore struct {
	mu     sync.RWMutex
	bySlug map[string]model.CanonicalEvent
	opts   options
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{
		bySlug: make(map[string]model.CanonicalEvent),
		opts:   o,
	}
}

// FindBySlug implements Store.
func (s *MemoryStore) FindBySlug(ctx context.Context, slug string) (model.CanonicalEvent, error) {
	defer observe(time.Now(), metrics.RecordRepositoryQueryLatency)

	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.bySlug[slug]
	if !ok {
		return model.CanonicalEvent{}, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	return clone(ev), nil
}

// Create implements Store.
func (s *MemoryStore) Create(ctx context.Context, ev *model.CanonicalEvent) error {
	defer observe(time.Now(), metrics.RecordRepositoryUpdateLatency)

	if err := validate(ev); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bySlug[ev.Slug]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSlug, ev.Slug)
	}
	now := s.opts.now()
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = now
	}
	ev.UpdatedAt = now
	s.bySlug[ev.Slug] = clone(*ev)
	return nil
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, ev *model.CanonicalEvent) error {
	defer observe(time.Now(), metrics.RecordRepositoryUpdateLatency)

	if err := validate(ev); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.bySlug[ev.Slug]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, ev.Slug)
	}
	ev.ID = cur.ID
	ev.CreatedAt = cur.CreatedAt
	ev.UpdatedAt = s.opts.now()
	s.bySlug[ev.Slug] = clone(*ev)
	return nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context, filter ListFilter) ([]model.CanonicalEvent, error) {
	defer observe(time.Now(), metrics.RecordRepositoryQueryLatency)

	s.mu.RLock()
	out := make([]model.CanonicalEvent, 0, len(s.bySlug))
	for _, ev := range s.bySlug {
		if filter.PublishedOnly && !ev.IsPublished {
			continue
		}
		if filter.CalendarID != "" && ev.CalendarID != filter.CalendarID {
			continue
		}
		out = append(out, clone(ev))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].Slug < out[j].Slug
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Count implements Store.
func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.bySlug)), nil
}

func validate(ev *model.CanonicalEvent) error {
	if ev == nil || strings.TrimSpace(ev.Slug) == "" {
		return fmt.Errorf("%w: slug is required", ErrInvalidEvent)
	}
	return nil
}

// clone deep-copies the pointer and slice fields of ev.
func clone(ev model.CanonicalEvent) model.CanonicalEvent {
	if ev.EndDate != nil {
		t := *ev.EndDate
		ev.EndDate = &t
	}
	if ev.Location != nil {
		s := *ev.Location
		ev.Location = &s
	}
	if ev.Coordinates != nil {
		c := *ev.Coordinates
		ev.Coordinates = &c
	}
	if ev.CoverImage != nil {
		s := *ev.CoverImage
		ev.CoverImage = &s
	}
	hosts := make([]string, len(ev.Hosts))
	copy(hosts, ev.Hosts)
	ev.Hosts = hosts
	return ev
}

func observe(start time.Time, record func(latencyMs float64)) {
	record(float64(time.Since(start).Microseconds()) / 1000)
}
