// Package reconcile writes normalized events into the store, creating new
// events and refreshing known ones without touching curation fields.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/luma-sync/internal/adapters/repository"
	"github.com/okian/luma-sync/internal/domain/model"
	"github.com/okian/luma-sync/pkg/logger"
	"github.com/okian/luma-sync/pkg/metrics"
)

const (
	statusUpcoming = model.StatusUpcoming
	statusPast     = model.StatusPast
)

// Defaults are applied to events created by a sync.
type Defaults struct {
	Timezone         string
	EventType        string
	RegistrationType string
	AutoPublish      bool
}

// DefaultDefaults returns the stock creation defaults.
func DefaultDefaults() Defaults {
	return Defaults{
		Timezone:         "America/Mexico_City",
		EventType:        model.EventTypeInPerson,
		RegistrationType: "EXTERNAL",
		AutoPublish:      true,
	}
}

// Action is what happened to one event.
type Action int

// Actions.
const (
	ActionFailed Action = iota
	ActionCreated
	ActionUpdated
)

func (a Action) String() string {
	switch a {
	case ActionCreated:
		return "created"
	case ActionUpdated:
		return "updated"
	default:
		return "failed"
	}
}

// Outcome is the result of reconciling one normalized event.
type Outcome struct {
	Slug   string
	Action Action
	Err    error
}

// Store is the subset of the repository the reconciler needs.
type Store interface {
	FindBySlug(ctx context.Context, slug string) (model.CanonicalEvent, error)
	Create(ctx context.Context, ev *model.CanonicalEvent) error
	Update(ctx context.Context, ev *model.CanonicalEvent) error
}

// Reconciler applies normalized events to a Store one at a time.
type Reconciler struct {
	store    Store
	defaults Defaults
	loc      *time.Location
	now      func() time.Time
	log      logger.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithDefaults sets the creation defaults.
func WithDefaults(d Defaults) Option {
	return func(r *Reconciler) { r.defaults = d }
}

// WithLogger sets the logger used for per-event failures.
func WithLogger(l logger.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.log = l
		}
	}
}

// WithClock overrides the clock used for status and last-synced time.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates a Reconciler writing to store.
func New(store Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:    store,
		defaults: DefaultDefaults(),
		now:      time.Now,
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.loc = time.UTC
	if loc, err := time.LoadLocation(r.defaults.Timezone); err == nil {
		r.loc = loc
	}
	return r
}

// Reconcile processes events strictly in order. A failure on one event is
// logged and recorded in its Outcome; the remaining events still run.
func (r *Reconciler) Reconcile(ctx context.Context, events []model.NormalizedEvent) []Outcome {
	out := make([]Outcome, 0, len(events))
	for _, ev := range events {
		o := r.One(ctx, ev)
		if o.Err != nil {
			metrics.RecordReconcileError()
			r.log.Error(ctx, "failed to reconcile event",
				logger.String("slug", ev.Slug),
				logger.String("calendar", ev.CalendarID),
				logger.Error(o.Err),
			)
		}
		out = append(out, o)
	}
	return out
}

// One reconciles a single event.
func (r *Reconciler) One(ctx context.Context, ev model.NormalizedEvent) Outcome {
	if ev.Slug == "" {
		return Outcome{Action: ActionFailed, Err: ErrMissingSlug}
	}
	fields, err := r.syncFields(ev)
	if err != nil {
		return Outcome{Slug: ev.Slug, Action: ActionFailed, Err: err}
	}

	existing, err := r.store.FindBySlug(ctx, ev.Slug)
	switch {
	case err == nil:
		if err := r.update(ctx, existing, fields); err != nil {
			return Outcome{Slug: ev.Slug, Action: ActionFailed, Err: err}
		}
		metrics.RecordEventUpdated()
		return Outcome{Slug: ev.Slug, Action: ActionUpdated}
	case errors.Is(err, repository.ErrNotFound):
		if err := r.create(ctx, fields); err != nil {
			return Outcome{Slug: ev.Slug, Action: ActionFailed, Err: err}
		}
		metrics.RecordEventCreated()
		return Outcome{Slug: ev.Slug, Action: ActionCreated}
	default:
		return Outcome{Slug: ev.Slug, Action: ActionFailed, Err: fmt.Errorf("lookup %s: %w", ev.Slug, err)}
	}
}

// syncFields builds the sync-owned part of a canonical event.
func (r *Reconciler) syncFields(ev model.NormalizedEvent) (model.CanonicalEvent, error) {
	start, err := ParseDate(ev.StartDate, r.loc)
	if err != nil {
		return model.CanonicalEvent{}, fmt.Errorf("start date of %s: %w", ev.Slug, err)
	}
	var end *time.Time
	if ev.EndDate != nil {
		t, err := ParseDate(*ev.EndDate, r.loc)
		if err != nil {
			return model.CanonicalEvent{}, fmt.Errorf("end date of %s: %w", ev.Slug, err)
		}
		end = &t
	}

	now := r.now()
	return model.CanonicalEvent{
		Slug:         ev.Slug,
		SourceURL:    ev.SourceURL,
		Title:        ev.Title,
		StartDate:    start,
		EndDate:      end,
		Location:     ev.Location,
		Coordinates:  ev.Coordinates,
		CoverImage:   ev.CoverImage,
		CalendarID:   ev.CalendarID,
		Status:       StatusAt(start, end, now),
		LastSyncedAt: now,
	}, nil
}

func (r *Reconciler) create(ctx context.Context, ev model.CanonicalEvent) error {
	ev.IsPublished = r.defaults.AutoPublish
	ev.IsFeatured = false
	ev.RegistrationCount = 0
	ev.RegistrationType = r.defaults.RegistrationType
	ev.EventType = r.defaults.EventType
	ev.Timezone = r.defaults.Timezone
	ev.Hosts = []string{}
	if err := r.store.Create(ctx, &ev); err != nil {
		return fmt.Errorf("create %s: %w", ev.Slug, err)
	}
	return nil
}

// update copies sync-owned fields onto the stored row. Curation fields,
// event type, timezone, hosts and registration data keep stored values.
func (r *Reconciler) update(ctx context.Context, stored, fields model.CanonicalEvent) error {
	isPublished, isFeatured := stored.IsPublished, stored.IsFeatured

	stored.SourceURL = fields.SourceURL
	stored.Title = fields.Title
	stored.StartDate = fields.StartDate
	stored.EndDate = fields.EndDate
	stored.Location = fields.Location
	stored.Coordinates = fields.Coordinates
	stored.CoverImage = fields.CoverImage
	stored.CalendarID = fields.CalendarID
	stored.Status = fields.Status
	stored.LastSyncedAt = fields.LastSyncedAt

	stored.IsPublished = isPublished
	stored.IsFeatured = isFeatured

	if err := r.store.Update(ctx, &stored); err != nil {
		return fmt.Errorf("update %s: %w", stored.Slug, err)
	}
	return nil
}

// Aggregate folds outcomes into a successful run result. skipped is the
// number of raw objects dropped before reconciliation.
func Aggregate(calendarID string, outcomes []Outcome, skipped int) model.SyncRunResult {
	res := model.SyncRunResult{
		Success:    true,
		CalendarID: calendarID,
		Synced:     len(outcomes),
		Skipped:    skipped,
	}
	for _, o := range outcomes {
		switch o.Action {
		case ActionCreated:
			res.Created++
		case ActionUpdated:
			res.Updated++
		default:
			res.Errors++
		}
	}
	res.Message = res.Summary()
	return res
}
