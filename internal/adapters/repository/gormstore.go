package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/luma-sync/internal/domain/model"
	"github.com/okian/luma-sync/pkg/metrics"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// eventRecord is the table row for a canonical event.
type eventRecord struct {
	ID                string                      `gorm:"column:id;primaryKey;type:varchar(36)"`
	Slug              string                      `gorm:"column:slug;type:varchar(191);uniqueIndex;not null"`
	SourceURL         string                      `gorm:"column:source_url;type:text;not null"`
	Title             string                      `gorm:"column:title;type:text;not null"`
	StartDate         time.Time                   `gorm:"column:start_date;not null;index"`
	EndDate           *time.Time                  `gorm:"column:end_date"`
	Location          *string                     `gorm:"column:location;type:text"`
	Latitude          *float64                    `gorm:"column:latitude"`
	Longitude         *float64                    `gorm:"column:longitude"`
	CoverImage        *string                     `gorm:"column:cover_image;type:text"`
	CalendarID        string                      `gorm:"column:calendar_id;type:varchar(191);index"`
	EventType         string                      `gorm:"column:event_type;type:varchar(32);not null"`
	Timezone          string                      `gorm:"column:timezone;type:varchar(64);not null"`
	Hosts             datatypes.JSONSlice[string] `gorm:"column:hosts"`
	Status            string                      `gorm:"column:status;type:varchar(32)"`
	IsPublished       bool                        `gorm:"column:is_published;not null;default:false"`
	IsFeatured        bool                        `gorm:"column:is_featured;not null;default:false"`
	RegistrationCount int                         `gorm:"column:registration_count;not null;default:0"`
	RegistrationType  string                      `gorm:"column:registration_type;type:varchar(32)"`
	CreatedAt         time.Time                   `gorm:"column:created_at"`
	UpdatedAt         time.Time                   `gorm:"column:updated_at"`
	LastSyncedAt      time.Time                   `gorm:"column:last_synced_at"`
}

func (eventRecord) TableName() string { return "canonical_events" }

func toRecord(ev *model.CanonicalEvent) eventRecord {
	r := eventRecord{
		ID:                ev.ID,
		Slug:              ev.Slug,
		SourceURL:         ev.SourceURL,
		Title:             ev.Title,
		StartDate:         ev.StartDate,
		EndDate:           ev.EndDate,
		Location:          ev.Location,
		CoverImage:        ev.CoverImage,
		CalendarID:        ev.CalendarID,
		EventType:         ev.EventType,
		Timezone:          ev.Timezone,
		Hosts:             datatypes.JSONSlice[string](ev.Hosts),
		Status:            ev.Status,
		IsPublished:       ev.IsPublished,
		IsFeatured:        ev.IsFeatured,
		RegistrationCount: ev.RegistrationCount,
		RegistrationType:  ev.RegistrationType,
		CreatedAt:         ev.CreatedAt,
		UpdatedAt:         ev.UpdatedAt,
		LastSyncedAt:      ev.LastSyncedAt,
	}
	if r.Hosts == nil {
		r.Hosts = datatypes.JSONSlice[string]{}
	}
	if ev.Coordinates != nil {
		lat, lng := ev.Coordinates.Lat, ev.Coordinates.Lng
		r.Latitude, r.Longitude = &lat, &lng
	}
	return r
}

func (r eventRecord) toModel() model.CanonicalEvent {
	ev := model.CanonicalEvent{
		ID:                r.ID,
		Slug:              r.Slug,
		SourceURL:         r.SourceURL,
		Title:             r.Title,
		StartDate:         r.StartDate,
		EndDate:           r.EndDate,
		Location:          r.Location,
		CoverImage:        r.CoverImage,
		CalendarID:        r.CalendarID,
		EventType:         r.EventType,
		Timezone:          r.Timezone,
		Hosts:             []string(r.Hosts),
		Status:            r.Status,
		IsPublished:       r.IsPublished,
		IsFeatured:        r.IsFeatured,
		RegistrationCount: r.RegistrationCount,
		RegistrationType:  r.RegistrationType,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		LastSyncedAt:      r.LastSyncedAt,
	}
	if ev.Hosts == nil {
		ev.Hosts = []string{}
	}
	if r.Latitude != nil && r.Longitude != nil {
		ev.Coordinates = &model.Coordinates{Lat: *r.Latitude, Lng: *r.Longitude}
	}
	return ev
}

// GormStore is a Store backed by a SQL database through GORM. The unique
// index on slug is what makes lookups by natural key correct.
type GormStore struct {
	db   *gorm.DB
	opts options
}

// NewGormStore wraps an open database handle.
func NewGormStore(db *gorm.DB, opts ...Option) *GormStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &GormStore{db: db, opts: o}
}

// Migrate creates or updates the canonical_events table.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&eventRecord{}); err != nil {
		return fmt.Errorf("migrate canonical_events: %w", err)
	}
	return nil
}

// FindBySlug implements Store.
func (s *GormStore) FindBySlug(ctx context.Context, slug string) (model.CanonicalEvent, error) {
	defer observe(time.Now(), metrics.RecordRepositoryQueryLatency)

	var r eventRecord
	err := s.db.WithContext(ctx).Where("slug = ?", slug).Take(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CanonicalEvent{}, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	if err != nil {
		return model.CanonicalEvent{}, fmt.Errorf("find event %s: %w", slug, err)
	}
	return r.toModel(), nil
}

// Create implements Store.
func (s *GormStore) Create(ctx context.Context, ev *model.CanonicalEvent) error {
	defer observe(time.Now(), metrics.RecordRepositoryUpdateLatency)

	if err := validate(ev); err != nil {
		return err
	}
	now := s.opts.now()
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = now
	}
	ev.UpdatedAt = now

	r := toRecord(ev)
	err := s.db.WithContext(ctx).Create(&r).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", ErrDuplicateSlug, ev.Slug)
	}
	if err != nil {
		return fmt.Errorf("create event %s: %w", ev.Slug, err)
	}
	return nil
}

// Update implements Store. Every column is written, including zero values,
// so curation flags set back to false by the caller are persisted as such.
func (s *GormStore) Update(ctx context.Context, ev *model.CanonicalEvent) error {
	defer observe(time.Now(), metrics.RecordRepositoryUpdateLatency)

	if err := validate(ev); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur eventRecord
		err := tx.Select("id", "created_at").Where("slug = ?", ev.Slug).Take(&cur).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, ev.Slug)
		}
		if err != nil {
			return fmt.Errorf("find event %s: %w", ev.Slug, err)
		}

		ev.ID = cur.ID
		ev.CreatedAt = cur.CreatedAt
		ev.UpdatedAt = s.opts.now()

		r := toRecord(ev)
		if err := tx.Model(&eventRecord{}).Where("id = ?", r.ID).Select("*").Omit("id", "created_at").Updates(&r).Error; err != nil {
			return fmt.Errorf("update event %s: %w", ev.Slug, err)
		}
		return nil
	})
}

// List implements Store.
func (s *GormStore) List(ctx context.Context, filter ListFilter) ([]model.CanonicalEvent, error) {
	defer observe(time.Now(), metrics.RecordRepositoryQueryLatency)

	q := s.db.WithContext(ctx).Model(&eventRecord{})
	if filter.PublishedOnly {
		q = q.Where("is_published = ?", true)
	}
	if filter.CalendarID != "" {
		q = q.Where("calendar_id = ?", filter.CalendarID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var rows []eventRecord
	if err := q.Order("start_date ASC").Order("slug ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	out := make([]model.CanonicalEvent, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

// Count implements Store.
func (s *GormStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&eventRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
