// Package repository defines the canonical event store contract and its
// implementations.
package repository

import (
	"context"

	"github.com/okian/luma-sync/internal/domain/model"
)

// ListFilter narrows List results.
type ListFilter struct {
	// PublishedOnly hides events administrators have unpublished.
	PublishedOnly bool
	// CalendarID restricts results to one source calendar when set.
	CalendarID string
	// Limit caps the number of results; zero means no cap.
	Limit int
}

// Store persists canonical events keyed by slug.
//
// Implementations must enforce slug uniqueness. There is deliberately no
// delete operation: removing an event is an administrative action outside
// this service.
type Store interface {
	// FindBySlug returns the event with the given slug or ErrNotFound.
	FindBySlug(ctx context.Context, slug string) (model.CanonicalEvent, error)

	// Create inserts ev, assigning ID and timestamps when unset.
	// Returns ErrDuplicateSlug when the slug is already stored.
	Create(ctx context.Context, ev *model.CanonicalEvent) error

	// Update overwrites every column of the stored event with the same slug.
	// Returns ErrNotFound if there is none.
	Update(ctx context.Context, ev *model.CanonicalEvent) error

	// List returns events ordered by start date ascending.
	List(ctx context.Context, filter ListFilter) ([]model.CanonicalEvent, error)

	// Count returns the number of stored events.
	Count(ctx context.Context) (int64, error)
}
