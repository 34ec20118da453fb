// Package model contains domain models passed between layers.
package model

import "time"

// Event types.
const (
	EventTypeInPerson = "IN_PERSON"
	EventTypeVirtual  = "VIRTUAL"
)

// Event statuses derived from the event dates at sync time.
const (
	StatusUpcoming = "UPCOMING"
	StatusPast     = "PAST"
)

// UntitledEvent is the title used when the source provides none.
const UntitledEvent = "Untitled Event"

// Coordinates is a geographic point. Both axes are always set together.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CanonicalEvent is the persisted representation of one external event.
// Slug is the natural key and is unique across the store.
type CanonicalEvent struct {
	ID          string       `json:"id"`
	Slug        string       `json:"slug"`
	SourceURL   string       `json:"sourceUrl"`
	Title       string       `json:"title"`
	StartDate   time.Time    `json:"startDate"`
	EndDate     *time.Time   `json:"endDate,omitempty"`
	Location    *string      `json:"location,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	CoverImage  *string      `json:"coverImage,omitempty"`
	CalendarID  string       `json:"calendarId"`
	EventType   string       `json:"eventType"`
	Timezone    string       `json:"timezone"`
	Hosts       []string     `json:"hosts"`
	Status      string       `json:"status"`

	// Curation fields are owned by administrators. Automated syncs set them
	// only when the event is first created.
	IsPublished bool `json:"isPublished"`
	IsFeatured  bool `json:"isFeatured"`

	RegistrationCount int    `json:"registrationCount"`
	RegistrationType  string `json:"registrationType"`

	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	LastSyncedAt time.Time `json:"lastSyncedAt"`
}

// RawEvent is a structured-data object as found on the page.
type RawEvent map[string]any

// NormalizedEvent is the typed intermediate record produced from a RawEvent.
// Dates are kept verbatim; the reconciler parses them.
type NormalizedEvent struct {
	Slug        string
	SourceURL   string
	Title       string
	StartDate   string
	EndDate     *string
	Location    *string
	Coordinates *Coordinates
	CoverImage  *string
	CalendarID  string
}
