// Package metadata derives event details from a single provider event page
// so an administrator can review them before creating the event by hand.
package metadata

import (
	"context"
	"errors"

	"github.com/okian/luma-sync/internal/adapters/fetch"
	"github.com/okian/luma-sync/internal/domain/extract"
	"github.com/okian/luma-sync/internal/domain/model"
	"github.com/okian/luma-sync/internal/domain/normalize"
)

const (
	eventTypeVirtual  = model.EventTypeVirtual
	eventTypeInPerson = model.EventTypeInPerson
)

// PageFetcher fetches the page for a provider path such as an event slug.
type PageFetcher interface {
	FetchCalendar(ctx context.Context, id string) (string, error)
}

// Extractor runs the metadata heuristics over fetched pages. It never
// writes to the store.
type Extractor struct {
	fetcher  PageFetcher
	timezone string
	cover    CoverSize
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithDefaultTimezone sets the zone used when the page names none.
func WithDefaultTimezone(tz string) Option {
	return func(e *Extractor) {
		if tz != "" {
			e.timezone = tz
		}
	}
}

// WithCoverSize sets the size CDN cover URLs are rewritten to.
func WithCoverSize(size CoverSize) Option {
	return func(e *Extractor) { e.cover = size }
}

// New creates an Extractor.
func New(fetcher PageFetcher, opts ...Option) *Extractor {
	e := &Extractor{
		fetcher:  fetcher,
		timezone: "America/Mexico_City",
		cover:    CoverSize{Width: 1200, Height: 630, Quality: 90},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract fetches the event behind rawURL and derives its metadata.
// Failures are always *Error.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (model.EventMetadata, error) {
	slug, ok := normalize.SlugFromURL(rawURL)
	if !ok {
		return model.EventMetadata{}, &Error{Code: CodeInvalidURL, Message: "URL is not a Luma event link"}
	}

	page, err := e.fetcher.FetchCalendar(ctx, slug)
	if err != nil {
		var fe *fetch.FetchError
		if errors.As(err, &fe) && fe.StatusCode != 0 {
			return model.EventMetadata{}, &Error{Code: CodeFetchFailed, Message: "could not fetch the Luma event page", Err: err}
		}
		return model.EventMetadata{}, &Error{Code: CodeUnexpected, Message: "unexpected error while fetching the event", Err: err}
	}

	md := e.FromPage(page)
	md.Slug = slug
	md.SourceURL = rawURL
	return md, nil
}

// FromPage applies the heuristic chain to an already fetched page.
func (e *Extractor) FromPage(page string) model.EventMetadata {
	md := model.EventMetadata{
		Title:       model.UntitledEvent,
		Description: OGDescription(page),
		Timezone:    e.timezone,
		Hosts:       Hosts(page),
	}

	if t := OGTitle(page); t != nil {
		md.Title = *t
	} else if t := HTMLTitle(page); t != nil {
		md.Title = *t
	}

	md.CoverImage = LumaCoverImage(page, e.cover)
	if md.CoverImage == nil {
		md.CoverImage = OGImage(page)
	}
	if md.CoverImage == nil {
		md.CoverImage = TwitterImage(page)
	}

	if events := extract.Extract(page).Events; len(events) > 0 {
		raw := events[0]
		md.StartDate = optString(raw["startDate"])
		md.EndDate = optString(raw["endDate"])
		md.Location = locationText(raw)
		md.Coordinates = normalize.Coordinates(raw)
	}
	if md.StartDate == nil {
		md.StartDate = DateTimeAttr(page)
	}

	if tz, ok := TimezoneAttr(page); ok {
		md.Timezone = tz
	}
	md.EventType = EventTypeFor(md.Location)
	return md
}

func optString(v any) *string {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

// locationText prefers the street address and falls back to the location
// name, which is where virtual events carry "Online" or a meeting link.
func locationText(raw model.RawEvent) *string {
	if loc := normalize.Location(raw); loc != nil {
		return loc
	}
	switch loc := raw["location"].(type) {
	case string:
		return optString(loc)
	case map[string]any:
		if name := optString(loc["name"]); name != nil {
			return name
		}
		return optString(loc["url"])
	}
	return nil
}
