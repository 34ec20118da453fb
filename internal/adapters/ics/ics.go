// Package ics renders canonical events as an iCalendar feed.
package ics

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/okian/luma-sync/internal/domain/model"
)

const defaultProductID = "-//luma-sync//Community Events//EN"

// Feed builds an iCalendar document.
type Feed struct {
	name      string
	productID string
	now       func() time.Time
}

// Option configures a Feed.
type Option func(*Feed)

// WithName sets the X-WR-CALNAME shown by calendar clients.
func WithName(name string) Option {
	return func(f *Feed) { f.name = name }
}

// WithProductID overrides the PRODID.
func WithProductID(id string) Option {
	return func(f *Feed) {
		if id != "" {
			f.productID = id
		}
	}
}

// WithClock overrides the DTSTAMP clock.
func WithClock(now func() time.Time) Option {
	return func(f *Feed) {
		if now != nil {
			f.now = now
		}
	}
}

// New creates a Feed.
func New(opts ...Option) *Feed {
	f := &Feed{name: "Community events", productID: defaultProductID, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// UID is the stable identifier of an event across feed refreshes.
func UID(ev model.CanonicalEvent) string {
	return ev.Slug + "@lu.ma"
}

// Calendar builds the calendar for events in the given order.
func (f *Feed) Calendar(events []model.CanonicalEvent) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(f.productID)
	if f.name != "" {
		cal.SetXWRCalName(f.name)
	}

	stamp := f.now().UTC()
	for _, ev := range events {
		e := cal.AddEvent(UID(ev))
		e.SetDtStampTime(stamp)
		e.SetStartAt(ev.StartDate.UTC())
		if ev.EndDate != nil {
			e.SetEndAt(ev.EndDate.UTC())
		}
		if !ev.CreatedAt.IsZero() {
			e.SetCreatedTime(ev.CreatedAt.UTC())
		}
		if !ev.UpdatedAt.IsZero() {
			e.SetModifiedAt(ev.UpdatedAt.UTC())
		}
		e.SetSummary(ev.Title)
		e.SetURL(ev.SourceURL)
		if ev.Location != nil {
			e.SetLocation(*ev.Location)
		}
		if len(ev.Hosts) > 0 {
			e.SetDescription(fmt.Sprintf("Hosted by %s", joinHosts(ev.Hosts)))
		}
	}
	return cal
}

// Write serializes the feed for events to w.
func (f *Feed) Write(w io.Writer, events []model.CanonicalEvent) error {
	if err := f.Calendar(events).SerializeTo(w); err != nil {
		return fmt.Errorf("serialize calendar: %w", err)
	}
	return nil
}

func joinHosts(hosts []string) string {
	switch len(hosts) {
	case 1:
		return hosts[0]
	case 2:
		return hosts[0] + " & " + hosts[1]
	}
	out := ""
	for i, h := range hosts {
		switch {
		case i == 0:
			out = h
		case i == len(hosts)-1:
			out += " & " + h
		default:
			out += ", " + h
		}
	}
	return out
}
