// Package normalize maps shape-varying structured-data event objects into
// model.NormalizedEvent.
package normalize

import (
	"strconv"
	"strings"

	"github.com/okian/luma-sync/internal/domain/model"
)

// Normalize converts raw into a NormalizedEvent. It returns false when no
// URL or slug can be resolved; such objects are dropped, not failed.
func Normalize(raw model.RawEvent, calendarID string) (model.NormalizedEvent, bool) {
	src := SourceURL(raw)
	if src == "" {
		return model.NormalizedEvent{}, false
	}
	slug, ok := SlugFromURL(src)
	if !ok {
		return model.NormalizedEvent{}, false
	}

	title := model.UntitledEvent
	if name := str(raw["name"]); name != "" {
		title = name
	}

	ev := model.NormalizedEvent{
		Slug:        slug,
		SourceURL:   src,
		Title:       title,
		StartDate:   str(raw["startDate"]),
		Location:    Location(raw),
		Coordinates: Coordinates(raw),
		CoverImage:  CoverImage(raw),
		CalendarID:  calendarID,
	}
	if end := str(raw["endDate"]); end != "" {
		ev.EndDate = &end
	}
	return ev, true
}

// SourceURL prefers @id over url.
func SourceURL(raw model.RawEvent) string {
	if id := str(raw["@id"]); id != "" {
		return id
	}
	return str(raw["url"])
}

// Location reads location.address.streetAddress.
func Location(raw model.RawEvent) *string {
	loc, ok := raw["location"].(map[string]any)
	if !ok {
		return nil
	}
	addr, ok := loc["address"].(map[string]any)
	if !ok {
		return nil
	}
	if s := str(addr["streetAddress"]); s != "" {
		return &s
	}
	return nil
}

// Coordinates reads location.geo. Latitude and longitude may be numbers or
// numeric strings; both must be present.
func Coordinates(raw model.RawEvent) *model.Coordinates {
	loc, ok := raw["location"].(map[string]any)
	if !ok {
		return nil
	}
	geo, ok := loc["geo"].(map[string]any)
	if !ok {
		return nil
	}
	lat, ok := float(geo["latitude"])
	if !ok {
		return nil
	}
	lng, ok := float(geo["longitude"])
	if !ok {
		return nil
	}
	return &model.Coordinates{Lat: lat, Lng: lng}
}

// CoverImage takes the first element of an image array, or image itself
// when it is a string.
func CoverImage(raw model.RawEvent) *string {
	switch img := raw["image"].(type) {
	case []any:
		if len(img) > 0 {
			if s := str(img[0]); s != "" {
				return &s
			}
		}
	case string:
		if s := strings.TrimSpace(img); s != "" {
			return &s
		}
	}
	return nil
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
