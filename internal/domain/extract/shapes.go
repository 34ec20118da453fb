package extract

import (
	"strings"

	"github.com/okian/luma-sync/internal/domain/model"
)

// block is the tagged union of the JSON-LD shapes that can carry events.
type block interface {
	events() []model.RawEvent
}

// organizationBlock is an Organization with an events array, which is how a
// calendar page lists its events.
type organizationBlock struct{ items []any }

// eventBlock is a single event object.
type eventBlock struct{ obj map[string]any }

// eventArrayBlock is a top-level array.
type eventArrayBlock struct{ items []any }

// graphBlock is an @graph wrapper holding a mix of node types.
type graphBlock struct{ items []any }

// unknownBlock carries nothing of interest.
type unknownBlock struct{}

func classify(v any) block {
	switch t := v.(type) {
	case []any:
		return eventArrayBlock{items: t}
	case map[string]any:
		if g, ok := t["@graph"].([]any); ok {
			return graphBlock{items: g}
		}
		if hasType(t, "Organization") {
			if evs, ok := t["events"].([]any); ok {
				return organizationBlock{items: evs}
			}
			return unknownBlock{}
		}
		if isEvent(t) {
			return eventBlock{obj: t}
		}
	}
	return unknownBlock{}
}

// Organization events often omit @type, so every object is taken.
func (b organizationBlock) events() []model.RawEvent {
	out := make([]model.RawEvent, 0, len(b.items))
	for _, it := range b.items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, model.RawEvent(m))
		}
	}
	return out
}

func (b eventBlock) events() []model.RawEvent {
	return []model.RawEvent{model.RawEvent(b.obj)}
}

func (b eventArrayBlock) events() []model.RawEvent { return filterEvents(b.items) }

func (b graphBlock) events() []model.RawEvent { return filterEvents(b.items) }

func (unknownBlock) events() []model.RawEvent { return nil }

func filterEvents(items []any) []model.RawEvent {
	var out []model.RawEvent
	for _, it := range items {
		if m, ok := it.(map[string]any); ok && isEvent(m) {
			out = append(out, model.RawEvent(m))
		}
	}
	return out
}

// isEvent reports whether @type names a schema.org Event or one of its
// subtypes (SocialEvent, BusinessEvent, ...).
func isEvent(m map[string]any) bool {
	for _, t := range types(m) {
		if strings.HasSuffix(t, "Event") {
			return true
		}
	}
	return false
}

func hasType(m map[string]any, want string) bool {
	for _, t := range types(m) {
		if t == want {
			return true
		}
	}
	return false
}

// types returns @type as a list; JSON-LD allows a string or an array.
func types(m map[string]any) []string {
	switch t := m["@type"].(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
