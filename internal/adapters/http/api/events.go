package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	repository "github.com/okian/luma-sync/internal/adapters/repository"
	"github.com/okian/luma-sync/internal/domain/model"
)

// EventsDependencies defines the read operations over stored events.
type EventsDependencies interface {
	ListEvents(ctx context.Context, filter repository.ListFilter) ([]model.CanonicalEvent, error)
	GetEvent(ctx context.Context, slug string) (model.CanonicalEvent, error)
}

// EventsHandler handles event read requests.
type EventsHandler struct {
	deps     EventsDependencies
	maxLimit int
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventsDependencies, maxLimit int) *EventsHandler {
	return &EventsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleListEvents handles GET /events?calendar=ID&limit=N. Only published
// events are listed, earliest first.
func (h *EventsHandler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_events"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit := h.maxLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if h.maxLimit > 0 && n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}

	events, err := h.deps.ListEvents(r.Context(), repository.ListFilter{
		PublishedOnly: true,
		CalendarID:    r.URL.Query().Get("calendar"),
		Limit:         limit,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleGetEvent handles GET /events/{slug}.
func (h *EventsHandler) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_event"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	slug := strings.TrimPrefix(r.URL.Path, "/events/")
	if slug == "" || strings.Contains(slug, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	ev, err := h.deps.GetEvent(r.Context(), slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ev)
}
