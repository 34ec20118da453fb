package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

// CalendarDependencies renders stored events as an iCalendar feed.
type CalendarDependencies interface {
	WriteCalendar(ctx context.Context, w io.Writer, calendarID string) error
}

// CalendarHandler handles ICS feed requests.
type CalendarHandler struct {
	deps CalendarDependencies
}

// NewCalendarHandler creates a new calendar handler.
func NewCalendarHandler(deps CalendarDependencies) *CalendarHandler {
	return &CalendarHandler{deps: deps}
}

// HandleCalendar handles GET /calendar.ics?calendar=ID.
func (h *CalendarHandler) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	const op = "api.calendar"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Render fully before writing so a store failure can still become a 500.
	var buf bytes.Buffer
	if err := h.deps.WriteCalendar(r.Context(), &buf, r.URL.Query().Get("calendar")); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
