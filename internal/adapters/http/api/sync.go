package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/luma-sync/internal/adapters/fetch"
	service "github.com/okian/luma-sync/internal/app"
	"github.com/okian/luma-sync/internal/domain/model"
)

// SyncDependencies defines the operations behind the sync trigger routes.
type SyncDependencies interface {
	SyncCalendar(ctx context.Context, calendarID string) (model.SyncRunResult, error)
	Enqueue(ctx context.Context, calendarID string) error
	EnqueueAll(ctx context.Context) (int, error)
}

// syncRequest mirrors the OpenAPI schema for POST /sync.
type syncRequest struct {
	CalendarID string `json:"calendar_id"`
}

type enqueueResponse struct {
	Status     string `json:"status"`
	CalendarID string `json:"calendarId,omitempty"`
	Queued     int    `json:"queued"`
}

// SyncHandler handles sync trigger requests.
type SyncHandler struct {
	deps SyncDependencies
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(deps SyncDependencies) *SyncHandler {
	return &SyncHandler{deps: deps}
}

func (h *SyncHandler) readCalendarID(w http.ResponseWriter, r *http.Request, op string) (string, bool) {
	var req syncRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return "", false
	}
	id := strings.TrimSpace(req.CalendarID)
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, service.ErrEmptyCalendarID))
		return "", false
	}
	return id, true
}

// HandleSync handles POST /sync. The body is always the run result; the
// status reflects how the run ended.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	const op = "api.sync"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	id, ok := h.readCalendarID(w, r, op)
	if !ok {
		return
	}

	res, err := h.deps.SyncCalendar(r.Context(), id)
	var fe *fetch.FetchError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, service.ErrRunInProgress):
		writeJSON(w, http.StatusConflict, res)
	case errors.As(err, &fe):
		writeJSON(w, http.StatusBadGateway, res)
	default:
		writeJSON(w, http.StatusInternalServerError, res)
	}
}

// HandleEnqueue handles POST /sync/enqueue.
func (h *SyncHandler) HandleEnqueue(w http.ResponseWriter, r *http.Request) {
	const op = "api.sync_enqueue"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	id, ok := h.readCalendarID(w, r, op)
	if !ok {
		return
	}
	if err := h.deps.Enqueue(r.Context(), id); err != nil {
		writeEnqueueError(w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, enqueueResponse{Status: "queued", CalendarID: id, Queued: 1})
}

// HandleEnqueueAll handles POST /sync/enqueue-all.
func (h *SyncHandler) HandleEnqueueAll(w http.ResponseWriter, r *http.Request) {
	const op = "api.sync_enqueue_all"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	n, err := h.deps.EnqueueAll(r.Context())
	if err != nil {
		writeEnqueueError(w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, enqueueResponse{Status: "queued", Queued: n})
}

func writeEnqueueError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	case errors.Is(err, service.ErrEmptyCalendarID), errors.Is(err, service.ErrNoCalendars):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
