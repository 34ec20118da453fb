// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SyncDependencies
	MetadataDependencies
	EventsDependencies
	CalendarDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	syncHandler     *SyncHandler
	metadataHandler *MetadataHandler
	eventsHandler   *EventsHandler
	calendarHandler *CalendarHandler
}

// NewServer creates a new API server with all handlers. maxListLimit caps
// the limit accepted by GET /events.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxListLimit int) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		syncHandler:     NewSyncHandler(deps),
		metadataHandler: NewMetadataHandler(deps),
		eventsHandler:   NewEventsHandler(deps, maxListLimit),
		calendarHandler: NewCalendarHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.healthHandler.HandleHealth, "metrics"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/sync", MetricsMiddleware(s.syncHandler.HandleSync, "sync"))
	mux.HandleFunc("/sync/enqueue", MetricsMiddleware(s.syncHandler.HandleEnqueue, "sync_enqueue"))
	mux.HandleFunc("/sync/enqueue-all", MetricsMiddleware(s.syncHandler.HandleEnqueueAll, "sync_enqueue_all"))
	mux.HandleFunc("/events/metadata", MetricsMiddleware(s.metadataHandler.HandleMetadata, "events_metadata"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandleListEvents, "events"))
	mux.HandleFunc("/events/", MetricsMiddleware(s.eventsHandler.HandleGetEvent, "event"))
	mux.HandleFunc("/calendar.ics", MetricsMiddleware(s.calendarHandler.HandleCalendar, "calendar"))
}

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: msg}})
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}
