package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/luma-sync/internal/domain/metadata"
	"github.com/okian/luma-sync/internal/domain/model"
)

// MetadataDependencies defines the single-URL extraction operation.
type MetadataDependencies interface {
	ExtractMetadata(ctx context.Context, url string) (model.EventMetadata, error)
}

type metadataRequest struct {
	URL string `json:"url"`
}

// MetadataHandler handles event metadata requests.
type MetadataHandler struct {
	deps MetadataDependencies
}

// NewMetadataHandler creates a new metadata handler.
func NewMetadataHandler(deps MetadataDependencies) *MetadataHandler {
	return &MetadataHandler{deps: deps}
}

// HandleMetadata handles POST /events/metadata. Nothing is persisted.
func (h *MetadataHandler) HandleMetadata(w http.ResponseWriter, r *http.Request) {
	const op = "api.event_metadata"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req metadataRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	md, err := h.deps.ExtractMetadata(r.Context(), req.URL)
	if err != nil {
		var me *metadata.Error
		if !errors.As(err, &me) {
			writeError(w, http.StatusInternalServerError, string(metadata.CodeUnexpected), Wrap(op, err))
			return
		}
		writeError(w, metadataStatus(me.Code), string(me.Code), errors.New(me.Message))
		return
	}
	writeJSON(w, http.StatusOK, md)
}

func metadataStatus(code metadata.Code) int {
	switch code {
	case metadata.CodeInvalidURL:
		return http.StatusBadRequest
	case metadata.CodeFetchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
