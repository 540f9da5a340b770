package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	service "github.com/okian/bulletin/internal/app"
	"github.com/okian/bulletin/internal/domain/model"
	"github.com/okian/bulletin/internal/domain/ranking"
	"github.com/okian/bulletin/pkg/logger"
)

const maxViewBodyBytes = 1 << 16

// viewRequest is the body of POST /api/views.
type viewRequest struct {
	EventID    string `json:"event_id"`
	Collection string `json:"collection"`
	EntityID   int64  `json:"entity_id"`
	TS         string `json:"ts"`
}

func (v viewRequest) toEvent() (model.ViewEvent, error) {
	c, err := ranking.ParseCollection(v.Collection)
	if err != nil {
		return model.ViewEvent{}, err
	}
	if v.EntityID < 1 {
		return model.ViewEvent{}, errors.New("invalid entity_id")
	}
	e := model.ViewEvent{EventID: strings.TrimSpace(v.EventID), Collection: c, EntityID: v.EntityID}
	if v.TS != "" {
		ts, err := time.Parse(time.RFC3339, v.TS)
		if err != nil {
			return model.ViewEvent{}, errors.New("invalid ts; must be RFC3339")
		}
		e.TS = ts
	}
	return e, nil
}

// ViewsHandler records views of announcements and events.
type ViewsHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewViewsHandler creates a new views handler.
func NewViewsHandler(deps Dependencies, l logger.Logger) *ViewsHandler {
	return &ViewsHandler{deps: deps, logger: l}
}

// HandlePostView handles POST /api/views requests.
func (h *ViewsHandler) HandlePostView(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_view"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req viewRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxViewBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err).Error())
		return
	}
	e, err := req.toEvent()
	if err != nil {
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err).Error())
		return
	}

	duplicate, err := h.deps.RecordView(r.Context(), e, "http")
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: duplicate})
	case errors.Is(err, service.ErrInvalidView):
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err).Error())
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, NewKind(op, ErrBackpressure).Error())
	default:
		h.logger.Error(r.Context(), "record view failed", logger.Error(Wrap(op, err)))
		writeError(w, http.StatusInternalServerError, "Failed to record view")
	}
}
