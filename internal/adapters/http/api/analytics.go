package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/bulletin/internal/adapters/sessionstore"
	"github.com/okian/bulletin/internal/domain/ranking"
	"github.com/okian/bulletin/internal/domain/session"
	"github.com/okian/bulletin/pkg/logger"
	"github.com/okian/bulletin/pkg/metrics"
)

const unauthorizedMessage = "Unauthorized"

// AnalyticsHandler serves the top-N records of one collection to administrators.
type AnalyticsHandler struct {
	deps       Dependencies
	sessions   sessionstore.Provider
	collection ranking.Collection
	limit      int

	// query names the endpoint in logs; failure is the fixed 500 message.
	query   string
	failure string

	logger logger.Logger
}

// NewAnalyticsHandler creates a handler for collection c.
func NewAnalyticsHandler(
	deps Dependencies,
	sessions sessionstore.Provider,
	c ranking.Collection,
	limit int,
	query, failure string,
	l logger.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		deps:       deps,
		sessions:   sessions,
		collection: c,
		limit:      limit,
		query:      query,
		failure:    failure,
		logger:     l,
	}
}

// HandleGetTop handles GET /api/analytics/top-{announcements,events}.
func (h *AnalyticsHandler) HandleGetTop(w http.ResponseWriter, r *http.Request) {
	op := "api.get_" + h.query
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Faults inside the query still answer with the endpoint's fixed message.
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity
			panic(rec)
		}
		metrics.RecordErrorByComponent("http", "panic")
		h.fail(w, r, Wrap(op, fmt.Errorf("%w: %v", ErrPanic, rec)))
	}()
	ctx := r.Context()

	s, err := h.sessions.Session(ctx, r)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}

	decision := session.Authorize(s)
	metrics.RecordAuthDecision(decision.String())
	if !decision.IsAllowed() {
		writeError(w, http.StatusUnauthorized, unauthorizedMessage)
		return
	}

	rows, err := h.deps.TopN(ctx, h.collection, h.limit)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: rows})
}

func (h *AnalyticsHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := "unhandled"
	switch {
	case errors.Is(err, ranking.ErrStorageUnavailable):
		kind = "storage"
	case errors.Is(err, ErrPanic):
		kind = "panic"
	}
	h.logger.Error(r.Context(), h.failure,
		logger.String("query", h.query),
		logger.String("kind", kind),
		logger.Error(err),
	)
	writeError(w, http.StatusInternalServerError, h.failure)
}
