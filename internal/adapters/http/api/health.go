package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/bulletin/pkg/logger"
	"github.com/okian/bulletin/pkg/metrics"
)

const readyTimeout = 2 * time.Second

// HealthHandler serves Prometheus metrics as the liveness endpoint.
type HealthHandler struct {
	metrics http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})}
}

// HandleHealth handles GET /healthz requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

// Pinger is a dependency /readyz checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyHandler reports whether every backend answers.
type ReadyHandler struct {
	checks map[string]Pinger
	logger logger.Logger
}

// NewReadyHandler creates a readiness handler over checks.
func NewReadyHandler(checks map[string]Pinger, l logger.Logger) *ReadyHandler {
	return &ReadyHandler{checks: checks, logger: l}
}

// HandleReady handles GET /readyz requests.
func (h *ReadyHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := http.StatusOK
	result := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn(ctx, "readiness check failed", logger.String("check", name), logger.Error(err))
			result[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		result[name] = "ok"
	}
	writeJSON(w, status, result)
}
