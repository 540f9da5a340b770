// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/bulletin/internal/adapters/sessionstore"
	"github.com/okian/bulletin/internal/domain/model"
	"github.com/okian/bulletin/internal/domain/ranking"
	"github.com/okian/bulletin/pkg/logger"
)

const defaultTopLimit = 5

// Dependencies required by HTTP handlers.
type Dependencies interface {
	// TopN returns the limit most-viewed records of c.
	TopN(ctx context.Context, c ranking.Collection, limit int) ([]ranking.Record, error)

	// RecordView queues a view. duplicate is true when the event ID was already seen.
	RecordView(ctx context.Context, e model.ViewEvent, source string) (duplicate bool, err error)

	// Ping reports whether storage is reachable.
	Ping(ctx context.Context) error

	StatsProvider
}

// Server wires HTTP routes for the analytics API.
type Server struct {
	healthHandler           *HealthHandler
	readyHandler            *ReadyHandler
	statsHandler            *StatsHandler
	viewsHandler            *ViewsHandler
	topAnnouncementsHandler *AnalyticsHandler
	topEventsHandler        *AnalyticsHandler
	logger                  logger.Logger
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	sessions sessionstore.Provider
	topLimit int
	checks   map[string]Pinger
	logger   logger.Logger
}

// WithSessions sets the session provider. Defaults to sessionstore.Anonymous.
func WithSessions(p sessionstore.Provider) ServerOption {
	return func(c *serverConfig) {
		if p != nil {
			c.sessions = p
		}
	}
}

// WithTopLimit sets how many records the analytics endpoints return.
func WithTopLimit(n int) ServerOption {
	return func(c *serverConfig) {
		if n > 0 {
			c.topLimit = n
		}
	}
}

// WithReadinessCheck adds a dependency pinged by /readyz.
func WithReadinessCheck(name string, p Pinger) ServerOption {
	return func(c *serverConfig) {
		if p != nil {
			c.checks[name] = p
		}
	}
}

// WithLogger sets a custom logger for the handlers.
func WithLogger(l logger.Logger) ServerOption {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...ServerOption) *Server {
	cfg := serverConfig{
		sessions: sessionstore.Anonymous,
		topLimit: defaultTopLimit,
		checks:   map[string]Pinger{"storage": deps},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get().Named("api")
	}

	topAnnouncements := NewAnalyticsHandler(deps, cfg.sessions, ranking.Announcements, cfg.topLimit,
		"top_announcements", "Failed to fetch top announcements", cfg.logger)
	topEvents := NewAnalyticsHandler(deps, cfg.sessions, ranking.Events, cfg.topLimit,
		"top_events", "Failed to fetch top events", cfg.logger)

	return &Server{
		healthHandler:           NewHealthHandler(),
		readyHandler:            NewReadyHandler(cfg.checks, cfg.logger),
		statsHandler:            NewStatsHandler(deps),
		viewsHandler:            NewViewsHandler(deps, cfg.logger),
		topAnnouncementsHandler: topAnnouncements,
		topEventsHandler:        topEvents,
		logger:                  cfg.logger,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/readyz", MetricsMiddleware(s.readyHandler.HandleReady, "readyz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/views", MetricsMiddleware(s.viewsHandler.HandlePostView, "views"))
	mux.HandleFunc("/api/analytics/top-announcements",
		MetricsMiddleware(s.topAnnouncementsHandler.HandleGetTop, "top_announcements"))
	mux.HandleFunc("/api/analytics/top-events",
		MetricsMiddleware(s.topEventsHandler.HandleGetTop, "top_events"))
}

// Handler wraps mux with the front middleware chain.
func (s *Server) Handler(mux *http.ServeMux) http.Handler {
	return RecoverMiddleware(RouterMiddleware(mux, s.logger), s.logger)
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type dataResponse struct {
	Data []ranking.Record `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
