package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/claude/trainload/internal/analytics"
	"github.com/claude/trainload/internal/ingest"
	"github.com/claude/trainload/internal/ingest/alpha"
	"github.com/claude/trainload/internal/models"
	"github.com/claude/trainload/internal/storage"
	"github.com/claude/trainload/internal/telemetry/metrics"
)

// Analytics is the part of analytics.Service the HTTP API needs.
type Analytics interface {
	Snapshot(ctx context.Context, userID string, include analytics.Include) (*models.AnalyticsSnapshot, error)
	Sessions(ctx context.Context, userID string) ([]models.WorkoutSession, error)
	LoadSeries(ctx context.Context, userID string) ([]models.TrainingLoadSample, error)
}

var _ Analytics = (*analytics.Service)(nil)

// Store persists ingested sessions and import bookkeeping.
type Store interface {
	ingest.SessionWriter
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	UpdateImportLog(ctx context.Context, id int64, log storage.ImportLog) error
	QueryImportLogs(ctx context.Context, userID string, limit int) ([]storage.ImportLog, error)
}

var _ Store = (*storage.DB)(nil)

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc     Analytics
	store   Store
	alpha   *alpha.Provider
	log     *slog.Logger
	apiKey  string
	devUser string

	whois   WhoIser
	metrics *metrics.Manager
	reg     *prometheus.Registry
	limiter RequestRateLimiter
	perMin  int
	mcp     http.Handler
}

// New creates a Server. Optional parts are attached with the Set methods
// before Handler is called.
func New(svc Analytics, store Store, alphaProvider *alpha.Provider, apiKey string, log *slog.Logger) *Server {
	return &Server{
		svc:     svc,
		store:   store,
		alpha:   alphaProvider,
		log:     log,
		apiKey:  apiKey,
		devUser: "local",
	}
}

// SetTailscale enables WhoIs identity lookups for every request.
func (s *Server) SetTailscale(w WhoIser) {
	s.whois = w
}

// SetDevUser sets the identity used when not running behind Tailscale.
func (s *Server) SetDevUser(login string) {
	if login != "" {
		s.devUser = login
	}
}

// SetMetrics enables request metrics and serves reg at /metrics.
func (s *Server) SetMetrics(m *metrics.Manager, reg *prometheus.Registry) {
	s.metrics = m
	s.reg = reg
}

// SetRateLimiter caps analytics requests per user and minute.
func (s *Server) SetRateLimiter(l RequestRateLimiter, perMin int) {
	s.limiter = l
	s.perMin = perMin
}

// SetMCP mounts an MCP streamable HTTP handler at /mcp.
func (s *Server) SetMCP(h http.Handler) {
	s.mcp = h
}

// Handler builds the router with every configured route, wrapped in
// OpenTelemetry instrumentation.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.routes(), "trainload")
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequestLogging(s.log))
	if s.metrics != nil {
		r.Use(RequestMetrics(s.metrics))
	}
	r.Use(CORS)

	r.Get("/healthz", s.handleHealth)
	if s.reg != nil {
		r.Handle("/metrics", metrics.Handler(s.reg))
	}

	r.Group(func(r chi.Router) {
		r.Use(Identity(s.whois, s.devUser, s.log))

		r.Get("/api/v1/me", s.handleMe)
		r.Get("/api/v1/sessions", s.handleSessions)
		r.Get("/api/v1/export/load.parquet", s.handleExportLoad)
		r.Get("/api/v1/imports", s.handleImportLogs)

		r.Group(func(r chi.Router) {
			if s.limiter != nil && s.perMin > 0 {
				r.Use(RateLimit(s.limiter, "analytics", s.perMin))
			}
			r.Get("/api/v1/analytics", s.handleAnalytics)
		})

		r.Route("/api/v1/ingest", func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/alpha", s.handleAlphaIngest)
			r.Post("/sessions", s.handleSessionsIngest)
		})

		if s.mcp != nil {
			r.Handle("/mcp", s.mcp)
		}
	})

	return r
}
