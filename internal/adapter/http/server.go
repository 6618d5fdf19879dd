package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/crime-dashboard/internal/dashboard"
	"github.com/couchcryptid/crime-dashboard/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dashboard is the refresh service behind the API.
type Dashboard interface {
	Refresh(ctx context.Context, prev dashboard.State, q domain.Query) (dashboard.State, error)
	DefaultQuery() domain.Query
	Communities() *domain.CommunityTable
	CheckReadiness(ctx context.Context) error
}

// HistoryReader lists recorded refreshes, newest first.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]domain.RefreshRecord, error)
}

// Options configures the HTTP server.
type Options struct {
	Addr string

	// WriteTimeout must cover a full remote fetch. Defaults to 10s.
	WriteTimeout time.Duration

	CORSAllowedOrigins []string

	// Requests allowed per client IP per window on /api; 0 disables limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Server exposes the dashboard API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	dashboard  Dashboard
	sessions   *dashboard.Sessions
	history    HistoryReader
	logger     *slog.Logger
}

// NewServer creates an HTTP server. history may be nil when no history store
// is configured.
func NewServer(opts Options, d Dashboard, sessions *dashboard.Sessions, history HistoryReader, logger *slog.Logger) *Server {
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}

	s := &Server{
		dashboard: d,
		sessions:  sessions,
		history:   history,
		logger:    logger,
	}
	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.routes(opts),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(s.dashboard))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if opts.RateLimitRequests > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimitRequests, opts.RateLimitWindow))
		}
		r.Get("/communities", s.handleCommunities)
		r.Get("/categories", s.handleCategories)
		r.Get("/dashboard", s.handleDashboard)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/history", s.handleHistory)
	})
	return r
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
		})
	}
}
