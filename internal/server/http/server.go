// Package httpserver provides the HTTP REST API server for the ArbitrageVault
// BookFinder service.
package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/config"
	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/database"
	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/observability"
	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/repository"
)

// Server is the HTTP REST API server.
type Server struct {
	router       chi.Router
	httpServer   *http.Server
	analysisRepo repository.AnalysisRepository
	batchRepo    repository.BatchRepository
	userRepo     repository.UserRepository
	db           *database.DB
	app          config.AppConfig
	metrics      *observability.Metrics
	logger       zerolog.Logger
	validate     *validator.Validate
	maxBodyBytes int64
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

// NewServer creates a new HTTP server with all dependencies. metrics may be
// nil when metrics collection is disabled.
func NewServer(
	cfg Config,
	analysisRepo repository.AnalysisRepository,
	batchRepo repository.BatchRepository,
	userRepo repository.UserRepository,
	db *database.DB,
	app config.AppConfig,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		analysisRepo: analysisRepo,
		batchRepo:    batchRepo,
		userRepo:     userRepo,
		db:           db,
		app:          app,
		metrics:      metrics,
		logger:       logger.With().Str("component", "http-server").Logger(),
		validate:     validator.New(),
		maxBodyBytes: cfg.MaxBodyBytes,
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Router returns the configured chi router, mainly for tests.
func (s *Server) Router() chi.Router {
	return s.router
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(s.requestLoggingMiddleware)
	r.Use(jsonContentTypeMiddleware)
	r.Use(s.bodyLimitMiddleware)

	// Health endpoints
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/analyses", func(r chi.Router) {
			r.Post("/", s.createAnalysis)
			r.Get("/", s.listAnalyses)
			r.Get("/top", s.topAnalyses)
			r.Get("/opportunities", s.countOpportunities)
			r.Delete("/", s.deleteAnalyses)
			r.Get("/{analysisID}", s.getAnalysis)
		})

		r.Route("/batches", func(r chi.Router) {
			r.Post("/", s.createBatch)
			r.Get("/", s.listBatches)
			r.Get("/stats", s.batchStats)
			r.Get("/{batchID}", s.getBatch)
			r.Patch("/{batchID}/status", s.updateBatchStatus)
			r.Delete("/{batchID}", s.deleteBatch)
			r.Delete("/{batchID}/analyses", s.deleteBatchAnalyses)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/", s.createUser)
			r.Get("/", s.listUsers)
			r.Get("/{userID}", s.getUser)
			r.Put("/{userID}", s.updateUser)
			r.Delete("/{userID}", s.deleteUser)
		})
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := s.db.Health(r.Context())
	if health.Status == "healthy" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": health.Status})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"status":   "unhealthy",
		"database": health.Status,
		"error":    health.Error,
	})
}

// readinessHandler returns readiness status.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	health := s.db.Health(r.Context())
	if health.Status != "healthy" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "not_ready",
			"database": health.Status,
			"error":    health.Error,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"database": "healthy",
	})
}
