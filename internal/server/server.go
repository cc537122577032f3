// Package server provides the HTTP API for the DegreeFYD assistant.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/degreefyd/assistant/internal/config"
	"github.com/degreefyd/assistant/internal/models"
	"github.com/degreefyd/assistant/internal/trace"
)

const requestTimeout = 120 * time.Second

// Answerer runs queries through the answer pipeline.
type Answerer interface {
	Process(ctx context.Context, query string, web, stream bool) (*models.PipelineResult, error)
	CachedQueries() int
	Traces() *trace.Log
}

// Server is the HTTP server for the assistant API.
type Server struct {
	pipeline Answerer
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(pipeline Answerer, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		pipeline: pipeline,
		config:   cfg,
		logger:   logger,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
	}).Handler)

	// Streams are bounded by the client connection, not a server timeout,
	// and must not be buffered by compression.
	r.Post("/chat/stream", s.handleChatStream)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(middleware.Compress(5))
		r.Get("/", s.handleRoot)
		r.Get("/health", s.handleHealth)
		r.Get("/categories", s.handleCategories)
		r.Get("/rag-log", s.handleRAGLog)
		r.Post("/chat", s.handleChat)
		r.Handle("/metrics", promhttp.Handler())
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
