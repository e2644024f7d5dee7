// Package server provides the HTTP API for holocron-embed.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/holocron/embedder/internal/config"
	"github.com/holocron/embedder/internal/lazymodel"
	"github.com/holocron/embedder/internal/search"
)

// EmbeddingService is the model-backed operation the API exposes.
// *lazymodel.Service implements it.
type EmbeddingService interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
	State() lazymodel.State
	Dimensions() int
	Attempts() int64
}

// Server is the HTTP server for the embedding API.
type Server struct {
	embedder EmbeddingService
	engine   *search.Engine
	config   *config.Config
	metrics  http.Handler
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. metrics may be nil
// to leave the metrics route unregistered.
func NewServer(
	embedder EmbeddingService,
	engine *search.Engine,
	cfg *config.Config,
	metrics http.Handler,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		embedder: embedder,
		engine:   engine,
		config:   cfg,
		metrics:  metrics,
		logger:   logger,
	}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/embedding", s.handleEmbedding)
		r.Post("/pages", s.handleIndexPage)
		r.Delete("/pages/{id}", s.handleDeletePage)
		r.Post("/search", s.handleSearch)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Handle(s.config.Metrics.Path, s.metrics)
	}
	return r
}

// Start starts the HTTP server and blocks until it stops. It returns nil after Stop.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
