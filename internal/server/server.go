// Package server provides the HTTP API for ronbun.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/ronbun/internal/config"
	"github.com/hyperjump/ronbun/internal/index"
	"github.com/hyperjump/ronbun/internal/search"
	"github.com/hyperjump/ronbun/internal/storage"
)

// Server is the HTTP server for the ronbun API.
type Server struct {
	engine  *search.Engine
	manager *index.Manager
	storage storage.Storage
	config  *config.Config
	version string
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *search.Engine,
	manager *index.Manager,
	storage storage.Storage,
	cfg *config.Config,
	version string,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:  engine,
		manager: manager,
		storage: storage,
		config:  cfg,
		version: version,
		logger:  logger,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/api/v1/papers", s.handleListPapers)
	r.Get("/api/v1/papers/{id}", s.handleGetPaper)
	r.Get("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/semantic-search", s.handleSemanticSearch)
	r.Get("/api/v1/similar/{id}", s.handleSimilar)
	r.Get("/api/v1/library", s.handleListLibrary)
	r.Post("/api/v1/library/{id}/toggle", s.handleToggleFavorite)
	r.Post("/api/v1/index/update", s.handleIndexUpdate)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
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
