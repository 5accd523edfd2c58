// Package server provides the HTTP API for formfill.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dsillex/formfill/internal/config"
	"github.com/dsillex/formfill/internal/fill"
	"github.com/dsillex/formfill/internal/history"
	"github.com/dsillex/formfill/internal/template"
)

// Server is the HTTP server for the formfill API.
type Server struct {
	engine    *fill.Engine
	templates *template.Store
	history   *history.Store
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies. hist may be nil
// when auditing is disabled.
func NewServer(
	engine *fill.Engine,
	templates *template.Store,
	hist *history.Store,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:    engine,
		templates: templates,
		history:   hist,
		config:    cfg,
		logger:    logger,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/analyze", s.handleAnalyze)
	r.Post("/api/v1/fill", s.handleFill)
	r.Post("/api/v1/batch", s.handleBatch)
	r.Get("/api/v1/preview", s.handlePreview)

	r.Get("/api/v1/templates", s.handleListTemplates)
	r.Post("/api/v1/templates", s.handleCreateTemplate)
	r.Post("/api/v1/templates/import", s.handleImportTemplate)
	r.Get("/api/v1/templates/{id}", s.handleGetTemplate)
	r.Put("/api/v1/templates/{id}", s.handleUpdateTemplate)
	r.Delete("/api/v1/templates/{id}", s.handleDeleteTemplate)
	r.Post("/api/v1/templates/{id}/duplicate", s.handleDuplicateTemplate)
	r.Get("/api/v1/templates/{id}/export", s.handleExportTemplate)

	r.Get("/api/v1/history", s.handleListHistory)
	r.Get("/health", s.handleHealth)
	return r
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
