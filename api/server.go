// Package api exposes the analysis pipeline as a JSON service for
// integrations that bring their own tabular data instead of uploading
// workbooks through the browser.
package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"mixaudit/app"
	"mixaudit/internal/config"
)

// Server hosts the JSON endpoints on a chi router.
type Server struct {
	router  *chi.Mux
	cfg     *config.Config
	service *app.AnalysisService
}

// NewServer wires middleware and routes for the JSON API.
func NewServer(cfg *config.Config, service *app.AnalysisService) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		cfg:     cfg,
		service: service,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/v1/defaults", s.handleDefaults)
	s.router.Post("/v1/analyze", s.handleAnalyze)
}

// Handler exposes the router as an http.Handler
func (s *Server) Handler() http.Handler { return s.router }

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	log.Printf("Starting mixaudit API on %s", addr)
	return http.ListenAndServe(addr, s.router)
}
