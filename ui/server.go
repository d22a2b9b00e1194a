// Package ui serves the browser workflow for mixing deviation analysis:
// upload a batch report, choose filters and ingredient weights, and read
// the histogram, statistics and downloadable artifacts for the run.
package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"mixaudit/adapters/excel"
	"mixaudit/adapters/render"
	"mixaudit/app"
	"mixaudit/domain/core"
	"mixaudit/internal/config"
	"mixaudit/ports"
)

//go:embed templates/* static/*
var embeddedFiles embed.FS

// Server hosts the upload, filter and results pages on a gin router.
type Server struct {
	router    *gin.Engine
	cfg       *config.Config
	service   *app.AnalysisService
	sessions  *SessionStore
	templates *template.Template
	exporters []ports.Exporter
	location  *time.Location
}

// NewServer wires templates, static assets, exporters and routes.
func NewServer(cfg *config.Config, service *app.AnalysisService) (*Server, error) {
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}

	funcMap := template.FuncMap{
		"join":   strings.Join,
		"fmtPct": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	location, err := time.LoadLocation(cfg.Analysis.Timezone)
	if err != nil {
		log.Printf("[NewServer] Unknown timezone %q, falling back to UTC", cfg.Analysis.Timezone)
		location = time.UTC
	}

	s := &Server{
		router:    gin.Default(),
		cfg:       cfg,
		service:   service,
		sessions:  NewSessionStore(),
		templates: templates,
		location:  location,
	}
	s.exporters = []ports.Exporter{
		render.NewStatsExporter(),
		excel.NewWorkbookExporter(),
		render.NewHistogramExporter(render.HistogramOptions{Location: location}),
		app.NewReportBuilder(location),
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupMiddleware serves static assets from the embedded filesystem
func (s *Server) setupMiddleware() {
	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		log.Printf("[setupMiddleware] Error creating static filesystem: %v", err)
		return
	}
	s.router.StaticFS("/static", http.FS(staticFS))
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.POST("/upload", s.handleUpload)
	s.router.GET("/filters", s.handleFilters)
	s.router.POST("/generate", s.handleGenerate)
	s.router.GET("/results", s.handleResults)
	s.router.GET("/download/:artifact", s.handleDownload)
}

// Handler exposes the router as an http.Handler
func (s *Server) Handler() http.Handler { return s.router }

// Start starts the web server and the session sweeper
func (s *Server) Start(addr string) error {
	go func() {
		for {
			time.Sleep(time.Hour)
			if n := s.sessions.Sweep(24 * time.Hour); n > 0 {
				log.Printf("[sessions] Swept %d expired sessions", n)
			}
		}
	}()
	log.Printf("Starting mixaudit UI on http://%s", addr)
	return s.router.Run(addr)
}

// renderTemplate executes a template into a buffer first so template
// errors surface as a 500 instead of a half-written page
func (s *Server) renderTemplate(c *gin.Context, templateName string, data interface{}) {
	s.renderStatus(c, http.StatusOK, templateName, data)
}

func (s *Server) renderStatus(c *gin.Context, status int, templateName string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		log.Printf("Template error for %s: %v", templateName, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Template rendering failed"})
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Writer.WriteHeader(status)
	if _, err := buf.WriteTo(c.Writer); err != nil {
		log.Printf("Error writing template response: %v", err)
	}
}

// exporterByName finds the exporter backing a download route
func (s *Server) exporterByName(name string) (ports.Exporter, bool) {
	for _, e := range s.exporters {
		if e.Name() == name {
			return e, true
		}
	}
	return nil, false
}

// currentSession resolves the session cookie, redirecting to the
// upload page when the visitor has no live session
func (s *Server) currentSession(c *gin.Context) (*session, bool) {
	cookie, err := c.Cookie(sessionCookie)
	if err != nil {
		c.Redirect(http.StatusSeeOther, "/")
		return nil, false
	}
	id, err := core.ParseSessionID(cookie)
	if err != nil {
		c.Redirect(http.StatusSeeOther, "/")
		return nil, false
	}
	sess, ok := s.sessions.Get(id.String())
	if !ok {
		c.Redirect(http.StatusSeeOther, "/")
		return nil, false
	}
	return sess, true
}
