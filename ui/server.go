package ui

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"afpdash/app"
	"afpdash/internal/config"
	"afpdash/ports"

	"github.com/gin-gonic/gin"
)

// Assets holds the dashboard templates, static files and default intro
//
//go:embed templates/*.html static intro.md
var Assets embed.FS

// Server is the dashboard web server
type Server struct {
	router    *gin.Engine
	service   *app.DashboardService
	config    *config.Config
	assets    fs.FS
	templates *template.Template
	intro     template.HTML

	// imports is set when the dataset comes from PostgreSQL
	imports ports.DatasetRepository
}

// NewServer creates a new web server instance
func NewServer(assets fs.FS, service *app.DashboardService, cfg *config.Config) *Server {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	return &Server{
		router:  router,
		service: service,
		config:  cfg,
		assets:  assets,
	}
}

// SetImportRepository exposes the import history under /api/imports
func (s *Server) SetImportRepository(repo ports.DatasetRepository) {
	s.imports = repo
}

// Initialize parses templates, renders the intro and registers routes
func (s *Server) Initialize() error {
	funcMap := template.FuncMap{
		"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
		"num": func(v float64) string { return fmt.Sprintf("%.1f", v) },
		"money": func(v float64) string {
			return formatThousands(fmt.Sprintf("%.0f", v))
		},
		"flag": func(b bool) string {
			if b {
				return "1"
			}
			return "0"
		},
	}

	templatesFS, err := fs.Sub(s.assets, "templates")
	if err != nil {
		return fmt.Errorf("failed to create templates filesystem: %w", err)
	}
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "*.html")
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	s.templates = tmpl
	log.Printf("[TemplateInit] Parsed templates: %s", tmpl.DefinedTemplates())

	intro, err := loadIntro(s.assets, s.config.Dashboard.IntroFile)
	if err != nil {
		return err
	}
	s.intro = intro

	s.setupMiddleware()
	s.setupRoutes()
	return nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleDashboard)
	s.router.GET("/charts/:file", s.handleChart)
	s.router.GET("/export/:format", s.handleExport)
	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/view", s.handleAPIView)
		api.GET("/controls", s.handleAPIControls)
		if s.imports != nil {
			api.GET("/imports", s.handleAPIImports)
		}
	}
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until the listener fails
func (s *Server) Start(addr string) error {
	log.Printf("[Server] Dashboard listening on %s", addr)
	return s.router.Run(addr)
}

// formatThousands inserts '.' separators into an integer string
func formatThousands(digits string) string {
	neg := strings.HasPrefix(digits, "-")
	digits = strings.TrimPrefix(digits, "-")
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
