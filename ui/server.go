package ui

import (
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"disputelens/adapters/excel"
	"disputelens/adapters/widget"
	"disputelens/domain/analysis"
	"disputelens/domain/core"
	"disputelens/internal"
	"disputelens/internal/config"
	"disputelens/internal/notify"
	"disputelens/internal/render"
	"disputelens/ports"
)

// Deps are the collaborators the web UI needs
type Deps struct {
	Backend ports.AnalysisBackend
	Store   ports.SessionStore
	Reader  *excel.DataReader
	UI      config.UIConfig
	Logger  *internal.Logger
}

// Server represents the web server for the dispute analysis UI
type Server struct {
	router        *gin.Engine
	templates     *template.Template
	embeddedFiles fs.FS

	backend ports.AnalysisBackend
	store   ports.SessionStore
	reader  *excel.DataReader
	cfg     config.UIConfig
	logger  *internal.Logger
	now     func() time.Time

	// Per-client page state, keyed by the client cookie. States idle for
	// longer than cfg.ClientIdleTTL are dropped.
	clientsMu sync.Mutex
	clients   map[core.ClientKey]*clientState
	lastSweep time.Time
}

// clientState is what a browser tab would hold between actions
type clientState struct {
	lastSeen  time.Time // guarded by Server.clientsMu

	mu        sync.Mutex
	board     *notify.Board
	table     *widget.Registry
	sessionID core.SessionID
	options   *analysis.FilterOptions
	filters   analysis.Filters
	result    *analysis.Result
	view      *render.View
	charts    string
	report    *analysis.Report
}

// NewServer creates a new web server instance. files must contain
// ui/templates and ui/static.
func NewServer(files fs.FS, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	reader := deps.Reader
	if reader == nil {
		reader = excel.NewDataReader(excel.DefaultExcelConfig())
	}
	cfg := deps.UI
	if cfg.AlertTTL <= 0 {
		cfg.AlertTTL = notify.TTL
	}
	if cfg.RedirectDelay <= 0 {
		cfg.RedirectDelay = 3 * time.Second
	}
	if cfg.ClientIdleTTL <= 0 {
		cfg.ClientIdleTTL = 2 * time.Hour
	}

	return &Server{
		router:        gin.Default(),
		embeddedFiles: files,
		backend:       deps.Backend,
		store:         deps.Store,
		reader:        reader,
		cfg:           cfg,
		logger:        logger.With("WebUI"),
		now:           time.Now,
		clients:       make(map[core.ClientKey]*clientState),
	}
}

// Initialize parses templates and sets up middleware and routes
func (s *Server) Initialize() error {
	funcMap := template.FuncMap{
		"currency":    render.FormatCurrency,
		"percent":     render.FormatPercent,
		"chartTarget": render.ChartTargetID,
		"seconds": func(d time.Duration) int {
			return int(d / time.Second)
		},
	}

	templatesFS, err := fs.Sub(s.embeddedFiles, "ui/templates")
	if err != nil {
		return fmt.Errorf("failed to create templates filesystem: %w", err)
	}

	files, err := fs.Glob(templatesFS, "*.html")
	if err != nil {
		return fmt.Errorf("failed to glob templates: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no templates found in embedded filesystem")
	}

	s.templates = template.New("").Funcs(funcMap)
	for _, file := range files {
		content, err := fs.ReadFile(templatesFS, file)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", file, err)
		}
		if _, err := s.templates.New(file).Parse(string(content)); err != nil {
			return fmt.Errorf("failed to parse template %s: %w", file, err)
		}
	}
	log.Printf("[TemplateInit] Parsed %d template files: %v", len(files), files)

	s.setupMiddleware()
	s.setupRoutes()
	return nil
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.POST("/upload", s.handleUpload)
	s.router.GET("/analyzer", s.handleAnalyzer)
	s.router.POST("/analyze", s.handleAnalyze)
	s.router.POST("/report", s.handleReport)
	s.router.GET("/report/download", s.handleReportDownload)
	s.router.GET("/export/xlsx", s.handleExportXLSX)
	s.router.GET("/clear", s.handleClear)
}

// Handler exposes the router for http.Server and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) client(key core.ClientKey) *clientState {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.sweepInterval() {
		s.evictIdle(now)
		s.lastSweep = now
	}

	st, ok := s.clients[key]
	if !ok {
		st = &clientState{
			board: notify.NewBoard(s.cfg.AlertTTL),
			table: widget.NewRegistry(s.logger),
		}
		s.clients[key] = st
	}
	st.lastSeen = now
	return st
}

// sweepInterval bounds how often idle states are looked for.
func (s *Server) sweepInterval() time.Duration {
	if d := s.cfg.ClientIdleTTL / 4; d < time.Minute {
		return d
	}
	return time.Minute
}

// evictIdle drops client states not seen within ClientIdleTTL. The caller
// holds clientsMu.
func (s *Server) evictIdle(now time.Time) {
	evicted := 0
	for key, st := range s.clients {
		if now.Sub(st.lastSeen) > s.cfg.ClientIdleTTL {
			delete(s.clients, key)
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.Debug("evicted %d idle clients, %d remain", evicted, len(s.clients))
	}
}

// activeClients reports how many client states are held.
func (s *Server) activeClients() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

// reset drops everything tied to the previous backend session
func (st *clientState) reset() {
	st.sessionID = ""
	st.options = nil
	st.filters = analysis.Filters{}
	st.result = nil
	st.view = nil
	st.charts = ""
	st.report = nil
}
