// Package server implements the lyric fetcher web interface.
package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/robfig/cron/v3"

	"lyricfetch/internal/cache"
	"lyricfetch/internal/config"
	"lyricfetch/internal/database"
	"lyricfetch/internal/embeds"
	"lyricfetch/internal/fetch"
	"lyricfetch/internal/logging"
	"lyricfetch/internal/worker"
)

const sessionName = "lyricfetch-session"

// stubbed in tests
var timeNow = time.Now

// Server represents the HTTP server
type Server struct {
	config       *config.Config
	templates    map[string]*template.Template
	sessionStore *sessions.CookieStore
	pageCache    *cache.PageCache
	registry     *fetch.Registry
	worker       *worker.Worker
	cron         *cron.Cron
	httpServer   *http.Server
}

// New creates a new server instance
func New(cfg *config.Config) (*Server, error) {
	sessionKey := []byte(os.Getenv("LYRICFETCH_SESSION_KEY"))
	if len(sessionKey) == 0 {
		// Sessions only hold flashes and the last used site, so an
		// ephemeral key is fine
		sessionKey = []byte(strings.ReplaceAll(uuid.NewString(), "-", ""))
	}

	s := &Server{
		config:       cfg,
		templates:    make(map[string]*template.Template),
		sessionStore: sessions.NewCookieStore(sessionKey),
	}

	s.sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	if err := s.loadTemplates(); err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	pageCache, err := cache.New(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize page cache: %w", err)
	}
	s.pageCache = pageCache

	registry, err := fetch.NewRegistry(pageCache, cfg.IndexFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize fetchers: %w", err)
	}
	s.registry = registry

	if err := database.Initialize(cfg.DatabasePath); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	s.worker = worker.New(registry, cfg.OutputDir)
	s.worker.Start(2)

	// Dated search and index pages go stale at midnight
	s.cron = cron.New()
	if _, err := s.cron.AddFunc("@daily", s.purgeDatedCache); err != nil {
		return nil, fmt.Errorf("failed to schedule cache purge: %w", err)
	}
	s.cron.Start()

	return s, nil
}

func (s *Server) purgeDatedCache() {
	removed, err := s.pageCache.PurgeDated(timeNow())
	if err != nil {
		logging.Warning("Cache purge failed: %v", err)
		return
	}
	if removed > 0 {
		logging.Info("Purged %d stale cache entries", removed)
	}
}

// loadTemplates loads all HTML templates
func (s *Server) loadTemplates() error {
	pages := []string{"search", "reformat", "error"}
	for _, page := range pages {
		tmpl, err := embeds.ParseTemplate(
			"templates/layouts/base.html",
			"templates/"+page+".html",
		)
		if err != nil {
			return fmt.Errorf("failed to parse %s template: %w", page, err)
		}
		s.templates[page] = tmpl
	}
	return nil
}

// Handler returns the server's HTTP handler
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()

	staticFS, err := embeds.StaticFS()
	if err != nil {
		return nil, fmt.Errorf("failed to load static files: %w", err)
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	mux.HandleFunc("/", s.LoggingMiddleware(s.handleHome))
	mux.HandleFunc("/search", s.LoggingMiddleware(s.handleSearch))
	mux.HandleFunc("/song/", s.LoggingMiddleware(s.handleSong))
	mux.HandleFunc("/reformatted", s.LoggingMiddleware(s.handleReformatted))

	mux.HandleFunc("/api/status", s.LoggingMiddleware(s.handleStatus))
	mux.HandleFunc("/api/exports", s.LoggingMiddleware(s.handleExports))
	mux.HandleFunc("/api/exports/", s.LoggingMiddleware(s.handleExportStatus))

	return mux, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	addr := s.config.ListenAddr()
	s.httpServer = &http.Server{Addr: addr, Handler: handler}

	logging.Info("Starting server on %s", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			logging.Warning("HTTP shutdown failed: %v", err)
		}
	}
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.worker != nil {
		s.worker.Stop()
	}
	if err := database.Close(); err != nil {
		logging.Warning("Database close failed: %v", err)
	}
}
