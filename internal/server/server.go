// Package server provides the HTTP server for the handpet service.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/handpet/internal/app"
	"github.com/ayusman/handpet/internal/config"
	"github.com/ayusman/handpet/internal/plugin"
	"github.com/ayusman/handpet/internal/server/api"
	"github.com/ayusman/handpet/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       *app.App
	// Tuning is what DELETE /api/tuning restores.
	Tuning config.Tuning
	// Plugins, when set, has its run counters reported by /api/health.
	Plugins *plugin.Dispatcher
}

// Server represents the HTTP server for the handpet application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	hub    *Hub
	tuning *api.TuningHandler
}

// New creates a new Server with the given configuration. When an App is
// configured its snapshots are broadcast to /api/events clients.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.App != nil {
		pet := api.NewPetHandler(s.config.App)
		s.mux.HandleFunc("/api/state", pet.State)
		s.mux.HandleFunc("/api/tap", pet.Tap)
		s.mux.HandleFunc("/api/detection", pet.Detection)

		s.tuning = api.NewTuningHandler(s.config.App, s.config.Store, s.config.Tuning)
		s.mux.Handle("/api/tuning", s.tuning)

		s.hub = NewHub()
		s.config.App.Subscribe(s.hub)
		s.mux.Handle("/api/events", s.hub)

		s.mux.Handle("/api/stream", NewStreamHandler(s.config.App))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Hub returns the event broadcaster, or nil without an App.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Tuning returns the tuning handler, or nil without an App.
func (s *Server) Tuning() *api.TuningHandler {
	return s.tuning
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.App != nil {
		response["session"] = s.config.App.Session()
		response["detection"] = s.config.App.IsEnabled()
	}
	if s.hub != nil {
		response["clients"] = s.hub.Clients()
	}
	if s.config.Plugins != nil {
		response["plugins"] = s.config.Plugins.Stats()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}
