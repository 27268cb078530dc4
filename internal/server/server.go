// Package server provides the HTTP control surface for the touch wall.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/davidxiao93/TouchWall/internal/server/api"
	"github.com/davidxiao93/TouchWall/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Session   api.Controller
	Store     *store.Store
	Frames    FrameProvider
	Touches   *TouchHub
}

// Server represents the HTTP server for the TouchWall application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
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

	// Control endpoints need a session
	if s.config.Session != nil {
		var runs api.RunLister
		var settings api.SettingsWriter
		if s.config.Store != nil {
			runs = s.config.Store.Calibrations()
			settings = s.config.Store.Settings()
		}

		geometryHandler := api.NewGeometryHandler(s.config.Session)
		s.mux.Handle("/api/geometry", geometryHandler)
		s.mux.Handle("/api/geometry/", geometryHandler)
		s.mux.Handle("/api/calibration", api.NewCalibrationHandler(s.config.Session, runs))
		s.mux.Handle("/api/mode", api.NewModeHandler(s.config.Session, settings))
	}

	// Register depth preview stream if frames are available
	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames))
	}

	if s.config.Touches != nil {
		s.mux.Handle("/api/touches", s.config.Touches)
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

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Touches != nil {
		response["clients"] = s.config.Touches.Clients()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
