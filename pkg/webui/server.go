// Package webui provides the local web dashboard for browsing and managing
// skills. It serves an embedded single-page UI plus a JSON API backed by the
// skill registry service.
package webui

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	pkgerrors "github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/sirupsen/logrus"

	"github.com/jingkaihe/skilldeck/pkg/logger"
	"github.com/jingkaihe/skilldeck/pkg/registry"
	"github.com/jingkaihe/skilldeck/pkg/version"
)

//go:embed assets
var assetsFS embed.FS

// langPlaceholder is replaced with the JSON language payload when the
// dashboard page is served
const langPlaceholder = "__LANG_DATA__"

// Server represents the web UI server
type Server struct {
	router  *mux.Router
	skills  registry.ServiceInterface
	config  *ServerConfig
	server  *http.Server
	started time.Time
}

// ServerConfig holds the configuration for the web server
type ServerConfig struct {
	Host     string
	Port     int
	Language Language
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Host == "" {
		return pkgerrors.New("host cannot be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return pkgerrors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

// BaseURL returns the address clients use to reach the server
func (c *ServerConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// NewServer creates a new web UI server backed by the given skill service
func NewServer(config *ServerConfig, service registry.ServiceInterface) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, pkgerrors.Wrap(err, "invalid server configuration")
	}
	if config.Language == "" {
		config.Language = DetectLanguage()
	}

	s := &Server{
		router:  mux.NewRouter(),
		skills:  service,
		config:  config,
		started: time.Now(),
	}
	s.setupRoutes()
	return s, nil
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	// OPTIONS is listed so preflight requests reach the CORS middleware,
	// which answers them before any handler runs
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/skills", s.handleListSkills).Methods("GET", "OPTIONS")
	api.HandleFunc("/skills/{id}", s.handleGetSkill).Methods("GET", "OPTIONS")
	api.HandleFunc("/skills/{id}", s.handleDeleteSkill).Methods("DELETE")
	api.HandleFunc("/skills/{id}/reveal", s.handleRevealSkill).Methods("POST", "OPTIONS")
	api.HandleFunc("/refresh", s.handleRefresh).Methods("GET", "OPTIONS")
	api.HandleFunc("/status", s.handleStatus).Methods("GET", "OPTIONS")

	s.router.PathPrefix("/").HandlerFunc(s.handleDashboard).Methods("GET")

	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)
}

// Start starts the web server and blocks until ctx is cancelled or the
// listener fails
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.G(ctx).WithFields(logrus.Fields{
		"address":  addr,
		"language": s.config.Language,
	}).Info("Starting skill dashboard server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return pkgerrors.Wrap(err, "failed to start server")
	case <-ctx.Done():
		logger.G(ctx).Info("Shutting down skill dashboard server")
		return s.Stop()
	}
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// requestIDMiddleware tags each request with an id carried by the context
// logger and echoed in the response headers
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		ctx := logger.WithLogger(r.Context(), logger.G(r.Context()).WithField("request_id", requestID))
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		logger.G(r.Context()).WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      wrapped.statusCode,
			"duration_ms": time.Since(start).Milliseconds(),
			"remote_addr": r.RemoteAddr,
		}).Info("HTTP request")
	})
}

// corsMiddleware allows requests from the dashboard's own origin only. The
// server binds to localhost, so this keeps other local pages from driving
// the API.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.config.BaseURL())
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// handleListSkills handles GET /api/skills
func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	req := &registry.ListRequest{
		Query:    r.URL.Query().Get("query"),
		Category: r.URL.Query().Get("category"),
	}

	resp, err := s.skills.List(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to list skills")
		return
	}
	s.writeJSONResponse(w, http.StatusOK, resp)
}

// handleGetSkill handles GET /api/skills/{id}
func (s *Server) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	detail, err := s.skills.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to load skill")
		return
	}
	s.writeJSONResponse(w, http.StatusOK, detail)
}

// handleDeleteSkill handles DELETE /api/skills/{id}
func (s *Server) handleDeleteSkill(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.skills.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err, "Failed to delete skill")
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"id":      id,
	})
}

// handleRevealSkill handles POST /api/skills/{id}/reveal
func (s *Server) handleRevealSkill(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.skills.Reveal(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err, "Failed to open skill folder")
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// handleRefresh handles GET /api/refresh
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	result, err := s.skills.Refresh(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to refresh skills")
		return
	}
	s.writeJSONResponse(w, http.StatusOK, result)
}

type statusResponse struct {
	*registry.StatsResult
	Version       string `json:"version"`
	Language      string `json:"language"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	MemoryRSS     uint64 `json:"memoryRss,omitempty"`
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.skills.Stats(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to collect status")
		return
	}

	resp := statusResponse{
		StatsResult:   stats,
		Version:       version.Get().Version,
		Language:      string(s.config.Language),
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
			resp.MemoryRSS = mem.RSS
		}
	}

	s.writeJSONResponse(w, http.StatusOK, resp)
}

// handleDashboard serves the embedded dashboard page
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeErrorResponse(w, http.StatusNotFound, "Not found")
		return
	}

	page, err := s.renderDashboard()
	if err != nil {
		logger.G(r.Context()).WithError(err).Error("Failed to render dashboard")
		s.writeErrorResponse(w, http.StatusInternalServerError, "Failed to render dashboard")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

// renderDashboard injects the language payload into the embedded page
func (s *Server) renderDashboard() ([]byte, error) {
	page, err := assetsFS.ReadFile("assets/index.html")
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read embedded dashboard")
	}

	data, err := json.Marshal(uiLangData(s.config.Language))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to encode language data")
	}

	return bytes.Replace(page, []byte(langPlaceholder), data, 1), nil
}

// writeServiceError maps service errors to HTTP statuses. Error bodies are
// a single {"error": message} object.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		s.writeErrorResponse(w, http.StatusNotFound, "Skill not found")
	case errors.Is(err, registry.ErrPathTraversal):
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid skill path")
	case errors.Is(err, registry.ErrInvalidCategory):
		s.writeErrorResponse(w, http.StatusBadRequest, "Unknown category")
	default:
		logger.G(r.Context()).WithError(err).Error(fallback)
		s.writeErrorResponse(w, http.StatusInternalServerError, fallback)
	}
}

// writeJSONResponse writes a JSON response
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.G(context.Background()).WithError(err).Error("Failed to encode JSON response")
	}
}

// writeErrorResponse writes a JSON error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSONResponse(w, statusCode, map[string]string{"error": message})
}
