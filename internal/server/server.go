package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/user/vidscript-go/internal/auth"
	"github.com/user/vidscript-go/internal/pipeline"
	"github.com/user/vidscript-go/internal/store"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}

// Server handles HTTP requests for the transcription API
type Server struct {
	orchestrator *pipeline.Orchestrator
	store        store.Store
	verifier     *auth.Verifier
	router       *mux.Router
	server       *http.Server
	origins      []string
	startTime    time.Time
}

// NewServer creates a new HTTP server instance
func NewServer(orchestrator *pipeline.Orchestrator, st store.Store, verifier *auth.Verifier, allowedOrigins []string) *Server {
	s := &Server{
		orchestrator: orchestrator,
		store:        st,
		verifier:     verifier,
		router:       mux.NewRouter(),
		origins:      allowedOrigins,
		startTime:    time.Now(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()

	// Public sharing path: no authentication by design
	api.HandleFunc("/shared/{link}", s.handleGetSharedVideo).Methods(http.MethodGet)

	authed := api.PathPrefix("/videos").Subrouter()
	authed.Use(s.authMiddleware)
	authed.HandleFunc("/process", s.handleProcessVideo).Methods(http.MethodPost)
	authed.HandleFunc("/{id}/transcribe", s.handleTranscribeVideo).Methods(http.MethodPost)
	authed.HandleFunc("/{id}/transcription-status", s.handleTranscriptionStatus).Methods(http.MethodGet)
}

// Handler returns the router wrapped with CORS, for tests and embedding
func (s *Server) Handler() http.Handler {
	return gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(s.origins),
		gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		gorillahandlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		gorillahandlers.AllowCredentials(),
	)(s.router)
}

// Start begins listening on the specified port
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Int("port", port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Info().Msg("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// handleRoot serves the API banner
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "VidScript API"})
}

// handleHealth reports database connectivity and uptime
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbStatus := "healthy"
	if err := s.store.Ping(ctx); err != nil {
		dbStatus = fmt.Sprintf("unhealthy: %v", err)
	}

	status := "healthy"
	code := http.StatusOK
	if dbStatus != "healthy" {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, HealthResponse{
		Status:   status,
		Database: dbStatus,
		Uptime:   time.Since(s.startTime).Round(time.Second).String(),
	})
}

// writeJSON encodes v as the response body with the given status code
func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError encodes an error payload in the API's envelope
func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}
