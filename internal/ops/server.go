// Package ops serves the internal operations endpoints on a secondary
// listener, kept off the public API port.
package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/infinity-9427/IntelliDoc-AI/internal/analysis"
	"github.com/infinity-9427/IntelliDoc-AI/internal/jobs"
	"github.com/infinity-9427/IntelliDoc-AI/internal/ocr"
	"github.com/infinity-9427/IntelliDoc-AI/internal/pipeline"
	"github.com/infinity-9427/IntelliDoc-AI/pkg/logging"
)

// Server exposes health and statistics for operators
type Server struct {
	bus      *pipeline.EventBus
	store    *jobs.Store
	registry *ocr.Registry
	client   *analysis.Client
	srv      *http.Server
	log      zerolog.Logger
}

// NewServer assembles the ops server around the shared components
func NewServer(host string, port int, bus *pipeline.EventBus, store *jobs.Store, registry *ocr.Registry, client *analysis.Client) *Server {
	s := &Server{
		bus:      bus,
		store:    store,
		registry: registry,
		client:   client,
		log:      logging.GetLogger("ops"),
	}

	router := mux.NewRouter()
	router.HandleFunc("/ops/health", s.health).Methods("GET")
	router.HandleFunc("/ops/stats", s.stats).Methods("GET")

	s.srv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      s.loggingMiddleware(router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start blocks serving until the listener fails or Shutdown is called
func (s *Server) Start() error {
	s.log.Info().Str("address", s.srv.Addr).Msg("Starting ops server")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the listener gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	engines := map[string]string{}
	if s.registry != nil {
		engines = s.registry.Stats()
	}

	model := map[string]interface{}{"available": false}
	if s.client != nil {
		model["available"] = s.client.Available()
		model["model"] = s.client.Model()
	}

	s.sendJSON(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"engines":   engines,
		"analysis":  model,
	})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"timestamp": time.Now(),
	}
	if s.bus != nil {
		response["events"] = s.bus.GetStats()
	}
	if s.store != nil {
		response["jobs"] = s.store.Stats()
	}
	if s.registry != nil {
		response["engines"] = s.registry.Stats()
	}

	s.sendJSON(w, response)
}

func (s *Server) sendJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.statusCode).
			Dur("duration", time.Since(start)).
			Msg("Ops request")
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
