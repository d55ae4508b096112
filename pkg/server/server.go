// Package server exposes the engine over HTTP: a run/validate API plus
// health and Prometheus metrics endpoints, for deployments that drive
// cwlrun as a long-lived service rather than a one-shot CLI invocation.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cwl-core/cwlrun/pkg/engine"
	"github.com/cwl-core/cwlrun/pkg/logging"
)

// Config holds HTTP server tunables.
type Config struct {
	Address            string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	EnableCORS         bool
}

// DefaultConfig returns conservative server tunables.
func DefaultConfig() Config {
	return Config{
		Address:            ":8080",
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       30 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		MaxRequestBodySize: 10 * 1024 * 1024,
		EnableCORS:         true,
	}
}

// Server is the HTTP API in front of one *engine.Engine.
type Server struct {
	config     Config
	httpServer *http.Server
	eng        *engine.Engine
	log        *logging.Logger
}

// New builds a Server. eng and log must not be nil.
func New(cfg Config, eng *engine.Engine, log *logging.Logger) *Server {
	s := &Server{config: cfg, eng: eng, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/v1/run", s.handleRun)
	mux.HandleFunc("/v1/validate", s.handleValidate)

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.middlewareChain(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// runRequest is the body POST /v1/run and /v1/validate both accept.
type runRequest struct {
	Document string                 `json:"document"`
	Inputs   map[string]interface{} `json:"inputs"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := s.decodeRunRequest(w, r)
	if err != nil {
		return
	}

	result, err := s.eng.Run(r.Context(), req.Document, req.Inputs)
	if err != nil {
		s.writeError(w, "run failed", http.StatusUnprocessableEntity, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"executionId": result.ExecutionID,
		"outputs":     result.Outputs,
		"durationMs":  result.Duration.Milliseconds(),
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := s.decodeRunRequest(w, r)
	if err != nil {
		return
	}

	if _, err := s.eng.Load(req.Document); err != nil {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"valid": false, "error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"valid": true})
}

func (s *Server) decodeRunRequest(w http.ResponseWriter, r *http.Request) (runRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, "failed to read request body", http.StatusBadRequest, err)
		return runRequest{}, err
	}
	var req runRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, "failed to parse request body", http.StatusBadRequest, err)
		return runRequest{}, err
	}
	if req.Document == "" {
		err := fmt.Errorf("document is required")
		s.writeError(w, "invalid request", http.StatusBadRequest, err)
		return runRequest{}, err
	}
	return req, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string, status int, err error) {
	s.log.Error().Err(err).Int("status", status).Msg(message)
	s.writeJSON(w, status, map[string]interface{}{"error": message, "details": err.Error()})
}

// Start blocks serving HTTP until the server is shut down.
func (s *Server) Start() error {
	s.log.Info().Str("address", s.config.Address).Msg("starting server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) middlewareChain(h http.Handler) http.Handler {
	if s.config.EnableCORS {
		h = s.corsMiddleware(h)
	}
	h = s.loggingMiddleware(h)
	h = s.recoveryMiddleware(h)
	return h
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("panic recovered")
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
