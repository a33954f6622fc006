// Package server exposes the intent pipeline over HTTP. The service
// accepts either a drafted TMF921 intent (JSON body) or a plain-text
// scenario that is first translated by the language model.
package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thc1006/tmf921-intent-bridge/internal/pipeline"
	"github.com/thc1006/tmf921-intent-bridge/pkg/llm"
)

// maxBodyBytes caps request bodies; scenarios and intents are small.
const maxBodyBytes = 1 << 20

// Checker reports whether the model backend is reachable.
type Checker interface {
	CheckConnection(ctx context.Context) error
}

// Server is the HTTP front end over the pipeline.
type Server struct {
	pipeline *pipeline.Pipeline
	checker  Checker
	logger   *slog.Logger
	http     *http.Server
}

// Config holds the listener settings.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// New builds the server. The checker may be nil; health then reports
// only process liveness.
func New(p *pipeline.Pipeline, checker Checker, logger *slog.Logger, cfg Config) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		pipeline: p,
		checker:  checker,
		logger:   logger,
	}
	s.http = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Router builds the route table; exposed for tests.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/intent", s.handleIntent).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

// ListenAndServe runs the server until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// handleIntent processes one request. A JSON body is treated as a
// drafted intent and sent through post-correction and validation; any
// other content type is treated as a natural-language scenario and
// translated first. With ?format=icm the response is the converted ICM
// JSON-LD document instead of the full processing record.
func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if len(strings.TrimSpace(string(body))) == 0 {
		http.Error(w, "empty request body", http.StatusBadRequest)
		return
	}

	ct := r.Header.Get("Content-Type")
	isJSON := strings.HasPrefix(ct, "application/json") || strings.HasPrefix(ct, "text/json")

	var result *pipeline.Result
	if isJSON {
		result = s.pipeline.ProcessCandidate(r.Context(), body)
	} else {
		result = s.pipeline.ProcessScenario(r.Context(), string(body))
	}

	if result.Error != "" {
		status := http.StatusBadRequest
		if !isJSON {
			// Scenario path failures are upstream model problems.
			status = http.StatusBadGateway
		}
		s.logger.Warn("intent request failed", "id", result.ID, "error", result.Error)
		writeJSON(w, status, map[string]string{"id": result.ID, "error": result.Error})
		return
	}

	if r.URL.Query().Get("format") == "icm" {
		if result.ICM == nil {
			detail := result.ICMError
			if detail == "" {
				detail = "icm export is disabled"
			}
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"id":    result.ID,
				"error": "icm conversion unavailable: " + detail,
			})
			return
		}
		writeJSON(w, http.StatusOK, result.ICM)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	code := http.StatusOK

	if s.checker != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.checker.CheckConnection(ctx); err != nil {
			status["status"] = "degraded"
			status["llm"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, status)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// interface guard: the ollama client satisfies the health checker.
var _ Checker = (*llm.OllamaClient)(nil)
