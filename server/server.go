// Package server hosts the rewrite evaluator over HTTP/JSON.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"rewritelab/rewrite"

	"github.com/rs/zerolog"
)

// maxBodyBytes caps the evaluate request body.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// HTTPServer serves the evaluate API, a health probe and the metrics scrape
// endpoint.
type HTTPServer struct {
	logger        zerolog.Logger
	rewriteServer rewrite.Server
	metrics       *Metrics
	addr          string
}

// NewHTTPServer creates an HTTP host around a rewrite server.
func NewHTTPServer(logger zerolog.Logger, addr string, rewriteServer rewrite.Server, metrics *Metrics) *HTTPServer {
	return &HTTPServer{
		logger:        logger,
		rewriteServer: rewriteServer,
		metrics:       metrics,
		addr:          addr,
	}
}

// Handler builds the route table. Exposed separately from Start so tests can
// drive it through httptest.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/evaluate", s.handleEvaluate)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", s.metrics.Handler())
	return mux
}

// Start listens on the configured address and blocks until the listener
// fails.
func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.addr).Msg("Starting HTTP server")
	return http.ListenAndServe(s.addr, s.Handler())
}

func (s *HTTPServer) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "only POST is supported")
		return
	}

	var input rewrite.EvalInput
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&input); err != nil {
		s.metrics.inputRejected()
		s.writeError(w, http.StatusBadRequest, "malformed JSON request body")
		return
	}

	startTime := time.Now()
	output, err := s.rewriteServer.EvalRequest(input)
	if err != nil {
		s.metrics.inputRejected()
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.metrics.evaluationCompleted(string(output.Status), time.Since(startTime))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(output); err != nil {
		s.logger.Error().Err(err).Msg("Error while writing the evaluate response")
	}
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *HTTPServer) writeError(w http.ResponseWriter, statusCode int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: msg}); err != nil {
		s.logger.Error().Err(err).Msg("Error while writing the error response")
	}
}
