// Package server exposes the memory vault over HTTP: a service
// descriptor, store/get endpoints, Prometheus metrics, and an optional
// websocket chat surface backed by the conversation engine.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/agentledger/memvault/engine"
	"github.com/agentledger/memvault/vault"
)

// Version is reported in the service descriptor. Overridable at build
// time via -ldflags.
var Version = "0.3.0"

// Config wires the server's collaborators.
type Config struct {
	Reader vault.Ledger
	Writer vault.Appender

	// Engine enables the websocket chat endpoint when non-nil.
	Engine *engine.Engine

	Log zerolog.Logger
}

// Server is the HTTP deployment of the vault client.
type Server struct {
	reader vault.Ledger
	writer vault.Appender
	engine *engine.Engine
	log    zerolog.Logger
}

// New creates a Server.
func New(cfg Config) *Server {
	return &Server{
		reader: cfg.Reader,
		writer: cfg.Writer,
		engine: cfg.Engine,
		log:    cfg.Log,
	}
}

// Handler returns the root HTTP handler with CORS and request logging
// applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/store-memory", s.handleStoreMemory)
	mux.HandleFunc("/get-memory", s.handleGetMemory)
	mux.Handle("/metrics", promhttp.Handler())
	if s.engine != nil {
		mux.HandleFunc("/ws", s.handleWS)
	}
	return s.withMiddleware(mux)
}

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Str("addr", addr).Msg("memvault server listening")
	return srv.ListenAndServe()
}

// withMiddleware applies CORS headers to every response, answers
// preflight requests, and logs each request.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		requestID := uuid.New().String()
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request handled")
	})
}

// handleRoot serves the service descriptor on "/" and 404s everything
// that no other route claimed.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, errorResponse{Success: false, Error: "not found"})
		return
	}
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusNotFound, errorResponse{Success: false, Error: "not found"})
		return
	}
	writeJSON(w, http.StatusOK, descriptor())
}

type toolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type serviceDescriptor struct {
	Name    string           `json:"name"`
	Version string           `json:"version"`
	Tools   []toolDescriptor `json:"tools"`
}

func descriptor() serviceDescriptor {
	return serviceDescriptor{
		Name:    "memvault",
		Version: Version,
		Tools: []toolDescriptor{
			{
				Name:        "store_memory",
				Description: "Append a fact to a user's memory vault under a topic.",
			},
			{
				Name:        "get_memory",
				Description: "Read the latest fact stored for a user under a topic.",
			},
		},
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
