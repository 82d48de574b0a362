// Package api implements the HTTP front-end: job submission and status
// queries over the Engine Registry.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/netdout/netdout/internal/engine"
	"github.com/netdout/netdout/internal/logging"
)

// Server wires the Engine Registry to the HTTP routes.
type Server struct {
	registry *engine.Registry
	log      *logging.Logger
	mux      *http.ServeMux
}

// New builds a Server handling the routes against registry.
func New(registry *engine.Registry, log *logging.Logger) *Server {
	s := &Server{registry: registry, log: log, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /downloads", s.handleCreateDownload)
	s.mux.HandleFunc("GET /downloads/{id}", s.handleGetDownload)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type createDownloadRequest struct {
	URL    string `json:"url"`
	Output string `json:"output"`
}

type createDownloadResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleCreateDownload(w http.ResponseWriter, r *http.Request) {
	var req createDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Errorf("decoding download request: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	id := s.registry.Enqueue(req.URL, req.Output)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(createDownloadResponse{ID: id}); err != nil {
		s.log.Errorf("encoding download response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Server) handleGetDownload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	record, ok := s.registry.Status(id)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(record); err != nil {
		s.log.Errorf("encoding job record: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}
