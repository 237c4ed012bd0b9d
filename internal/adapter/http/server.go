package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cwygoda/harvest/internal/domain"
)

// Server exposes the run ledger over HTTP.
type Server struct {
	svc    *domain.RunService
	mux    *http.ServeMux
	server *http.Server
	log    zerolog.Logger
}

// NewServer creates a new HTTP server.
func NewServer(svc *domain.RunService, addr string, log zerolog.Logger) *Server {
	s := &Server{
		svc: svc,
		mux: http.NewServeMux(),
		log: log.With().Str("component", "http").Logger(),
	}
	s.routes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /runs", s.handleListRuns)
	s.mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// runResponse is the JSON form of a run.
type runResponse struct {
	ID         string `json:"id"`
	Profile    string `json:"profile"`
	Input      string `json:"input"`
	Status     string `json:"status"`
	Total      int    `json:"total"`
	Succeeded  int    `json:"succeeded"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

// outcomeResponse is the JSON form of one report entry.
type outcomeResponse struct {
	Name           string `json:"name"`
	Succeeded      bool   `json:"succeeded"`
	Skipped        bool   `json:"skipped"`
	SourceURL      string `json:"source_url,omitempty"`
	FailureDetails string `json:"failure_details,omitempty"`
}

type runDetailResponse struct {
	runResponse
	Outcomes []outcomeResponse `json:"outcomes"`
}

// errorResponse is the JSON error response.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	runs, err := s.svc.List(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("list runs")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := make([]runResponse, 0, len(runs))
	for i := range runs {
		resp = append(resp, runToResponse(&runs[i]))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "invalid run ID")
		return
	}

	run, err := s.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			s.writeError(w, http.StatusNotFound, "run not found")
			return
		}
		s.log.Error().Err(err).Str("run", id).Msg("get run")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	entries, err := s.svc.Outcomes(r.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Str("run", id).Msg("get outcomes")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := runDetailResponse{runResponse: runToResponse(run), Outcomes: make([]outcomeResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Outcomes = append(resp.Outcomes, outcomeResponse{
			Name:           e.Name,
			Succeeded:      e.Succeeded,
			Skipped:        e.Skipped,
			SourceURL:      e.SourceURL,
			FailureDetails: e.FailureDetails,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug().Err(err).Msg("write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func runToResponse(run *domain.Run) runResponse {
	resp := runResponse{
		ID:        run.ID,
		Profile:   run.Profile,
		Input:     run.Input,
		Status:    string(run.Status),
		Total:     run.Summary.Total,
		Succeeded: run.Summary.Succeeded,
		Skipped:   run.Summary.Skipped,
		Failed:    run.Summary.Failed,
		StartedAt: run.StartedAt.UTC().Format(time.RFC3339),
	}
	if !run.FinishedAt.IsZero() {
		resp.FinishedAt = run.FinishedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// ServeHTTP implements http.Handler for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Addr returns the server address.
func (s *Server) Addr() string {
	return s.server.Addr
}
