// SPDX-License-Identifier: MIT

// Package api exposes the pipeline over HTTP. The surface is
// deliberately thin: one processing endpoint, the job listing, and
// operational probes.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/clipforge/clipforge/internal/health"
	"github.com/clipforge/clipforge/internal/pipeline"
)

// Processor runs one pipeline for one target.
type Processor interface {
	Process(ctx context.Context, target string) *pipeline.Result
}

// JobLister returns recent run history.
type JobLister interface {
	Recent(ctx context.Context, limit int) ([]pipeline.Result, error)
}

// Server bundles the HTTP handlers and their collaborators.
type Server struct {
	Processor Processor
	Jobs      JobLister
	Health    *health.Manager

	// RatePerMinute bounds process requests per client IP.
	RatePerMinute int

	Logger zerolog.Logger
}

// Router assembles the route tree with the ingress middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer)
	r.Use(requestID)
	r.Use(accessLog)

	r.Get("/healthz", s.Health.ServeHealth)
	r.Get("/readyz", s.Health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.With(s.processLimit()).Post("/process", s.handleProcess)
		r.Get("/jobs", s.handleJobs)
	})

	return r
}

func (s *Server) processLimit() func(http.Handler) http.Handler {
	limit := s.RatePerMinute
	if limit <= 0 {
		limit = 6
	}
	return httprate.LimitByIP(limit, time.Minute)
}

type processRequest struct {
	URL string `json:"url"`
}

// handleProcess validates the target and runs the pipeline
// synchronously. Failed runs still answer with the full result record
// so clients see the classification and hint.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if _, ok := pipeline.ParseVideoID(req.URL); !ok {
		writeError(w, http.StatusBadRequest, "url must be a single-video URL")
		return
	}

	res := s.Processor.Process(r.Context(), req.URL)

	code := http.StatusOK
	if res.Status != pipeline.StatusCompleted {
		code = http.StatusUnprocessableEntity
	}
	writeJSON(w, code, res)
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if s.Jobs == nil {
		writeError(w, http.StatusNotFound, "job history is not enabled")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.Jobs.Recent(r.Context(), limit)
	if err != nil {
		s.Logger.Error().Err(err).Msg("job listing failed")
		writeError(w, http.StatusInternalServerError, "job listing failed")
		return
	}
	if runs == nil {
		runs = []pipeline.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": runs})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
