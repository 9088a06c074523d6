// SPDX-License-Identifier: MIT

// Package health reports liveness and readiness over HTTP, backed by
// checks against the external tools the pipeline depends on.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/clipforge/clipforge/internal/log"
)

// Status is the aggregate state of one check or of the whole service.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult is the outcome of one component check.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Response is the body of both probe endpoints.
type Response struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Checker is one component probe.
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Manager aggregates component checks into probe responses.
type Manager struct {
	version  string
	checkers []Checker
}

func NewManager(version string) *Manager {
	return &Manager{version: version}
}

func (m *Manager) Register(checker Checker) {
	m.checkers = append(m.checkers, checker)
}

// Ready runs every check. Any unhealthy component makes the service
// not ready; degraded components are reported but do not.
func (m *Manager) Ready(ctx context.Context) Response {
	resp := Response{
		Ready:     true,
		Status:    StatusHealthy,
		Version:   m.version,
		Timestamp: time.Now(),
	}
	if len(m.checkers) == 0 {
		return resp
	}

	resp.Checks = make(map[string]CheckResult, len(m.checkers))
	for _, checker := range m.checkers {
		result := checker.Check(ctx)
		resp.Checks[checker.Name()] = result
		switch result.Status {
		case StatusUnhealthy:
			resp.Ready = false
			resp.Status = StatusUnhealthy
		case StatusDegraded:
			if resp.Status == StatusHealthy {
				resp.Status = StatusDegraded
			}
		}
	}
	return resp
}

// ServeHealth is the liveness probe: the process answering is the
// signal, so it is always 200.
func (m *Manager) ServeHealth(w http.ResponseWriter, r *http.Request) {
	resp := Response{
		Ready:     true,
		Status:    StatusHealthy,
		Version:   m.version,
		Timestamp: time.Now(),
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// ServeReady is the readiness probe; 503 until every dependency is
// usable.
func (m *Manager) ServeReady(w http.ResponseWriter, r *http.Request) {
	resp := m.Ready(r.Context())
	code := http.StatusOK
	if !resp.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, r, code, resp)
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		l := log.WithComponentFromContext(r.Context(), "health")
		l.Error().Err(err).Msg("failed to encode probe response")
	}
}
