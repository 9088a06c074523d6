// SPDX-License-Identifier: MIT

package pipeline

import (
	"time"

	"github.com/clipforge/clipforge/internal/faults"
)

// Run statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Result is the terminal record of one pipeline run. It is what the
// API returns, what the cache stores, and what the history persists.
type Result struct {
	JobID   string `json:"job_id"`
	Target  string `json:"target"`
	VideoID string `json:"video_id,omitempty"`
	Title   string `json:"title,omitempty"`

	Status    string  `json:"status"`
	Locator   string  `json:"locator,omitempty"`
	Bytes     int64   `json:"bytes,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
	AudioOnly bool    `json:"audio_only,omitempty"`
	Cached    bool    `json:"cached,omitempty"`

	Stage string `json:"stage,omitempty"`
	Kind  string `json:"kind,omitempty"`
	Error string `json:"error,omitempty"`
	Hint  string `json:"hint,omitempty"`

	StartedAt time.Time `json:"started_at"`
	ElapsedMS int64     `json:"elapsed_ms"`
}

// fail stamps the result as failed from a classified error. An
// unclassified error is attributed to fallbackStage as Unexpected.
func (r *Result) fail(err error, fallbackStage faults.Stage) {
	fe := faults.AsError(err, fallbackStage)
	r.Status = StatusFailed
	r.Stage = string(fe.Stage)
	r.Kind = string(fe.Kind)
	r.Error = fe.Detail
	r.Hint = faults.Hint(fe.Stage, fe.Kind)
}
