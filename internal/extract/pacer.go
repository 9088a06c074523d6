// SPDX-License-Identifier: MIT

package extract

import (
	"context"

	"golang.org/x/time/rate"
)

// Pacer bounds the extraction attempt rate across all concurrent runs.
// The remote source sees one origin address for the whole process, so
// pacing is process-wide rather than per run.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer allows attemptsPerMinute attempts with the given burst.
func NewPacer(attemptsPerMinute float64, burst int) *Pacer {
	return &Pacer{
		limiter: rate.NewLimiter(rate.Limit(attemptsPerMinute/60.0), burst),
	}
}

// Wait blocks until an attempt slot is available or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
