// SPDX-License-Identifier: MIT

package extract

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/clipforge/clipforge/internal/faults"
	"github.com/clipforge/clipforge/internal/metrics"
)

// AttemptRunner is the per-strategy execution boundary, satisfied by
// *Executor and stubbed in tests.
type AttemptRunner interface {
	Execute(ctx context.Context, strategy Strategy, target, workspace string) (*Outcome, error)
}

// Orchestrator iterates the strategy catalog in priority order,
// short-circuiting on the first success.
type Orchestrator struct {
	Executor    AttemptRunner
	Catalog     []Strategy
	CookiesFile string
	Pacer       *Pacer
	Logger      zerolog.Logger

	// Sleep overrides the inter-attempt wait; nil uses a context-aware
	// timer. Tests stub it to run without real delays.
	Sleep func(ctx context.Context, d time.Duration)
}

// NewOrchestrator wires an orchestrator over the default catalog.
func NewOrchestrator(executor AttemptRunner, cookiesFile string, pacer *Pacer, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		Executor:    executor,
		Catalog:     Catalog(),
		CookiesFile: cookiesFile,
		Pacer:       pacer,
		Logger:      logger,
	}
}

// Run tries every strategy in order until one succeeds. A skipped
// precondition does not count as an attempt and introduces no delay.
// If every strategy fails or is skipped, the terminal failure carries
// the last attempt's detail.
func (o *Orchestrator) Run(ctx context.Context, target, workspace string) (*Outcome, error) {
	var lastErr error
	attempts := 0

	for _, strategy := range o.Catalog {
		if strategy.NeedsCookies && !CredentialsPresent(o.CookiesFile) {
			metrics.ExtractionSkips.WithLabelValues(strategy.Name).Inc()
			o.Logger.Info().Str("strategy", strategy.Name).Msg("skipping strategy: no credential material")
			continue
		}

		// Randomized backoff between attempts reduces the correlation
		// between consecutive requests from one workspace.
		if attempts > 0 {
			o.wait(ctx, time.Duration(2000+rand.Intn(3000))*time.Millisecond)
		}
		if err := o.Pacer.Wait(ctx); err != nil {
			return nil, faults.New(faults.StageExtract, faults.KindUnexpected, err.Error())
		}
		attempts++

		o.Logger.Info().
			Str("strategy", strategy.Name).
			Int("attempt", attempts).
			Int("catalog_size", len(o.Catalog)).
			Msg("attempting extraction strategy")

		outcome, err := o.attempt(ctx, strategy, target, workspace)
		if err == nil {
			metrics.ExtractionAttempts.WithLabelValues(strategy.Name, "success").Inc()
			o.Logger.Info().Str("strategy", strategy.Name).Msg("extraction strategy succeeded")
			return outcome, nil
		}

		metrics.ExtractionAttempts.WithLabelValues(strategy.Name, string(faults.KindOf(err))).Inc()
		o.Logger.Warn().Err(err).Str("strategy", strategy.Name).Msg("extraction strategy failed")
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	detail := "no strategy was attempted"
	if lastErr != nil {
		detail = lastErr.Error()
	}
	return nil, faults.Newf(faults.StageExtract, faults.KindAllStrategiesFailed,
		"all download strategies failed. Last error: %s", detail)
}

// attempt isolates one strategy execution: an unexpected fault inside
// the executor must not abort the whole run.
func (o *Orchestrator) attempt(ctx context.Context, strategy Strategy, target, workspace string) (outcome *Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = nil
			err = faults.New(faults.StageExtract, faults.KindUnexpected, fmt.Sprintf("panic: %v", r))
		}
	}()
	return o.Executor.Execute(ctx, strategy, target, workspace)
}

func (o *Orchestrator) wait(ctx context.Context, d time.Duration) {
	if o.Sleep != nil {
		o.Sleep(ctx, d)
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
