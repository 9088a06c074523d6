// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus instrumentation for the pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExtractionAttempts tracks extraction attempts by strategy and result.
	ExtractionAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipforge_extraction_attempts_total",
		Help: "Extraction attempts by strategy and result",
	}, []string{"strategy", "result"})

	// ExtractionSkips tracks strategies skipped on unmet preconditions.
	ExtractionSkips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipforge_extraction_skips_total",
		Help: "Strategies skipped because their precondition was unmet",
	}, []string{"strategy"})

	// StageDuration tracks wall-clock duration per pipeline stage.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clipforge_stage_duration_seconds",
		Help:    "Duration of pipeline stages",
		Buckets: prometheus.ExponentialBuckets(0.5, 2.0, 12), // 0.5s to ~1000s
	}, []string{"stage"})

	// EncoderKills tracks forced encoder terminations by reason.
	EncoderKills = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipforge_encoder_kills_total",
		Help: "Encoder subprocess terminations forced by the supervisor",
	}, []string{"reason"})

	// PublishAttempts tracks upload attempts by result.
	PublishAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipforge_publish_attempts_total",
		Help: "Store upload attempts by result",
	}, []string{"result"})

	// PipelineRuns tracks completed pipeline runs by outcome and failed stage.
	PipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipforge_pipeline_runs_total",
		Help: "Pipeline runs by status and failed stage (stage empty on success)",
	}, []string{"status", "stage"})

	// CacheLookups tracks result-cache lookups.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipforge_result_cache_lookups_total",
		Help: "Result cache lookups by outcome",
	}, []string{"outcome"})
)

// ObserveStage records the duration of one pipeline stage.
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
