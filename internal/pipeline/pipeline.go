// SPDX-License-Identifier: MIT

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clipforge/clipforge/internal/extract"
	"github.com/clipforge/clipforge/internal/faults"
	"github.com/clipforge/clipforge/internal/log"
	"github.com/clipforge/clipforge/internal/metrics"
	"github.com/clipforge/clipforge/internal/publish"
	"github.com/clipforge/clipforge/internal/transcode"
)

// Extractor produces a local media asset for a target.
type Extractor interface {
	Run(ctx context.Context, target, workspace string) (*extract.Outcome, error)
}

// Transcoder converts an asset into the delivery format.
type Transcoder interface {
	Run(ctx context.Context, asset extract.Asset, audio *extract.Asset, workDir string) (*transcode.Output, error)
}

// Uploader moves the finished artifact to the store.
type Uploader interface {
	Run(ctx context.Context, path, sourceID string) (*publish.Outcome, error)
}

// ResultCache short-circuits repeat requests for the same video.
// Implementations must tolerate a nil receiver check upstream; the
// coordinator treats cache errors as misses.
type ResultCache interface {
	Get(ctx context.Context, videoID string) (*Result, error)
	Put(ctx context.Context, videoID string, res *Result) error
}

// Recorder persists one row per finished run.
type Recorder interface {
	Record(ctx context.Context, res *Result) error
}

// Coordinator sequences extract, transcode, and publish for one
// target, owning the run workspace for its whole lifetime.
type Coordinator struct {
	Extractor  Extractor
	Transcoder Transcoder
	Uploader   Uploader

	// Cache and History are optional collaborators.
	Cache   ResultCache
	History Recorder

	// WorkRoot hosts per-run workspaces; DataDir receives result
	// manifests.
	WorkRoot string
	DataDir  string

	Logger zerolog.Logger
}

// Process runs the full pipeline for target. It always returns a
// Result; failures are encoded in it rather than returned, so callers
// get a uniform record for both outcomes.
func (c *Coordinator) Process(ctx context.Context, target string) *Result {
	res := &Result{
		JobID:     uuid.NewString(),
		Target:    target,
		StartedAt: time.Now().UTC(),
	}
	// Downstream stage calls receive the job ID through ctx; the logger
	// picks it up together with any request correlation ID set upstream.
	ctx = log.ContextWithJobID(ctx, res.JobID)
	logger := log.WithContext(ctx, c.Logger)

	videoID, known := ParseVideoID(target)
	if known {
		res.VideoID = videoID
		if hit := c.cached(ctx, videoID); hit != nil {
			hit.JobID = res.JobID
			hit.Target = target
			hit.Cached = true
			hit.StartedAt = res.StartedAt
			hit.ElapsedMS = time.Since(res.StartedAt).Milliseconds()
			logger.Info().Str("video_id", videoID).Msg("served from result cache")
			return hit
		}
	}

	c.run(ctx, res, logger)

	res.ElapsedMS = time.Since(res.StartedAt).Milliseconds()
	c.finish(ctx, res, logger)
	return res
}

// run executes the three stages, containing panics so a fault in any
// stage still yields a classified failure and a destroyed workspace.
func (c *Coordinator) run(ctx context.Context, res *Result, logger zerolog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			res.fail(faults.New(faults.StagePipeline, faults.KindUnexpected,
				fmt.Sprintf("panic: %v", r)), faults.StagePipeline)
		}
	}()

	ws, err := NewWorkspace(c.WorkRoot, logger)
	if err != nil {
		res.fail(faults.New(faults.StagePipeline, faults.KindUnexpected, err.Error()), faults.StagePipeline)
		return
	}
	defer ws.Destroy()

	stageStart := time.Now()
	outcome, err := c.Extractor.Run(ctx, res.Target, ws.Path())
	metrics.ObserveStage(string(faults.StageExtract), stageStart)
	if err != nil {
		res.fail(err, faults.StageExtract)
		return
	}
	res.VideoID = outcome.Meta.ID
	res.Title = outcome.Meta.Title
	res.Duration = outcome.Meta.Duration
	res.AudioOnly = outcome.Asset.AudioOnly
	logger.Info().
		Str("video_id", res.VideoID).
		Int64("asset_bytes", outcome.Asset.Size).
		Bool("audio_only", res.AudioOnly).
		Msg("extraction complete")

	stageStart = time.Now()
	output, err := c.Transcoder.Run(ctx, outcome.Asset, nil, ws.Path())
	metrics.ObserveStage(string(faults.StageTranscode), stageStart)
	if err != nil {
		res.fail(err, faults.StageTranscode)
		return
	}
	logger.Info().Int64("output_bytes", output.Size).Msg("transcode complete")

	stageStart = time.Now()
	published, err := c.Uploader.Run(ctx, output.Path, res.VideoID)
	metrics.ObserveStage(string(faults.StagePublish), stageStart)
	if err != nil {
		res.fail(err, faults.StagePublish)
		return
	}

	res.Status = StatusCompleted
	res.Locator = published.Locator
	res.Bytes = published.Bytes
}

// finish records the terminal result in metrics, cache, history, and
// the on-disk manifest. None of these can fail the run.
func (c *Coordinator) finish(ctx context.Context, res *Result, logger zerolog.Logger) {
	stageLabel := res.Stage
	if stageLabel == "" {
		stageLabel = "none"
	}
	metrics.PipelineRuns.WithLabelValues(res.Status, stageLabel).Inc()

	if res.Status == StatusCompleted {
		logger.Info().
			Str("locator", res.Locator).
			Int64("bytes", res.Bytes).
			Int64("elapsed_ms", res.ElapsedMS).
			Msg("pipeline completed")
		if c.Cache != nil && res.VideoID != "" {
			if err := c.Cache.Put(ctx, res.VideoID, res); err != nil {
				logger.Warn().Err(err).Msg("result cache write failed")
			}
		}
	} else {
		logger.Error().
			Str("stage", res.Stage).
			Str("kind", res.Kind).
			Str("error", res.Error).
			Msg("pipeline failed")
	}

	if c.History != nil {
		if err := c.History.Record(ctx, res); err != nil {
			logger.Warn().Err(err).Msg("history record failed")
		}
	}
	c.writeManifest(res, logger)
}

// cached looks up a previous success; errors count as misses.
func (c *Coordinator) cached(ctx context.Context, videoID string) *Result {
	if c.Cache == nil {
		return nil
	}
	hit, err := c.Cache.Get(ctx, videoID)
	if err != nil || hit == nil {
		if err != nil {
			c.Logger.Warn().Err(err).Msg("result cache read failed")
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return hit
}

// writeManifest persists the result JSON atomically for post-hoc
// inspection. Best effort.
func (c *Coordinator) writeManifest(res *Result, logger zerolog.Logger) {
	if c.DataDir == "" {
		return
	}
	dir := filepath.Join(c.DataDir, "results")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn().Err(err).Msg("manifest directory unavailable")
		return
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return
	}
	path := filepath.Join(dir, res.JobID+".json")
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("manifest write failed")
	}
}
