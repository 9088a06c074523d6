// SPDX-License-Identifier: MIT

package publish

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"github.com/clipforge/clipforge/internal/faults"
	"github.com/clipforge/clipforge/internal/metrics"
)

// folder scopes all published artifacts in the store.
const folder = "yt_hevc_720p"

const (
	maxAttempts = 3
	retryDelay  = 5 * time.Second
)

var unsafeIDChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Outcome is a successful publish.
type Outcome struct {
	Locator string
	Bytes   int64
	StoreID string
}

// Publisher uploads one artifact with bounded retry and classifies
// terminal store faults.
type Publisher struct {
	Store    Store
	MaxBytes int64
	Logger   zerolog.Logger

	// sleep is injectable for tests; defaults to a context-aware wait.
	sleep func(ctx context.Context, d time.Duration)
}

// NewPublisher builds a publisher over the given store.
func NewPublisher(store Store, maxBytes int64, logger zerolog.Logger) *Publisher {
	return &Publisher{Store: store, MaxBytes: maxBytes, Logger: logger}
}

// SanitizeID restricts a source identifier to [A-Za-z0-9_-], replacing
// every other character with an underscore.
func SanitizeID(id string) string {
	return unsafeIDChars.ReplaceAllString(id, "_")
}

// Run uploads the artifact at path under a publish identifier derived
// from sourceID. Size and readability are validated before any
// transfer is attempted.
func (p *Publisher) Run(ctx context.Context, path, sourceID string) (*Outcome, error) {
	publicID := folder + "/" + SanitizeID(sourceID)

	info, err := os.Stat(path)
	if err != nil {
		return nil, faults.Newf(faults.StagePublish, faults.KindPublishFailed, "stat artifact: %v", err)
	}
	if info.Size() > p.MaxBytes {
		return nil, faults.Newf(faults.StagePublish, faults.KindTooLarge,
			"video file too large (%.1fMB > %dMB)",
			float64(info.Size())/1024/1024, p.MaxBytes/1024/1024)
	}

	if err := verifyReadable(path); err != nil {
		return nil, faults.Newf(faults.StagePublish, faults.KindPublishFailed, "cannot read artifact: %v", err)
	}

	p.Logger.Info().
		Str("public_id", publicID).
		Int64("bytes", info.Size()).
		Msg("publishing artifact")

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := p.Store.Upload(ctx, path, publicID)
		if err == nil && result.Locator == "" {
			err = fmt.Errorf("upload accepted but no locator returned")
		}
		if err == nil {
			metrics.PublishAttempts.WithLabelValues("success").Inc()
			p.Logger.Info().
				Str("locator", result.Locator).
				Int("attempt", attempt).
				Msg("publish succeeded")
			if result.Bytes == 0 {
				result.Bytes = info.Size()
			}
			return &Outcome{Locator: result.Locator, Bytes: result.Bytes, StoreID: result.ID}, nil
		}

		metrics.PublishAttempts.WithLabelValues("error").Inc()
		lastErr = err
		p.Logger.Warn().Err(err).Int("attempt", attempt).Msg("upload attempt failed")

		if attempt < maxAttempts {
			p.wait(ctx, retryDelay)
		}
	}

	return nil, faults.ClassifyPublish(lastErr.Error())
}

func (p *Publisher) wait(ctx context.Context, d time.Duration) {
	if p.sleep != nil {
		p.sleep(ctx, d)
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// verifyReadable attempts a small read so a permission or device error
// surfaces before the transfer starts.
func verifyReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 1024)
	if _, err := f.Read(buf); err != nil {
		return err
	}
	return nil
}
