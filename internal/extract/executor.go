// SPDX-License-Identifier: MIT

package extract

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/clipforge/clipforge/internal/faults"
)

// minAssetBytes is the floor below which a materialized file is
// reclassified as corrupt or empty.
const minAssetBytes = 1024

// mediaExtensions is the accepted media-container set scanned for
// after a transfer.
var mediaExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".webm": true,
	".m4a": true, ".mp3": true, ".wav": true,
	".flv": true, ".avi": true, ".3gp": true, ".f4v": true,
}

var audioExtensions = map[string]bool{
	".m4a": true, ".mp3": true, ".wav": true,
}

// Asset is a media file materialized in the workspace.
type Asset struct {
	Path      string
	Size      int64
	AudioOnly bool
}

// Outcome is a successful extraction: the located asset plus resolved
// metadata. It is immutable after creation.
type Outcome struct {
	Asset Asset
	Meta  Metadata
}

// Executor invokes one strategy against one target. It never retries
// internally and never deletes workspace files; retry is the
// orchestrator's responsibility.
type Executor struct {
	Runner      Runner
	CookiesFile string
	Logger      zerolog.Logger

	// sleep is injectable for tests; defaults to time.Sleep.
	sleep func(time.Duration)
}

// NewExecutor builds an executor around the given runner.
func NewExecutor(runner Runner, cookiesFile string, logger zerolog.Logger) *Executor {
	return &Executor{
		Runner:      runner,
		CookiesFile: cookiesFile,
		Logger:      logger,
	}
}

// Execute runs one strategy. Any failure is returned as a classified
// *faults.Error; raw tool faults never escape this boundary.
func (e *Executor) Execute(ctx context.Context, strategy Strategy, target, workspace string) (*Outcome, error) {
	req := Request{
		Target:    target,
		Workspace: workspace,
		Strategy:  strategy,
	}
	if strategy.NeedsCookies {
		req.CookiesFile = e.CookiesFile
	}

	logger := e.Logger.With().Str("strategy", strategy.Name).Logger()

	meta, err := e.Runner.Resolve(ctx, req)
	if err != nil {
		ce := faults.ClassifyResolve(err.Error())
		logger.Warn().Str("kind", string(ce.Kind)).Msg("metadata resolution failed")
		return nil, ce
	}

	// Randomized pause before transfer so consecutive requests do not
	// present a mechanically regular cadence to the remote source.
	e.pause(ctx, time.Duration(500+rand.Intn(1500))*time.Millisecond)

	if err := e.Runner.Download(ctx, req); err != nil {
		ce := faults.ClassifyDownload(err.Error())
		logger.Warn().Str("kind", string(ce.Kind)).Msg("content transfer failed")
		return nil, ce
	}

	asset, err := locateAsset(workspace, strategy.AudioOnly)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("path", asset.Path).
		Int64("bytes", asset.Size).
		Bool("audio_only", asset.AudioOnly).
		Msg("extraction succeeded")

	return &Outcome{Asset: *asset, Meta: *meta}, nil
}

func (e *Executor) pause(ctx context.Context, d time.Duration) {
	if e.sleep != nil {
		e.sleep(d)
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// locateAsset scans the workspace for the first accepted media file.
func locateAsset(workspace string, audioOnly bool) (*Asset, error) {
	entries, err := os.ReadDir(workspace)
	if err != nil {
		return nil, faults.Newf(faults.StageExtract, faults.KindNoFilesDownloaded, "read workspace: %v", err)
	}

	var media []string
	metadataOnly := false
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		switch {
		case mediaExtensions[ext]:
			media = append(media, filepath.Join(workspace, entry.Name()))
		case ext == ".mhtml":
			// Thumbnail/metadata artifact without media content.
			metadataOnly = true
		}
	}

	if len(media) == 0 {
		if metadataOnly {
			return nil, faults.New(faults.StageExtract, faults.KindOnlyMetadataAvailable,
				"only thumbnail/metadata artifacts were downloaded")
		}
		return nil, faults.New(faults.StageExtract, faults.KindNoFilesDownloaded, "no files downloaded")
	}
	sort.Strings(media)

	path := media[0]
	info, err := os.Stat(path)
	if err != nil {
		return nil, faults.Newf(faults.StageExtract, faults.KindNoFilesDownloaded, "stat %s: %v", path, err)
	}
	if info.Size() < minAssetBytes {
		return nil, faults.Newf(faults.StageExtract, faults.KindCorruptOrEmpty,
			"downloaded file is %d bytes", info.Size())
	}

	ext := strings.ToLower(filepath.Ext(path))
	return &Asset{
		Path:      path,
		Size:      info.Size(),
		AudioOnly: audioOnly || audioExtensions[ext],
	}, nil
}
