// SPDX-License-Identifier: MIT

// Package transcode normalizes a located media asset to HEVC 720p MP4
// by supervising an external encoder subprocess.
package transcode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// ProbeResult describes the stream composition of an input asset.
type ProbeResult struct {
	HasVideo bool
	HasAudio bool
	// Duration is the declared total duration in seconds, 0 if unknown.
	Duration float64
	// FromProbe is false when the result is an extension-based fallback.
	FromProbe bool
}

// Prober runs the external stream-probe capability with a bounded
// timeout.
type Prober struct {
	Bin     string
	Timeout time.Duration
	Logger  zerolog.Logger
}

type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe inspects the file at path. Timeout, non-zero exit, and
// unparseable output are returned as errors; the caller decides the
// fallback (probe failure alone never blocks the pipeline).
func (p *Prober) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.Bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("probe timed out after %s", p.Timeout)
		}
		return nil, fmt.Errorf("probe failed: %s", firstLine(stderr.String(), err))
	}

	var out probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("parse probe output: %w", err)
	}

	result := &ProbeResult{FromProbe: true}
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			result.HasVideo = true
		case "audio":
			result.HasAudio = true
		}
	}
	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		result.Duration = d
	}

	p.Logger.Info().
		Bool("has_video", result.HasVideo).
		Bool("has_audio", result.HasAudio).
		Float64("duration_s", result.Duration).
		Msg("input stream analysis")

	return result, nil
}

func firstLine(s string, fallback error) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			s = s[:i]
			break
		}
	}
	if s == "" {
		return fallback.Error()
	}
	return s
}
