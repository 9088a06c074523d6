// SPDX-License-Identifier: MIT

package transcode

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/clipforge/clipforge/internal/extract"
	"github.com/clipforge/clipforge/internal/faults"
	"github.com/clipforge/clipforge/internal/metrics"
	"github.com/clipforge/clipforge/internal/procgroup"
	"github.com/clipforge/clipforge/internal/sysinfo"
)

// minOutputBytes mirrors the extraction floor: smaller outputs are
// treated as corrupt.
const minOutputBytes = 1024

const outputName = "output_hevc_720p.mp4"

// Output is the transcoded artifact.
type Output struct {
	Path string
	Size int64
}

// Controller probes the input, selects a command shape, and supervises
// the encoder subprocess under a hard wall-clock ceiling.
type Controller struct {
	FFmpeg  string
	FFprobe string

	// Ceiling is the hard wall-clock limit for one encode.
	Ceiling time.Duration
	// ProbeTimeout bounds the stream probe.
	ProbeTimeout time.Duration
	// KillGrace is the SIGTERM-to-SIGKILL window on forced termination.
	KillGrace time.Duration

	Advice sysinfo.Advice

	// OnProgress receives live snapshots; optional.
	OnProgress func(Progress)

	Logger zerolog.Logger
}

// NewController builds a controller with the given binaries and limits.
func NewController(ffmpeg, ffprobe string, ceiling, probeTimeout time.Duration, advice sysinfo.Advice, logger zerolog.Logger) *Controller {
	return &Controller{
		FFmpeg:       ffmpeg,
		FFprobe:      ffprobe,
		Ceiling:      ceiling,
		ProbeTimeout: probeTimeout,
		KillGrace:    10 * time.Second,
		Advice:       advice,
		Logger:       logger,
	}
}

// Run transcodes the asset into workDir. audio optionally supplies a
// separate audio track remapped over the primary asset's video. All
// failures are classified; raw encoder faults never escape.
func (c *Controller) Run(ctx context.Context, asset extract.Asset, audio *extract.Asset, workDir string) (*Output, error) {
	probe := c.probeWithFallback(ctx, asset)
	if probe.FromProbe && !probe.HasVideo && !probe.HasAudio {
		return nil, faults.New(faults.StageTranscode, faults.KindNoValidStreams,
			"no valid video or audio streams found")
	}

	in := buildInput{
		InputPath:       asset.Path,
		OutputPath:      filepath.Join(workDir, outputName),
		SynthesizeVideo: asset.AudioOnly || !probe.HasVideo,
		Advice:          c.Advice,
	}
	if audio != nil && !asset.AudioOnly {
		in.AudioPath = audio.Path
	}
	args := buildEncodeArgs(in)

	parser := &progressParser{onUpdate: c.OnProgress}
	if probe.Duration > 0 {
		parser.seedDuration(time.Duration(probe.Duration * float64(time.Second)))
	}

	if _, err := c.supervise(ctx, args, workDir, parser); err != nil {
		return nil, err
	}

	info, statErr := os.Stat(in.OutputPath)
	if statErr != nil {
		return nil, faults.New(faults.StageTranscode, faults.KindOutputNotCreated,
			"processed video file was not created")
	}
	if info.Size() < minOutputBytes {
		return nil, faults.Newf(faults.StageTranscode, faults.KindOutputCorrupt,
			"output file is %d bytes", info.Size())
	}

	c.Logger.Info().
		Str("path", in.OutputPath).
		Int64("bytes", info.Size()).
		Msg("transcode complete")

	return &Output{Path: in.OutputPath, Size: info.Size()}, nil
}

// probeWithFallback never fails: probe errors fall back to a
// conservative assumption derived from the file extension.
func (c *Controller) probeWithFallback(ctx context.Context, asset extract.Asset) *ProbeResult {
	prober := &Prober{Bin: c.FFprobe, Timeout: c.ProbeTimeout, Logger: c.Logger}

	result, err := prober.Probe(ctx, asset.Path)
	if err != nil {
		c.Logger.Warn().Err(err).Msg("probe failed, proceeding with fallback stream assumptions")
		return &ProbeResult{
			HasVideo: !asset.AudioOnly,
			HasAudio: true,
		}
	}
	return result
}

// supervise runs the encoder as two concurrent tasks: stream parsing
// and wall-clock enforcement. Both are joined before the outcome is
// reported, and a ceiling breach terminates the whole process group.
func (c *Controller) supervise(ctx context.Context, args []string, workDir string, parser *progressParser) (string, error) {
	cmd := exec.Command(c.FFmpeg, args...)
	cmd.Dir = workDir
	cmd.Env = os.Environ()
	procgroup.Set(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", faults.Newf(faults.StageTranscode, faults.KindUnexpected, "stdout pipe: %v", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", faults.Newf(faults.StageTranscode, faults.KindUnexpected, "stderr pipe: %v", err)
	}

	c.Logger.Info().Str("bin", c.FFmpeg).Strs("args", args).Msg("starting encoder")

	if err := cmd.Start(); err != nil {
		if strings.Contains(err.Error(), "executable file not found") {
			return "", faults.Newf(faults.StageTranscode, faults.KindMissingEncoder,
				"encoder binary not found: %v", err)
		}
		if os.IsPermission(err) {
			return "", faults.Newf(faults.StageTranscode, faults.KindPermissionDenied,
				"cannot execute encoder: %v", err)
		}
		return "", faults.Newf(faults.StageTranscode, faults.KindUnexpected, "start encoder: %v", err)
	}

	// Diagnostic tail kept for exit classification.
	var diagBuf bytes.Buffer

	var readers errgroup.Group
	readers.Go(func() error {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			parser.consumeProgressLine(scanner.Text())
		}
		return nil
	})
	readers.Go(func() error {
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 64*1024), 256*1024)
		for scanner.Scan() {
			line := scanner.Text()
			parser.consumeDiagnosticLine(line)
			appendBounded(&diagBuf, line)
		}
		return nil
	})

	waitCh := make(chan error, 1)
	go func() {
		_ = readers.Wait()
		waitCh <- cmd.Wait()
	}()

	select {
	case err := <-waitCh:
		if err != nil {
			return diagBuf.String(), c.classifyExit(err, diagBuf.String())
		}
		return diagBuf.String(), nil

	case <-time.After(c.Ceiling):
		metrics.EncoderKills.WithLabelValues("ceiling").Inc()
		c.Logger.Error().
			Dur("ceiling", c.Ceiling).
			Interface("last_progress", parser.snapshot()).
			Msg("encode exceeded wall-clock ceiling, terminating process group")
		_ = procgroup.Terminate(cmd, waitCh, c.KillGrace)
		return diagBuf.String(), faults.Newf(faults.StageTranscode, faults.KindEncodeTimeout,
			"video processing timed out after %s", c.Ceiling)

	case <-ctx.Done():
		metrics.EncoderKills.WithLabelValues("canceled").Inc()
		_ = procgroup.Terminate(cmd, waitCh, c.KillGrace)
		return diagBuf.String(), faults.Newf(faults.StageTranscode, faults.KindUnexpected,
			"encode canceled: %v", ctx.Err())
	}
}

func (c *Controller) classifyExit(waitErr error, diagnostic string) error {
	exitCode := -1
	if ee, ok := waitErr.(*exec.ExitError); ok {
		exitCode = ee.ExitCode()
	}
	c.Logger.Error().
		Int("exit_code", exitCode).
		Str("diagnostic", faults.Truncate(diagnostic)).
		Msg("encoder failed")

	msg := strings.TrimSpace(diagnostic)
	if msg == "" {
		msg = fmt.Sprintf("encoder exited with code %d", exitCode)
	}
	return faults.ClassifyEncode(msg)
}

// appendBounded keeps the last portion of the diagnostic stream without
// letting a chatty encoder grow the buffer unbounded.
func appendBounded(buf *bytes.Buffer, line string) {
	const maxDiag = 64 * 1024
	if buf.Len() > maxDiag {
		// Drop the oldest half once the cap is hit.
		tail := buf.Bytes()[buf.Len()/2:]
		trimmed := make([]byte, len(tail))
		copy(trimmed, tail)
		buf.Reset()
		buf.Write(trimmed)
	}
	buf.WriteString(line)
	buf.WriteByte('\n')
}
