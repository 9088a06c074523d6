// SPDX-License-Identifier: MIT

package transcode

import (
	"strconv"

	"github.com/clipforge/clipforge/internal/sysinfo"
)

// buildInput carries everything needed to assemble the encoder command.
type buildInput struct {
	InputPath  string
	AudioPath  string // optional separate audio track
	OutputPath string
	// SynthesizeVideo selects the static-background path for audio-only
	// input or a probe that found no video stream.
	SynthesizeVideo bool
	Advice          sysinfo.Advice
}

// buildEncodeArgs selects one of three mutually exclusive command
// shapes, in this precedence order: synthesized background, separate
// audio remap, single input. All paths target HEVC CRF 28, 720p height
// with preserved aspect ratio, AAC 96k audio, and a fast-start MP4.
func buildEncodeArgs(in buildInput) []string {
	var args []string

	switch {
	case in.SynthesizeVideo:
		// Static single-color video background muxed with the audio,
		// capped at the audio's duration.
		args = []string{
			"-f", "lavfi",
			"-i", "color=c=black:s=1280x720:r=1",
			"-i", in.InputPath,
		}
		args = append(args, codecArgs(in.Advice)...)
		args = append(args, "-shortest")

	case in.AudioPath != "":
		// Video from input 0, audio remapped from input 1.
		args = []string{
			"-i", in.InputPath,
			"-i", in.AudioPath,
		}
		args = append(args, codecArgs(in.Advice)...)
		args = append(args,
			"-vf", "scale=-2:720",
			"-map", "0:v:0",
			"-map", "1:a:0",
			"-avoid_negative_ts", "make_zero",
		)

	default:
		args = []string{"-i", in.InputPath}
		args = append(args, codecArgs(in.Advice)...)
		args = append(args,
			"-vf", "scale=-2:720",
			"-avoid_negative_ts", "make_zero",
		)
	}

	args = append(args,
		"-movflags", "+faststart",
		"-stats",
		"-progress", "pipe:1",
		"-y",
		in.OutputPath,
	)
	return args
}

func codecArgs(advice sysinfo.Advice) []string {
	preset := advice.Preset
	if preset == "" {
		preset = "medium"
	}
	args := []string{
		"-c:v", "libx265",
		"-crf", "28",
		"-preset", preset,
		"-c:a", "aac",
		"-b:a", "96k",
	}
	if advice.Threads > 0 {
		args = append(args, "-threads", strconv.Itoa(advice.Threads))
	}
	return args
}
