// SPDX-License-Identifier: MIT

package transcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clipforge/clipforge/internal/sysinfo"
)

func argString(in buildInput) string {
	return strings.Join(buildEncodeArgs(in), " ")
}

func TestBuildEncodeArgs_SingleInput(t *testing.T) {
	s := argString(buildInput{
		InputPath:  "/work/in.mp4",
		OutputPath: "/work/out.mp4",
	})

	assert.Contains(t, s, "-i /work/in.mp4")
	assert.Contains(t, s, "-c:v libx265 -crf 28 -preset medium")
	assert.Contains(t, s, "-c:a aac -b:a 96k")
	assert.Contains(t, s, "-vf scale=-2:720")
	assert.Contains(t, s, "-avoid_negative_ts make_zero")
	assert.Contains(t, s, "-movflags +faststart")
	assert.Contains(t, s, "-progress pipe:1")
	assert.True(t, strings.HasSuffix(s, "-y /work/out.mp4"))
	assert.NotContains(t, s, "lavfi")
	assert.NotContains(t, s, "-map")
}

func TestBuildEncodeArgs_SynthesizedBackground(t *testing.T) {
	s := argString(buildInput{
		InputPath:       "/work/audio.m4a",
		OutputPath:      "/work/out.mp4",
		SynthesizeVideo: true,
	})

	assert.Contains(t, s, "-f lavfi -i color=c=black:s=1280x720:r=1")
	assert.Contains(t, s, "-i /work/audio.m4a")
	assert.Contains(t, s, "-shortest")
	// The synthesized source is already 720p; no rescale of a video
	// stream that does not exist.
	assert.NotContains(t, s, "scale=-2:720")
	assert.NotContains(t, s, "-map")
}

func TestBuildEncodeArgs_SeparateAudioRemap(t *testing.T) {
	s := argString(buildInput{
		InputPath:  "/work/video.mp4",
		AudioPath:  "/work/audio.m4a",
		OutputPath: "/work/out.mp4",
	})

	assert.Contains(t, s, "-i /work/video.mp4 -i /work/audio.m4a")
	assert.Contains(t, s, "-map 0:v:0")
	assert.Contains(t, s, "-map 1:a:0")
	assert.Contains(t, s, "-vf scale=-2:720")
	assert.NotContains(t, s, "lavfi")
}

func TestBuildEncodeArgs_SynthesisWinsOverSeparateAudio(t *testing.T) {
	s := argString(buildInput{
		InputPath:       "/work/audio.m4a",
		AudioPath:       "/work/other.m4a",
		OutputPath:      "/work/out.mp4",
		SynthesizeVideo: true,
	})
	assert.Contains(t, s, "lavfi")
	assert.NotContains(t, s, "-map")
}

func TestBuildEncodeArgs_AdviceApplied(t *testing.T) {
	s := argString(buildInput{
		InputPath:  "/work/in.mp4",
		OutputPath: "/work/out.mp4",
		Advice:     sysinfo.Advice{Threads: 4, Preset: "fast"},
	})
	assert.Contains(t, s, "-preset fast")
	assert.Contains(t, s, "-threads 4")
}

func TestBuildEncodeArgs_ZeroThreadsOmitted(t *testing.T) {
	s := argString(buildInput{InputPath: "/in", OutputPath: "/out"})
	assert.NotContains(t, s, "-threads")
}
