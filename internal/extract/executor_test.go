// SPDX-License-Identifier: MIT

package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/clipforge/internal/faults"
)

// fakeRunner scripts the resolve/download boundary and optionally
// materializes files in the workspace.
type fakeRunner struct {
	resolveErr  error
	downloadErr error
	meta        Metadata
	files       map[string][]byte
}

func (f *fakeRunner) Resolve(_ context.Context, _ Request) (*Metadata, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	m := f.meta
	return &m, nil
}

func (f *fakeRunner) Download(_ context.Context, req Request) error {
	if f.downloadErr != nil {
		return f.downloadErr
	}
	for name, content := range f.files {
		if err := os.WriteFile(filepath.Join(req.Workspace, name), content, 0o600); err != nil {
			return err
		}
	}
	return nil
}

func newTestExecutor(r Runner) *Executor {
	e := NewExecutor(r, "", zerolog.Nop())
	e.sleep = func(time.Duration) {}
	return e
}

func TestExecutor_Success(t *testing.T) {
	runner := &fakeRunner{
		meta:  Metadata{ID: "dQw4w9WgXcQ", Title: "A Video", Duration: 212},
		files: map[string][]byte{"video.mp4": make([]byte, 2048)},
	}
	ws := t.TempDir()

	out, err := newTestExecutor(runner).Execute(context.Background(), Catalog()[0], "dQw4w9WgXcQ", ws)
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", out.Meta.ID)
	assert.Equal(t, int64(2048), out.Asset.Size)
	assert.False(t, out.Asset.AudioOnly)
	assert.Equal(t, filepath.Join(ws, "video.mp4"), out.Asset.Path)
}

func TestExecutor_ResolveFailureClassified(t *testing.T) {
	runner := &fakeRunner{resolveErr: errors.New("Sign in to confirm you're not a bot")}

	_, err := newTestExecutor(runner).Execute(context.Background(), Catalog()[0], "x", t.TempDir())
	assert.Equal(t, faults.KindAccessRestricted, faults.KindOf(err))
}

func TestExecutor_DownloadFailureClassified(t *testing.T) {
	runner := &fakeRunner{
		meta:        Metadata{ID: "x"},
		downloadErr: errors.New("HTTP Error 429: Too Many Requests"),
	}

	_, err := newTestExecutor(runner).Execute(context.Background(), Catalog()[0], "x", t.TempDir())
	assert.Equal(t, faults.KindRateLimited, faults.KindOf(err))
}

func TestExecutor_SizeFloor(t *testing.T) {
	t.Run("1023 bytes is corrupt", func(t *testing.T) {
		runner := &fakeRunner{
			meta:  Metadata{ID: "x"},
			files: map[string][]byte{"clip.mp4": make([]byte, minAssetBytes-1)},
		}
		_, err := newTestExecutor(runner).Execute(context.Background(), Catalog()[0], "x", t.TempDir())
		assert.Equal(t, faults.KindCorruptOrEmpty, faults.KindOf(err))
	})

	t.Run("1024 bytes is accepted", func(t *testing.T) {
		runner := &fakeRunner{
			meta:  Metadata{ID: "x"},
			files: map[string][]byte{"clip.mp4": make([]byte, minAssetBytes)},
		}
		out, err := newTestExecutor(runner).Execute(context.Background(), Catalog()[0], "x", t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, int64(minAssetBytes), out.Asset.Size)
	})
}

func TestExecutor_MetadataArtifactsOnly(t *testing.T) {
	runner := &fakeRunner{
		meta:  Metadata{ID: "x"},
		files: map[string][]byte{"page.mhtml": make([]byte, 4096)},
	}

	_, err := newTestExecutor(runner).Execute(context.Background(), Catalog()[0], "x", t.TempDir())
	assert.Equal(t, faults.KindOnlyMetadataAvailable, faults.KindOf(err))
}

func TestExecutor_NoFilesDownloaded(t *testing.T) {
	runner := &fakeRunner{meta: Metadata{ID: "x"}}

	_, err := newTestExecutor(runner).Execute(context.Background(), Catalog()[0], "x", t.TempDir())
	assert.Equal(t, faults.KindNoFilesDownloaded, faults.KindOf(err))
}

func TestExecutor_AudioExtensionMarksAudioOnly(t *testing.T) {
	runner := &fakeRunner{
		meta:  Metadata{ID: "x"},
		files: map[string][]byte{"track.m4a": make([]byte, 2048)},
	}

	// A video-preferring strategy can still end up with an audio file.
	out, err := newTestExecutor(runner).Execute(context.Background(), Catalog()[0], "x", t.TempDir())
	require.NoError(t, err)
	assert.True(t, out.Asset.AudioOnly)
}

func TestExecutor_AudioOnlyStrategyMarksOutcome(t *testing.T) {
	runner := &fakeRunner{
		meta:  Metadata{ID: "x"},
		files: map[string][]byte{"clip.mp4": make([]byte, 2048)},
	}

	audioStrategy := Catalog()[6]
	require.True(t, audioStrategy.AudioOnly)
	out, err := newTestExecutor(runner).Execute(context.Background(), audioStrategy, "x", t.TempDir())
	require.NoError(t, err)
	assert.True(t, out.Asset.AudioOnly)
}

func TestLocateAsset_PicksFirstSortedMediaFile(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(ws, "b.webm"), make([]byte, 2048), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(ws, "a.mp4"), make([]byte, 2048), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(ws, "notes.txt"), []byte("ignored"), 0o600))

	asset, err := locateAsset(ws, false)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(asset.Path, "a.mp4"))
}
