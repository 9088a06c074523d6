// SPDX-License-Identifier: MIT

package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/clipforge/internal/faults"
)

// fakeStore scripts upload results per attempt.
type fakeStore struct {
	results []*UploadResult
	errs    []error
	calls   int
	ids     []string
}

func (f *fakeStore) Upload(_ context.Context, _, publicID string) (*UploadResult, error) {
	f.ids = append(f.ids, publicID)
	i := f.calls
	f.calls++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var res *UploadResult
	if i < len(f.results) {
		res = f.results[i]
	}
	if res == nil && err == nil {
		res = &UploadResult{Locator: "https://store.example/v.mp4"}
	}
	return res, err
}

func artifact(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "output.mp4")
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))
	return path
}

func newTestPublisher(store Store, maxBytes int64) (*Publisher, *[]time.Duration) {
	p := NewPublisher(store, maxBytes, zerolog.Nop())
	waits := &[]time.Duration{}
	p.sleep = func(_ context.Context, d time.Duration) { *waits = append(*waits, d) }
	return p, waits
}

func TestSanitizeID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"abc 123!@#", "abc_123___"},
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"a/b\\c", "a_b_c"},
		{"under_score-dash", "under_score-dash"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeID(tt.in), tt.in)
	}
}

func TestPublisher_SuccessFirstAttempt(t *testing.T) {
	store := &fakeStore{results: []*UploadResult{{Locator: "https://store.example/x.mp4", Bytes: 9000, ID: "yt_hevc_720p/x"}}}
	p, waits := newTestPublisher(store, 1<<30)

	out, err := p.Run(context.Background(), artifact(t, 4096), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "https://store.example/x.mp4", out.Locator)
	assert.Equal(t, int64(9000), out.Bytes)
	assert.Equal(t, 1, store.calls)
	assert.Empty(t, *waits)
	require.NotEmpty(t, store.ids)
	assert.Equal(t, "yt_hevc_720p/dQw4w9WgXcQ", store.ids[0])
}

func TestPublisher_RetriesWithFixedDelay(t *testing.T) {
	store := &fakeStore{errs: []error{
		errors.New("connection reset"),
		errors.New("connection reset"),
	}}
	p, waits := newTestPublisher(store, 1<<30)

	out, err := p.Run(context.Background(), artifact(t, 4096), "vid")
	require.NoError(t, err)
	assert.NotEmpty(t, out.Locator)
	assert.Equal(t, 3, store.calls)
	require.Len(t, *waits, 2)
	assert.Equal(t, 5*time.Second, (*waits)[0])
	assert.Equal(t, 5*time.Second, (*waits)[1])
}

func TestPublisher_ExhaustedRetriesClassified(t *testing.T) {
	store := &fakeStore{errs: []error{
		errors.New("503"),
		errors.New("503"),
		errors.New("401 Unauthorized"),
	}}
	p, _ := newTestPublisher(store, 1<<30)

	_, err := p.Run(context.Background(), artifact(t, 4096), "vid")
	require.Error(t, err)
	assert.Equal(t, 3, store.calls)
	// The terminal classification reflects the last failure.
	assert.Equal(t, faults.KindPublishAuth, faults.KindOf(err))
}

func TestPublisher_EmptyLocatorCountsAsFailure(t *testing.T) {
	store := &fakeStore{results: []*UploadResult{
		{Locator: ""},
		{Locator: "https://store.example/v.mp4"},
	}}
	p, waits := newTestPublisher(store, 1<<30)

	out, err := p.Run(context.Background(), artifact(t, 4096), "vid")
	require.NoError(t, err)
	assert.Equal(t, "https://store.example/v.mp4", out.Locator)
	assert.Equal(t, 2, store.calls)
	assert.Len(t, *waits, 1)
}

func TestPublisher_TooLargeBeforeTransfer(t *testing.T) {
	store := &fakeStore{}
	p, _ := newTestPublisher(store, 1024)

	_, err := p.Run(context.Background(), artifact(t, 8192), "vid")
	assert.Equal(t, faults.KindTooLarge, faults.KindOf(err))
	assert.Zero(t, store.calls, "no transfer may be attempted past the size ceiling")
}

func TestPublisher_MissingArtifact(t *testing.T) {
	p, _ := newTestPublisher(&fakeStore{}, 1<<30)

	_, err := p.Run(context.Background(), filepath.Join(t.TempDir(), "gone.mp4"), "vid")
	assert.Equal(t, faults.KindPublishFailed, faults.KindOf(err))
}

func TestPublisher_BytesFallBackToLocalSize(t *testing.T) {
	store := &fakeStore{results: []*UploadResult{{Locator: "https://store.example/v.mp4"}}}
	p, _ := newTestPublisher(store, 1<<30)

	out, err := p.Run(context.Background(), artifact(t, 4096), "vid")
	require.NoError(t, err)
	assert.Equal(t, int64(4096), out.Bytes)
}
