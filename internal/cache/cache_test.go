// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/clipforge/internal/pipeline"
)

func newTestCache(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedis(mr.Addr(), time.Hour, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func completedResult(videoID string) *pipeline.Result {
	return &pipeline.Result{
		JobID:   "job-1",
		VideoID: videoID,
		Status:  pipeline.StatusCompleted,
		Locator: "https://cdn.example/v.mp4",
		Bytes:   4096,
	}
}

func TestRedis_PutGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "dQw4w9WgXcQ", completedResult("dQw4w9WgXcQ")))

	got, err := c.Get(ctx, "dQw4w9WgXcQ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "https://cdn.example/v.mp4", got.Locator)
	assert.Equal(t, int64(4096), got.Bytes)
}

func TestRedis_MissReturnsNil(t *testing.T) {
	c, _ := newTestCache(t)

	got, err := c.Get(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedis_FailedResultNotStored(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	failed := completedResult("vid")
	failed.Status = pipeline.StatusFailed
	require.NoError(t, c.Put(ctx, "vid", failed))

	got, err := c.Get(ctx, "vid")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedis_EntriesExpire(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "vid", completedResult("vid")))
	mr.FastForward(2 * time.Hour)

	got, err := c.Get(ctx, "vid")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedis_CorruptEntryDropped(t *testing.T) {
	c, mr := newTestCache(t)

	require.NoError(t, mr.Set(keyPrefix+"vid", "not-json"))
	got, err := c.Get(context.Background(), "vid")
	require.NoError(t, err)
	assert.Nil(t, got)
	// The undecodable entry is removed rather than left to fail again.
	assert.False(t, mr.Exists(keyPrefix+"vid"))
}

func TestNewRedis_ConnectionFailure(t *testing.T) {
	_, err := NewRedis("127.0.0.1:1", time.Hour, zerolog.Nop())
	assert.Error(t, err)
}
