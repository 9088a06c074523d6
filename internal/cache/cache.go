// SPDX-License-Identifier: MIT

// Package cache holds finished pipeline results so a repeat request
// for the same video is answered without re-running the pipeline.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clipforge/clipforge/internal/pipeline"
)

const keyPrefix = "clipforge:result:"

// DefaultTTL bounds how long a published locator is trusted without
// re-verification against the store.
const DefaultTTL = 24 * time.Hour

// Redis is a Redis-backed result cache.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedis connects to addr and verifies the connection with a ping.
func NewRedis(addr string, ttl time.Duration, logger zerolog.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	logger.Info().Str("addr", addr).Dur("ttl", ttl).Msg("connected to result cache")
	return &Redis{client: client, ttl: ttl, logger: logger}, nil
}

// Get returns the stored result for videoID, or nil on a miss.
func (r *Redis) Get(ctx context.Context, videoID string) (*pipeline.Result, error) {
	val, err := r.client.Get(ctx, keyPrefix+videoID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var res pipeline.Result
	if err := json.Unmarshal(val, &res); err != nil {
		// A corrupt entry is dropped rather than surfaced.
		r.logger.Warn().Err(err).Str("video_id", videoID).Msg("dropping undecodable cache entry")
		r.client.Del(ctx, keyPrefix+videoID)
		return nil, nil
	}
	return &res, nil
}

// Put stores a completed result under the canonical video ID. Failed
// runs are never cached.
func (r *Redis) Put(ctx context.Context, videoID string, res *pipeline.Result) error {
	if res == nil || res.Status != pipeline.StatusCompleted {
		return nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := r.client.Set(ctx, keyPrefix+videoID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Ping reports cache liveness for readiness checks.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the client's connections.
func (r *Redis) Close() error {
	return r.client.Close()
}
