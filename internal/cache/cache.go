// Package cache provides a Redis-backed cache for rendered diagram images.
// Encoding is deterministic, so a (format, token) pair fully identifies a
// rendered image and cached bytes never go stale — the TTL only bounds
// memory use.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"plantuml-go/internal/metrics"
	"plantuml-go/internal/tracing"
)

// ErrMiss is returned when a render is not cached.
var ErrMiss = errors.New("cache miss")

// RenderCache stores rendered image bytes keyed by output format and token.
type RenderCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to Redis at addr and returns a RenderCache.
func New(ctx context.Context, addr string, ttl time.Duration) (*RenderCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RenderCache{rdb: rdb, ttl: ttl}, nil
}

// Key builds the cache key for a render. Tokens can be long, so the key
// carries a digest rather than the token itself.
func Key(format, token string) string {
	sum := sha1.Sum([]byte(token))
	return "render:" + format + ":" + hex.EncodeToString(sum[:])
}

// Get returns the cached image for a render, or ErrMiss.
func (c *RenderCache) Get(ctx context.Context, format, token string) ([]byte, error) {
	ctx, span := tracing.CacheSpan(ctx, "get")
	defer span.End()

	data, err := c.rdb.Get(ctx, Key(format, token)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
		return nil, ErrMiss
	case err != nil:
		metrics.CacheRequestsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		return nil, fmt.Errorf("cache get failed: %w", err)
	}
	metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
	return data, nil
}

// Set stores the image for a render under the configured TTL.
func (c *RenderCache) Set(ctx context.Context, format, token string, image []byte) error {
	ctx, span := tracing.CacheSpan(ctx, "set")
	defer span.End()

	if err := c.rdb.Set(ctx, Key(format, token), image, c.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *RenderCache) Close() error {
	return c.rdb.Close()
}
