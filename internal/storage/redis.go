package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// InsightCache keeps recent Graph API payloads in Redis so handlers and the
// realtime monitor can share fetches between poll ticks. TTLs are short;
// a miss just means another Graph request.
type InsightCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewInsightCache creates a cache with the given entry lifetime.
func NewInsightCache(client *redis.Client, ttl time.Duration) *InsightCache {
	return &InsightCache{client: client, ttl: ttl}
}

// CacheKey builds the cache key for one account-scoped operation.
func CacheKey(accountID, operation string) string {
	return fmt.Sprintf("insights:%s:%s", accountID, operation)
}

// Get loads a cached payload into out. The second return is false on a miss.
func (c *InsightCache) Get(ctx context.Context, key string, out any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores a payload under the cache TTL.
func (c *InsightCache) Set(ctx context.Context, key string, val any) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Delete drops a cached payload, used after mutations so stale reads never
// outlive a change.
func (c *InsightCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// RateLimiter caps chat turns per user with a fixed one-minute window.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRateLimiter creates a limiter allowing limit requests per minute.
func NewRateLimiter(client *redis.Client, limit int) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: time.Minute}
}

// Allow records one request for the user and reports whether it fits the
// window. The counter expires with the window, so bursts reset quickly.
func (l *RateLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	key := fmt.Sprintf("ratelimit:chat:%s", userID)

	pipe := l.client.Pipeline()
	count := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit %s: %w", userID, err)
	}
	return count.Val() <= int64(l.limit), nil
}
