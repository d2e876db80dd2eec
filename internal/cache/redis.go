// Package cache provides a Redis read cache for dashboard documents so hot
// reads skip Postgres. The store row stays authoritative; entries are
// rewritten after every accepted write and dropped on delete.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pulseboard/api/internal/store"
)

// ErrMiss is returned when no cached copy exists for a user.
var ErrMiss = fmt.Errorf("cache miss")

type cachedDashboard struct {
	Document map[string]any `json:"document"`
	Revision int64          `json:"revision"`
	CachedAt time.Time      `json:"cached_at"`
}

// RedisCache caches one serialized document+revision entry per user.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisCacheWithClient(client, ttl), nil
}

// NewRedisCacheWithClient wraps an existing Redis client.
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{
		client: client,
		prefix: "dashboard:",
		ttl:    ttl,
	}
}

func (c *RedisCache) key(userID string) string {
	return c.prefix + userID
}

// Get returns the cached document and revision for a user, or ErrMiss.
func (c *RedisCache) Get(ctx context.Context, userID string) (store.Dashboard, error) {
	raw, err := c.client.Get(ctx, c.key(userID)).Result()
	if err == redis.Nil {
		return store.Dashboard{}, ErrMiss
	}
	if err != nil {
		return store.Dashboard{}, fmt.Errorf("read cached dashboard: %w", err)
	}

	var entry cachedDashboard
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return store.Dashboard{}, fmt.Errorf("decode cached dashboard: %w", err)
	}
	return store.Dashboard{
		UserID:    userID,
		Document:  entry.Document,
		Revision:  entry.Revision,
		UpdatedAt: entry.CachedAt,
	}, nil
}

// Set stores the latest accepted document and revision for a user.
func (c *RedisCache) Set(ctx context.Context, userID string, document map[string]any, revision int64) error {
	payload, err := json.Marshal(cachedDashboard{
		Document: document,
		Revision: revision,
		CachedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("encode cached dashboard: %w", err)
	}
	if err := c.client.Set(ctx, c.key(userID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("write cached dashboard: %w", err)
	}
	return nil
}

// Invalidate drops the cached entry for a user.
func (c *RedisCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate cached dashboard: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
