package tripgeo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a ResponseCache shared between processes through redis.
// Freshness is enforced by the key's expiry. Redis failures are logged and
// reported as misses so a lookup always falls through to the provider.
type RedisCache struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// RedisCacheOption configures a RedisCache.
type RedisCacheOption func(*RedisCache)

// WithRedisPrefix namespaces all keys.
func WithRedisPrefix(prefix string) RedisCacheOption {
	return func(c *RedisCache) {
		c.prefix = strings.Trim(prefix, ":")
	}
}

// WithRedisLogger sets the logger used for redis failures.
func WithRedisLogger(logger *slog.Logger) RedisCacheOption {
	return func(c *RedisCache) {
		c.logger = logger
	}
}

// NewRedisCache wraps rdb. Entries expire after ttl.
func NewRedisCache(rdb redis.UniversalClient, ttl time.Duration, opts ...RedisCacheOption) *RedisCache {
	c := &RedisCache{
		rdb:    rdb,
		prefix: "tripgeo:geocode",
		ttl:    ttl,
		logger: discardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCache) key(k string) string {
	return c.prefix + ":" + k
}

// Get returns the cached value if redis still holds it.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis cache get failed", "error", err)
		}
		return nil, false
	}
	return b, true
}

// Put stores value with the cache ttl.
func (c *RedisCache) Put(ctx context.Context, key string, value []byte) {
	if err := c.rdb.Set(ctx, c.key(key), value, c.ttl).Err(); err != nil {
		c.logger.Warn("redis cache put failed", "error", err)
	}
}

// discardLogger is the default for library components that were not given
// a logger.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
