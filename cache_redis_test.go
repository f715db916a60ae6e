package tripgeo

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRedisCacheUnreachableIsMiss(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	c := NewRedisCache(rdb, time.Minute, WithRedisPrefix("tripgeo:test:"))
	if c.key("k") != "tripgeo:test:k" {
		t.Errorf("key = %q", c.key("k"))
	}

	ctx := context.Background()
	c.Put(ctx, "k", []byte("v"))
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("unreachable redis reported a hit")
	}
}
