//go:build integration

package tripgeo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TRIPGEO_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestRedisCache_Integration(t *testing.T) {
	rdb := newTestRedis(t)
	prefix := "tripgeo-test:" + time.Now().Format("150405.000000")
	c := NewRedisCache(rdb, time.Second, WithRedisPrefix(prefix))
	ctx := context.Background()

	key := "https://geo.test/seoul.json?language=ko"
	if _, ok := c.Get(ctx, key); ok {
		t.Fatal("fresh prefix reported a hit")
	}

	c.Put(ctx, key, []byte(`{"type":"FeatureCollection","features":[]}`))
	got, ok := c.Get(ctx, key)
	if !ok || string(got) != `{"type":"FeatureCollection","features":[]}` {
		t.Fatalf("Get = %q, %v", got, ok)
	}

	ttl, err := rdb.PTTL(ctx, prefix+":"+key).Result()
	if err != nil || ttl <= 0 || ttl > time.Second {
		t.Errorf("PTTL = %v, %v; want within the cache ttl", ttl, err)
	}

	time.Sleep(1200 * time.Millisecond)
	if _, ok := c.Get(ctx, key); ok {
		t.Error("entry served after expiry")
	}
}

func TestRedisCache_ProviderRoundTrip_Integration(t *testing.T) {
	rdb := newTestRedis(t)
	prefix := "tripgeo-test:" + time.Now().Format("150405.000000")

	fake, srv := newFakeGeocoder(t, cityResponses)
	quota := NewQuotaTracker()
	p, err := NewProvider(ProviderConfig{
		BaseURL:     srv.URL,
		AccessToken: "test-token",
		Languages:   []string{"ko", "en"},
	}, quota, WithResponseCache(NewRedisCache(rdb, time.Minute, WithRedisPrefix(prefix))))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if _, err := p.Search(context.Background(), "seoul", nil, 10); err != nil {
			t.Fatal(err)
		}
	}
	if fake.hits() != 2 || quota.Stats().DailyUsed != 2 {
		t.Errorf("hits = %d, quota = %d; second search should come from redis", fake.hits(), quota.Stats().DailyUsed)
	}
}
