package tokencache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("starting miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisCache_FetchesWhenEmpty(t *testing.T) {
	ctx := context.Background()
	cache := NewRedisCache(newTestRedis(t), "satellite-token")

	calls := 0
	fetch := func() (string, int64, error) {
		calls++
		return "tok-1", 1000, nil
	}

	tok, err := cache.Get(ctx, 0, fetch)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if tok != "tok-1" || calls != 1 {
		t.Fatalf("expected one fetch returning tok-1, got %q calls=%d", tok, calls)
	}
}

func TestRedisCache_ReusesValidToken(t *testing.T) {
	ctx := context.Background()
	cache := NewRedisCache(newTestRedis(t), "satellite-token")

	calls := 0
	fetch := func() (string, int64, error) {
		calls++
		return "tok-1", 1000, nil
	}

	cache.Get(ctx, 0, fetch)
	tok, err := cache.Get(ctx, 900, fetch)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if tok != "tok-1" || calls != 1 {
		t.Fatalf("expected cached reuse, got %q calls=%d", tok, calls)
	}
}
