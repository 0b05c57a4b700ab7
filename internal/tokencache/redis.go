package tokencache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache shares one cached token across every authorization registry
// instance behind a Redis key, so a multi-instance deployment doesn't each
// fetch and hold its own satellite/PDP token. It implements the same
// refresh-on-stale semantics as Cache, with the write lock replaced by a
// Redis SETNX-guarded refresh.
type RedisCache struct {
	client *redis.Client
	key    string
}

func NewRedisCache(client *redis.Client, key string) *RedisCache {
	return &RedisCache{client: client, key: key}
}

// Get returns a valid access token stored at r.key, refreshing via fetch when
// the stored value is missing or within 30 seconds of expiry. Concurrent
// refreshes from other instances are tolerated: the lock key just limits how
// many instances hit the token endpoint at once, it does not need to be
// perfectly exclusive.
func (r *RedisCache) Get(ctx context.Context, now int64, fetch Fetcher) (string, error) {
	token, expiresAt, err := r.read(ctx)
	if err != nil {
		return "", fmt.Errorf("tokencache: reading from redis: %w", err)
	}
	if !isInvalid(expiresAt, now) {
		return token, nil
	}

	lockKey := r.key + ":lock"
	acquired, err := r.client.SetNX(ctx, lockKey, "1", 5*time.Second).Result()
	if err != nil {
		return "", fmt.Errorf("tokencache: acquiring refresh lock: %w", err)
	}
	if !acquired {
		// Another instance is refreshing; briefly wait and re-read rather
		// than also hitting the token endpoint.
		time.Sleep(200 * time.Millisecond)
		token, expiresAt, err = r.read(ctx)
		if err != nil {
			return "", fmt.Errorf("tokencache: re-reading from redis: %w", err)
		}
		if !isInvalid(expiresAt, now) {
			return token, nil
		}
	}
	defer r.client.Del(ctx, lockKey)

	fresh, exp, err := fetch()
	if err != nil {
		return "", err
	}
	if err := r.write(ctx, fresh, exp); err != nil {
		return "", fmt.Errorf("tokencache: writing to redis: %w", err)
	}
	return fresh, nil
}

func (r *RedisCache) read(ctx context.Context) (string, int64, error) {
	vals, err := r.client.HMGet(ctx, r.key, "access_token", "expires_at").Result()
	if err != nil {
		return "", -1, err
	}
	token, _ := vals[0].(string)
	if vals[1] == nil {
		return token, -1, nil
	}
	expiresAt, err := strconv.ParseInt(fmt.Sprint(vals[1]), 10, 64)
	if err != nil {
		return token, -1, nil
	}
	return token, expiresAt, nil
}

func (r *RedisCache) write(ctx context.Context, accessToken string, expiresAt int64) error {
	return r.client.HSet(ctx, r.key, "access_token", accessToken, "expires_at", expiresAt).Err()
}
