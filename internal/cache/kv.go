package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss key absent or expired
var ErrCacheMiss = errors.New("cache miss")

// KVStore string key/value store with per-key TTL; Redis in production, a map in tests.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

var _ KVStore = (*RedisKVStore)(nil)

// RedisKVStore works against a single client or a cluster client.
type RedisKVStore struct {
	client redis.Cmdable
}

func NewRedisKVStore(client redis.Cmdable) *RedisKVStore {
	return &RedisKVStore{client: client}
}

// Get maps redis.Nil to ErrCacheMiss.
func (r *RedisKVStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", ErrCacheMiss
	case err != nil:
		return "", err
	}
	return val, nil
}

// Set with ttl <= 0 stores without expiry.
func (r *RedisKVStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, key, value, ttl).Err()
}
