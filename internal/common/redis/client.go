package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"wisefido-attendance/internal/common/config"
)

const pingTimeout = 3 * time.Second

// NewRedisClient builds a client and verifies it with a bounded PING.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  10 * time.Second, // 需大于 XREADGROUP 的 BLOCK 时长
		WriteTimeout: 3 * time.Second,
	})

	if err := Ping(ctx, client); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Ping PING with a timeout
func Ping(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return client.Ping(ctx).Err()
}

// Close nil-safe close
func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
