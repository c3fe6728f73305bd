package redis

import (
	"context"
	"fmt"
	"time"

	"rentalhub/common/config"

	"github.com/go-redis/redis/v8"
)

const connectTimeout = 3 * time.Second

// Connect builds a client from cfg and pings it. The client is closed again
// when the ping fails, so callers only own it on success.
func Connect(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  connectTimeout,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}
