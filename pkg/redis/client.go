package redis

import (
	"context"
	"fmt"
	"time"

	"linkcycle/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewClient creates and pings a Redis client. Returns (nil, nil) when
// no host is configured; callers treat a nil client as cache-disabled.
func NewClient(cfg *config.Cache) (*redis.Client, error) {
	if cfg.Host == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 20,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return client, nil
}
