package client

import (
	"context"
	"fmt"

	"linkcart/internal/config"

	"github.com/redis/go-redis/v9"
)

func InitRedisClient(ctx context.Context, cfg config.Store) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
