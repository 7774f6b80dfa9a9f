package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Get(ctx context.Context, scope, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, stateKey(scope, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

// Put stores without a TTL; local state survives across sessions.
func (r *RedisStore) Put(ctx context.Context, scope, key string, value []byte) error {
	if err := r.client.Set(ctx, stateKey(scope, key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, scope, key string) error {
	if err := r.client.Del(ctx, stateKey(scope, key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func stateKey(scope, key string) string {
	return fmt.Sprintf("linkcart:%s:%s", scope, key)
}
