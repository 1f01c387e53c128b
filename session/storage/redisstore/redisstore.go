// Package redisstore backs the session store with Redis, for deployments
// where the connect daemon runs on more than one node.
package redisstore

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/bizpilot/go-auth-client/session/storage"
)

var _ storage.Repo = (*RedisStore)(nil)

type RedisStore struct {
	client *redis.Client
}

func New(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (rs *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := rs.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "[RedisStore.Get] client.Get")
	}
	return value, nil
}

func (rs *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := rs.client.Set(ctx, key, value, 0).Err(); err != nil {
		return errors.Wrap(err, "[RedisStore.Set] client.Set")
	}
	return nil
}

func (rs *RedisStore) Delete(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, key).Err(); err != nil {
		return errors.Wrap(err, "[RedisStore.Delete] client.Del")
	}
	return nil
}
