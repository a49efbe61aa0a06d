package localstorage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

type redisStorage struct {
	client *redis.Client
	prefix string
}

// NewRedis returns a Storage over redis string keys. The prefix namespaces
// device snapshots away from other keys.
func NewRedis(client *redis.Client, prefix string) Storage {
	if prefix == "" {
		prefix = "device:"
	}
	return &redisStorage{client: client, prefix: prefix}
}

func (s *redisStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

func (s *redisStorage) SetItem(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}

func (s *redisStorage) RemoveItem(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
