package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisFlashStore keeps a caller's last rejected submission for one re-display.
// GetDel makes the read consuming, so stale values cannot outlive a retry.
type RedisFlashStore struct {
	client *redis.Client
}

// NewRedisFlashStore creates a flash store backed by Redis.
func NewRedisFlashStore(client *redis.Client) *RedisFlashStore {
	return &RedisFlashStore{client: client}
}

func (s *RedisFlashStore) Put(ctx context.Context, scope string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return s.client.Set(ctx, "intake:flash:"+scope, payload, ttl).Err()
}

func (s *RedisFlashStore) Take(ctx context.Context, scope string) ([]byte, error) {
	raw, err := s.client.GetDel(ctx, "intake:flash:"+scope).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return raw, nil
}
