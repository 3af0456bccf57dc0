package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimitStore implements the fixed-window submission counter in Redis.
// INCR is the atomic increment-and-fetch primitive, so two concurrent callers
// on the same key always observe distinct counts and exactly `limit` of them
// win a slot. EXPIRE runs only when the counter is created; later increments
// never extend the window.
type RedisRateLimitStore struct {
	client *redis.Client
}

// NewRedisRateLimitStore creates a rate-limit store backed by Redis counters.
func NewRedisRateLimitStore(client *redis.Client) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client}
}

func (s *RedisRateLimitStore) CheckAndIncrement(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	redisKey := "intake:ratelimit:" + key

	// Steady-state denials stay read-only: once the window is saturated there
	// is no reason to keep the counter hot.
	raw, err := s.client.Get(ctx, redisKey).Result()
	if err == nil {
		if current, convErr := strconv.Atoi(raw); convErr == nil && current >= limit {
			return false, current, nil
		}
	} else if err != redis.Nil {
		return false, 0, err
	}

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return false, int(count), err
		}
	}
	return count <= int64(limit), int(count), nil
}
