package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounterStore keeps window counters in Redis. INCR gives the atomic
// read-modify-write the admission check needs; the key's TTL is set when the
// window's first permit is consumed, so elapsed windows expire on their own.
type RedisCounterStore struct {
	client *redis.Client
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	if count == 1 {
		if err := s.client.Expire(ctx, key, expiry).Err(); err != nil {
			return count, err
		}
	}

	return count, nil
}
