package otp

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "otp:v1:"

// RedisStore keeps OTP entries in Redis, letting key TTLs enforce the expiry
// window and SET's replace semantics enforce one live code per user.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore builds a Redis-backed OTP store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, userID, code string, ttl time.Duration) error {
	return s.client.Set(ctx, keyPrefix+userID, code, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, userID string) (string, error) {
	code, err := s.client.Get(ctx, keyPrefix+userID).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return code, nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, keyPrefix+userID).Err()
}
