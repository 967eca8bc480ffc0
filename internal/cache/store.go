// Package cache is the short-lived key/value layer in front of Redis. It holds
// one-time passcodes and cached profile documents.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable wraps every transport or server failure. An absent key is
// not an error: Get reports it with found == false.
var ErrUnavailable = errors.New("cache unavailable")

// Store is the subset of cache operations the services depend on.
type Store interface {
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Delete(ctx context.Context, key string) (int64, error)
}

// RedisStore implements Store on a go-redis client. Each call checks a
// connection out of the client's pool for a single round trip.
type RedisStore struct {
	rdb redis.UniversalClient
}

func NewRedisStore(rdb redis.UniversalClient) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// SetWithTTL writes value under key, replacing any previous value and TTL.
func (s *RedisStore) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", false, nil
	case err != nil:
		return "", false, unavailable(err)
	}
	return v, true, nil
}

// Delete removes key and returns the number of keys removed (0 or 1).
func (s *RedisStore) Delete(ctx context.Context, key string) (int64, error) {
	n, err := s.rdb.Del(ctx, key).Result()
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

// PingContext checks that Redis answers.
func (s *RedisStore) PingContext(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
