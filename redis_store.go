package redlock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/huimingz/redlock/internal/lua"
)

// ReleaseScript is the Lua source RedisStore evaluates for CompareAndDelete.
const ReleaseScript = lua.Release

var releaseScript = redis.NewScript(lua.Release)

const defaultRedisTimeout = 5 * time.Second

// RedisStore implements Store on Redis: SET NX PX for acquisition and a
// server-side script for compare-and-delete.
type RedisStore struct {
	client  redis.UniversalClient
	timeout time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisTimeout bounds each Redis call. Zero or negative disables the
// bound and leaves deadlines to the caller's context.
func WithRedisTimeout(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.timeout = d
	}
}

// NewRedisStore returns a store using client, which may be a standalone,
// failover or cluster client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:  client,
		timeout: defaultRedisTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// SetIfAbsent implements Store.SetIfAbsent.
func (s *RedisStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.client.SetNX(ctx, key, value, ttl).Result()
}

// CompareAndDelete implements Store.CompareAndDelete.
func (s *RedisStore) CompareAndDelete(ctx context.Context, key, value string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	reply, err := releaseScript.Run(ctx, s.client, []string{key}, value).Result()
	if err != nil {
		return false, err
	}
	n, ok := reply.(int64)
	if !ok || n < 0 || n > 1 {
		return false, fmt.Errorf("%w: %v", ErrUnexpectedReply, reply)
	}
	return n == 1, nil
}
