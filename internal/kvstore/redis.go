package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// takeScript returns false for a missing key, which the client reports as redis.Nil.
var takeScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
	return false
end
local ttl = redis.call('PTTL', KEYS[1])
redis.call('DEL', KEYS[1])
return {v, ttl}
`)

type RedisStore struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedis connects to the server described by a redis:// URL. Every
// operation is bounded by timeout.
func NewRedis(url string, timeout time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("in internal/kvstore/redis.go/NewRedis(): error while `redis.ParseURL()` calling: %w", err)
	}
	opts.DialTimeout = timeout
	opts.ReadTimeout = timeout
	opts.WriteTimeout = timeout
	opts.ContextTimeoutEnabled = true

	return &RedisStore{
		client:  redis.NewClient(opts),
		timeout: timeout,
	}, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return wrap("Set", err)
	}

	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrap("Get", err)
	}

	return value, true, nil
}

func (s *RedisStore) Take(ctx context.Context, key string) (string, time.Duration, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := takeScript.Run(ctx, s.client, []string{key}).Slice()
	if errors.Is(err, redis.Nil) {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, wrap("Take", err)
	}
	if len(res) != 2 {
		return "", 0, false, fmt.Errorf("in internal/kvstore/redis.go/Take(): unexpected script reply %v", res)
	}

	value, _ := res[0].(string)
	var ttl time.Duration
	if ms, ok := res[1].(int64); ok && ms > 0 {
		ttl = time.Duration(ms) * time.Millisecond
	}

	return value, ttl, true, nil
}

func (s *RedisStore) Del(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return wrap("Del", err)
	}

	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Ping(ctx).Err(); err != nil {
		return wrap("Ping", err)
	}

	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// wrap marks everything except a server error reply as ErrUnavailable.
func wrap(op string, err error) error {
	var reply redis.Error
	if errors.As(err, &reply) {
		return fmt.Errorf("in internal/kvstore/redis.go/%s(): %w", op, err)
	}

	return fmt.Errorf("in internal/kvstore/redis.go/%s(): %w: %w", op, ErrUnavailable, err)
}
