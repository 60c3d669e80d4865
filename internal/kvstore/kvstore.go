// Package kvstore is a small key/value store with per-key expiry. It holds
// session payloads and one-time reset tokens.
//
// Two implementations are provided: Redis for deployments and an in-process
// map for development and tests.
package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps every failure to reach the backing store, including timeouts.
var ErrUnavailable = errors.New("key/value store unavailable")

type Store interface {
	// Set stores value under key. A zero ttl means the key never expires.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Take atomically reads and deletes key. ttl is the time the key had left
	// to live, zero when it had no expiry. Of several concurrent calls for the
	// same key at most one reports found.
	Take(ctx context.Context, key string) (value string, ttl time.Duration, found bool, err error)

	Del(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
