// Package store is the expiring key-value boundary used for sessions and
// lockout state.
//
// The core only needs single-key operations: get, set with TTL, atomic
// increment, expire, delete and ping. No component relies on multi-key
// atomicity. Implementations wrap backend faults in [ErrUnavailable] so
// callers can pick their fail-open or fail-closed behavior with errors.Is.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by Get when the key does not exist or has expired.
	ErrNotFound = errors.New("store: key not found")
	// ErrUnavailable wraps every backend failure, including context cancellation.
	ErrUnavailable = errors.New("store: backend unavailable")
)

// Store is the narrow TTL-capable key-value contract.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	// Set writes value with ttl. A non-positive ttl stores the key without expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Incr atomically increments the integer at key and returns the new value.
	// A missing key counts from zero.
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// Del removes keys. Missing keys are not an error.
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}
