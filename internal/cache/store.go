package cache

import (
	"context"
	"time"
)

// Store represents a shared key-value cache used across the application.
// Session liveness depends on it: a missing key means "not authenticated".
type Store interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
