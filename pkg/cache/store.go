package cache

import (
	"context"
	"time"
)

// Store is the key/value persistence interface used for dashboard settings.
// The server runs against a Valkey/Redis node when one is configured and
// falls back to an in-memory store otherwise.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	HealthCheck(ctx context.Context) error
}
