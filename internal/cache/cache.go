// Package cache is the short-lived key/value store behind the replay guard
// and the health probe.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/readhabit/readhabit-web/internal/config"
)

var ErrNotFound = errors.New("key not found")

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX stores value only when key is absent or expired and reports
	// whether it did.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

func New(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryCache(cfg.CleanupInterval), nil
	case "redis":
		if cfg.Redis == nil {
			return nil, errors.New("redis settings are required for the redis cache")
		}
		return NewRedisCache(*cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported cache type: %q", cfg.Type)
	}
}
