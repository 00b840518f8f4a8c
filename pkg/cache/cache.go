// Package cache stores computed routes and rendered artifacts.
//
// # Backends
//
//   - [FileCache]: JSON entry files under a directory, for CLI use
//   - [RedisCache]: a shared Redis instance, for the server
//   - [NullCache]: never stores anything, for --no-cache
//
// # Keys
//
// A [Keyer] derives deterministic keys from everything that affects a
// result: the canonical building hash, endpoints and routing options for
// routes, plus format, floor and style for artifacts. [ScopedKeyer] adds a
// prefix so several buildings or tenants can share one backend.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/wayfinder/pkg/observability"
)

// Default time-to-live per entry type. Routes depend only on the building
// hash and options, so they can live long.
const (
	TTLRoute    = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data; a ttl of zero keeps it until deleted.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetJSON reads and decodes a cached value, reporting the hit or miss to the
// cache hooks under keyType. A miss, or an entry that no longer decodes, is
// returned as [ErrCacheMiss].
func GetJSON(ctx context.Context, c Cache, keyType, key string, v any) error {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok || json.Unmarshal(data, v) != nil {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return ErrCacheMiss
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return nil
}

// SetJSON encodes and stores v.
func SetJSON(ctx context.Context, c Cache, keyType, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
	return nil
}

// GetBytes is like [GetJSON] for raw values such as PNG or GIF artifacts.
func GetBytes(ctx context.Context, c Cache, keyType, key string) ([]byte, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, ErrCacheMiss
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, nil
}

// SetBytes stores a raw value.
func SetBytes(ctx context.Context, c Cache, keyType, key string, data []byte, ttl time.Duration) error {
	if err := c.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
	return nil
}
