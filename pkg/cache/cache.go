// Package cache stores opaque byte values under string keys, and on top of
// that persists loaded package indexes so repeated runs can skip the walk
// and parse.
//
// # Backends
//
// Three [Cache] implementations are provided:
//
//   - [FileCache]: one file per key below a directory, for CLI use
//   - [RedisCache]: a shared Redis instance, for servers
//   - [NullCache]: stores nothing, for disabling the cache
//
// # Index snapshots
//
// [IndexCache] serialises an [index.Index] as a msgpack snapshot compressed
// with zstd, keyed by the absolute path of the index root:
//
//	ic, _ := cache.NewIndexCache(backend, root, 24*time.Hour)
//	idx, ok, err := ic.Load(ctx)
//	if !ok {
//		idx, _, err = index.Build(ctx, root, opts)
//		_ = ic.Save(ctx, idx)
//	}
//
// An entry that fails to decode is treated as a miss and deleted.
package cache

import (
	"context"
	"time"
)

// Cache is a key-value store for byte slices with optional expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value stored under key. A missing or expired entry is
	// reported as ok == false with a nil error.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases any resources held by the cache.
	Close() error
}
