// Package cachemanager provides typed in-memory caches with per-entry TTLs
// and a read-through wrapper that fills the cache from a loader function.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager is a typed cache keyed by string-like keys.
type CacheManager[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	// DeletePrefix removes every entry whose key starts with prefix and returns how many were removed.
	DeletePrefix(ctx context.Context, prefix string) int
	Flush(ctx context.Context) error
}
