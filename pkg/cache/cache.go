// Package cache stores expanded template text so unchanged inputs are not
// transformed twice.
//
// Keys are derived from a content hash of the input plus everything that
// influences the output (rule specs, substitution tables), so an entry never
// has to be invalidated: a changed input simply produces a new key.
//
// Four backends implement [Cache]:
//
//   - [NullCache] stores nothing (--no-cache).
//   - [FileCache] keeps one JSON entry per key under a local directory.
//   - [RedisCache] shares entries between machines through Redis.
//   - [MongoCache] keeps one document per key in a MongoDB collection.
//
// [Open] picks a backend from a URL so callers can stay backend-agnostic.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the stored value and whether the key was present.
	// A missing or expired key is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any connections held by the backend.
	Close() error
}

// TTLExpansion bounds how long an expanded variant stays cached.
const TTLExpansion = 7 * 24 * time.Hour
