// Package store provides key/value persistence with expiration for drafts.
//
// Every backend implements [Store]. Values are opaque byte slices; a TTL of
// zero means the entry never expires. Expired entries behave exactly like
// missing ones.
//
// # Backends
//
//   - [NullStore]: stores nothing, for tests and ephemeral sessions
//   - [FileStore]: one JSON file per key, for the CLI
//   - [SQLiteStore]: a single SQLite file, for a local server
//   - [RedisStore]: Redis with native expiration, for shared deployments
//   - [MongoStore]: a MongoDB collection with a TTL index
//
// [Open] picks a backend by name:
//
//	st, err := store.Open(ctx, store.Config{Backend: "sqlite", SQLitePath: "drafts.db"})
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
package store

import (
	"context"
	"time"
)

// Store is a key/value store with per-entry expiration.
type Store interface {
	// Get returns the value stored under key. ok is false when the key is
	// missing or expired.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key. A non-positive ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Purger is implemented by stores that need expired entries removed
// explicitly. Redis and MongoDB expire entries on their own.
type Purger interface {
	// Purge deletes expired entries and returns how many were removed.
	Purge(ctx context.Context) (int, error)
}

// Lister is implemented by stores that can enumerate their keys.
type Lister interface {
	// Keys returns the live keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

func expired(at time.Time) bool {
	return !at.IsZero() && time.Now().After(at)
}
