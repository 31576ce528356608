// README: Cache backend abstraction (Redis in production, in-memory in tests).
package cache

import (
	"context"
	"time"
)

// Backend is the minimal key-value contract the cache layer needs: get,
// set-with-ttl, delete, plus a tracked-set primitive for the tag index.
// The store is a derived, discardable view; implementations may lose data
// at any time and callers re-derive values through Remember.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error

	// SAdd adds members to the set stored at key and refreshes its TTL.
	SAdd(ctx context.Context, key string, ttl time.Duration, members ...string) error
	// SMembers returns all members of the set at key; empty when absent.
	SMembers(ctx context.Context, key string) ([]string, error)
}
