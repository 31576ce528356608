// README: In-memory cache backend for tests and cache-less deployments.
package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryBackend is a process-local Backend. Expiry is checked lazily on read.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	sets    map[string]map[string]struct{}
	setExp  map[string]time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]memoryEntry),
		sets:    make(map[string]map[string]struct{}),
		setExp:  make(map[string]time.Time),
	}
}

func (b *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[key]
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(b.entries, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (b *MemoryBackend) Set(_ context.Context, key, value string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	b.entries[key] = memoryEntry{value: value, expiresAt: exp}
	return nil
}

func (b *MemoryBackend) Del(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		delete(b.entries, k)
		delete(b.sets, k)
		delete(b.setExp, k)
	}
	return nil
}

func (b *MemoryBackend) SAdd(_ context.Context, key string, ttl time.Duration, members ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.sets[key]
	if !ok {
		set = make(map[string]struct{})
		b.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	if ttl > 0 {
		b.setExp[key] = time.Now().Add(ttl)
	}
	return nil
}

func (b *MemoryBackend) SMembers(_ context.Context, key string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if exp, ok := b.setExp[key]; ok && time.Now().After(exp) {
		delete(b.sets, key)
		delete(b.setExp, key)
		return nil, nil
	}
	set := b.sets[key]
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	return members, nil
}
