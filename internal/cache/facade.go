// README: Read-through cache facade used by the stores.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// Facade is the read-through wrapper repositories use. Every value written
// through Remember is registered in the TagIndex before the call returns, so
// a later tag invalidation can never miss it. Any backend failure degrades
// to a cache miss: the cache must never block a business mutation or read.
type Facade struct {
	backend    Backend
	index      *TagIndex
	defaultTTL time.Duration
	log        zerolog.Logger
}

func NewFacade(backend Backend, index *TagIndex, defaultTTL time.Duration, log zerolog.Logger) *Facade {
	return &Facade{backend: backend, index: index, defaultTTL: defaultTTL, log: log}
}

// DefaultTTL is the TTL applied when callers pass ttl <= 0.
func (f *Facade) DefaultTTL() time.Duration {
	return f.defaultTTL
}

// Forget deletes a single key without touching any tag set. Used for narrow,
// known-key evictions such as order_{id}.
func (f *Facade) Forget(ctx context.Context, keys ...string) {
	if err := f.backend.Del(ctx, keys...); err != nil {
		f.log.Warn().Err(err).Strs("keys", keys).Msg("cache: forget failed")
	}
}

// ClearAll invalidates every known tag. The nuclear option; correctness is
// unaffected because all values re-derive through Remember.
func (f *Facade) ClearAll(ctx context.Context) {
	f.index.InvalidateMany(ctx, AllTags()...)
}

// Remember is the single-tag read-through: on a miss it runs compute, stores
// the result under key with ttl and registers the key under tag before
// returning. On a hit the stored value is returned without recomputation.
func Remember[T any](ctx context.Context, f *Facade, key string, ttl time.Duration, tag Tag, compute func(context.Context) (T, error)) (T, error) {
	return RememberWithTags(ctx, f, key, ttl, []Tag{tag}, compute)
}

// RememberWithTags is the multi-tag variant of Remember. The key is
// registered under every tag, even if the caller discards the result —
// otherwise a later invalidation of any of those tags would silently miss it.
func RememberWithTags[T any](ctx context.Context, f *Facade, key string, ttl time.Duration, tags []Tag, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	if raw, ok := f.lookup(ctx, key); ok {
		var v T
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			return v, nil
		}
		// Undecodable entry: drop it and fall through to compute.
		f.Forget(ctx, key)
	}

	v, err := compute(ctx)
	if err != nil {
		return zero, err
	}
	f.store(ctx, key, ttl, tags, v)
	return v, nil
}

func (f *Facade) lookup(ctx context.Context, key string) (string, bool) {
	raw, ok, err := f.backend.Get(ctx, key)
	if err != nil {
		f.log.Warn().Err(err).Str("key", key).Msg("cache: read failed, treating as miss")
		return "", false
	}
	return raw, ok
}

func (f *Facade) store(ctx context.Context, key string, ttl time.Duration, tags []Tag, v any) {
	if ttl <= 0 {
		ttl = f.defaultTTL
	}
	data, err := json.Marshal(v)
	if err != nil {
		f.log.Warn().Err(err).Str("key", key).Msg("cache: encode failed, skipping store")
		return
	}
	if err := f.backend.Set(ctx, key, string(data), ttl); err != nil {
		f.log.Warn().Err(err).Str("key", key).Msg("cache: write failed")
	}
	// Track even when the Set failed: tracking a missing key is harmless,
	// an untracked live key is the dangerous case.
	for _, tag := range tags {
		if err := f.index.Track(ctx, tag, key); err != nil {
			f.log.Warn().Err(err).Str("key", key).Str("tag", string(tag)).Msg("cache: tag tracking failed")
		}
	}
}
