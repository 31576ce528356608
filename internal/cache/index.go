// README: Tag index mapping each tag to the set of cache keys written under it.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const defaultIndexTTL = 24 * time.Hour

// TagIndex records, per tag, every cache key written under that tag so the
// whole group can be purged at once. The index lives in the same backend as
// the entries but with its own long TTL, so it outlives the short-lived
// values it tracks.
//
// Invalidation is eventually complete but not atomic: a key tracked
// concurrently with an in-flight invalidation of the same tag may or may not
// survive. The cache is never a source of truth, so the race is acceptable.
type TagIndex struct {
	backend  Backend
	indexTTL time.Duration
	log      zerolog.Logger
}

func NewTagIndex(backend Backend, indexTTL time.Duration, log zerolog.Logger) *TagIndex {
	if indexTTL <= 0 {
		indexTTL = defaultIndexTTL
	}
	return &TagIndex{backend: backend, indexTTL: indexTTL, log: log}
}

func tagSetKey(tag Tag) string {
	return fmt.Sprintf("cachetag:%s", tag)
}

// Track registers key under tag. Duplicate tracking is a no-op.
// A write is not considered complete until its key is tracked.
func (i *TagIndex) Track(ctx context.Context, tag Tag, key string) error {
	return i.backend.SAdd(ctx, tagSetKey(tag), i.indexTTL, key)
}

// Invalidate deletes every entry tracked under tag, then clears the tracked
// set itself. Safe to call on an empty or unknown tag.
func (i *TagIndex) Invalidate(ctx context.Context, tag Tag) error {
	keys, err := i.backend.SMembers(ctx, tagSetKey(tag))
	if err != nil {
		return fmt.Errorf("cache: read tag set %q: %w", tag, err)
	}
	keys = append(keys, tagSetKey(tag))
	if err := i.backend.Del(ctx, keys...); err != nil {
		return fmt.Errorf("cache: purge tag %q: %w", tag, err)
	}
	return nil
}

// InvalidateMany invalidates each tag independently. Tags are disjoint
// partitions, so order does not matter. A failed tag is logged and the rest
// are still purged.
func (i *TagIndex) InvalidateMany(ctx context.Context, tags ...Tag) {
	for _, tag := range tags {
		if err := i.Invalidate(ctx, tag); err != nil {
			i.log.Warn().Err(err).Str("tag", string(tag)).Msg("cache: tag invalidation failed")
		}
	}
}
