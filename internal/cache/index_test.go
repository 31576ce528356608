// README: Tag index tests: invalidation completeness and idempotence.
package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidatePurgesEveryTrackedKey(t *testing.T) {
	backend := NewMemoryBackend()
	index := NewTagIndex(backend, time.Hour, zerolog.Nop())
	ctx := context.Background()

	keys := []string{"order_1", "order_2", "order_3"}
	for _, k := range keys {
		require.NoError(t, backend.Set(ctx, k, "v", time.Minute))
		require.NoError(t, index.Track(ctx, TagOrders, k))
	}

	require.NoError(t, index.Invalidate(ctx, TagOrders))

	for _, k := range keys {
		_, ok, err := backend.Get(ctx, k)
		require.NoError(t, err)
		assert.False(t, ok, "key %s survived invalidation", k)
	}

	// The tracked set itself is cleared as well.
	members, err := backend.SMembers(ctx, tagSetKey(TagOrders))
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestInvalidateEmptyTagIsNoOp(t *testing.T) {
	backend := NewMemoryBackend()
	index := NewTagIndex(backend, time.Hour, zerolog.Nop())

	require.NoError(t, index.Invalidate(context.Background(), TagStages))
}

func TestTrackIsIdempotent(t *testing.T) {
	backend := NewMemoryBackend()
	index := NewTagIndex(backend, time.Hour, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, index.Track(ctx, TagUsers, "users_all"))
	require.NoError(t, index.Track(ctx, TagUsers, "users_all"))

	members, err := backend.SMembers(ctx, tagSetKey(TagUsers))
	require.NoError(t, err)
	assert.Equal(t, []string{"users_all"}, members)
}

func TestInvalidateManyCoversIndependentTags(t *testing.T) {
	backend := NewMemoryBackend()
	index := NewTagIndex(backend, time.Hour, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, "u", "v", time.Minute))
	require.NoError(t, backend.Set(ctx, "s", "v", time.Minute))
	require.NoError(t, index.Track(ctx, TagUsers, "u"))
	require.NoError(t, index.Track(ctx, TagStages, "s"))

	index.InvalidateMany(ctx, TagUsers, TagStages)

	for _, k := range []string{"u", "s"} {
		_, ok, _ := backend.Get(ctx, k)
		assert.False(t, ok)
	}
}
