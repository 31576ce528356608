// README: Stage service tests; a rename must evict both name-lookup entries.
package stage

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/cache"
	"atelier/internal/types"
)

type fakeStorage struct {
	stages map[types.ID]Stage
}

func (f *fakeStorage) Graph(context.Context) (*Graph, error) {
	var all []Stage
	for _, s := range f.stages {
		all = append(all, s)
	}
	return NewGraph(all, nil), nil
}

func (f *fakeStorage) Get(_ context.Context, id types.ID) (Stage, error) {
	s, ok := f.stages[id]
	if !ok {
		return Stage{}, ErrNotFound
	}
	return s, nil
}

func (f *fakeStorage) Create(_ context.Context, st *Stage) error {
	f.stages[st.ID] = *st
	return nil
}

func (f *fakeStorage) Update(_ context.Context, st *Stage) error {
	if _, ok := f.stages[st.ID]; !ok {
		return ErrNotFound
	}
	f.stages[st.ID] = *st
	return nil
}

func (f *fakeStorage) Delete(_ context.Context, id types.ID) error {
	delete(f.stages, id)
	return nil
}

func (f *fakeStorage) AttachRole(context.Context, Role) error              { return nil }
func (f *fakeStorage) DetachRole(context.Context, types.ID, string) error { return nil }

func newCacheStack(t *testing.T) (*cache.Coordinator, *cache.Facade, *cache.MemoryBackend) {
	t.Helper()
	backend := cache.NewMemoryBackend()
	index := cache.NewTagIndex(backend, time.Hour, zerolog.Nop())
	facade := cache.NewFacade(backend, index, time.Minute, zerolog.Nop())
	return cache.NewCoordinator(index, facade, zerolog.Nop()), facade, backend
}

func TestRenameEvictsOldAndNewNameKeys(t *testing.T) {
	coord, facade, backend := newCacheStack(t)
	ctx := context.Background()

	store := &fakeStorage{stages: map[types.ID]Stage{
		"s-design": {ID: "s-design", Name: "design", Rank: 10, Active: true},
	}}
	svc := NewService(store, coord, zerolog.Nop())

	// Warm both name lookups the way the read path would.
	for _, name := range []string{"design", "design_v2"} {
		_, err := cache.Remember(ctx, facade, cache.StageByNameKey(name), time.Minute, cache.TagStages,
			func(context.Context) (Stage, error) { return store.stages["s-design"], nil })
		require.NoError(t, err)
	}

	err := svc.Update(ctx, Stage{ID: "s-design", Name: "design_v2", Rank: 10, Active: true})
	require.NoError(t, err)

	for _, name := range []string{"design", "design_v2"} {
		_, ok, err := backend.Get(ctx, cache.StageByNameKey(name))
		require.NoError(t, err)
		assert.False(t, ok, "stage_by_name_%s must be absent after the rename", name)
	}
}

func TestUpdateUnknownStage(t *testing.T) {
	coord, _, _ := newCacheStack(t)
	store := &fakeStorage{stages: map[types.ID]Stage{}}
	svc := NewService(store, coord, zerolog.Nop())

	err := svc.Update(context.Background(), Stage{ID: "nope", Name: "x"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAttachRoleValidatesInput(t *testing.T) {
	coord, _, _ := newCacheStack(t)
	svc := NewService(&fakeStorage{stages: map[types.ID]Stage{}}, coord, zerolog.Nop())

	err := svc.AttachRole(context.Background(), Role{StageID: "", RoleType: ""})
	require.ErrorIs(t, err, ErrBadRequest)
}
