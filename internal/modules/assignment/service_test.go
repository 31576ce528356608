// README: Assignment service tests over an in-memory ledger.
package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/cache"
	"atelier/internal/notify"
	"atelier/internal/types"
)

// memStore mimics the persistence layer, including the CAS on the prior
// status and the conditional timestamp stamping the SQL does.
type memStore struct {
	rows map[types.ID]*Assignment
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[types.ID]*Assignment)}
}

func (m *memStore) Create(_ context.Context, a *Assignment) error {
	cp := *a
	m.rows[a.ID] = &cp
	return nil
}

func (m *memStore) Get(_ context.Context, id types.ID) (*Assignment, error) {
	a, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id types.ID, from, to Status) (*Assignment, error) {
	a, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	if a.Status != from {
		return nil, ErrConflict
	}
	now := time.Now().UTC()
	a.Status = to
	switch to {
	case StatusInProgress:
		if a.StartedAt == nil {
			a.StartedAt = &now
		}
	case StatusApproved:
		if a.ApprovedAt == nil {
			a.ApprovedAt = &now
		}
	case StatusCancelled:
		a.CancelledAt = &now
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) ListByOrder(_ context.Context, orderID types.ID) ([]Assignment, error) {
	var out []Assignment
	for _, a := range m.rows {
		if a.OrderID == orderID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memStore) SoftDelete(_ context.Context, id types.ID) error {
	a, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	if a.Status != StatusCancelled {
		return ErrConflict
	}
	delete(m.rows, id)
	return nil
}

type countingAdvancer struct {
	calls  int
	orders []types.ID
}

func (c *countingAdvancer) AssignmentApproved(_ context.Context, orderID types.ID, _ types.ID) {
	c.calls++
	c.orders = append(c.orders, orderID)
}

func newTestService(t *testing.T) (*Service, *memStore, *countingAdvancer) {
	t.Helper()
	backend := cache.NewMemoryBackend()
	index := cache.NewTagIndex(backend, time.Hour, zerolog.Nop())
	facade := cache.NewFacade(backend, index, time.Minute, zerolog.Nop())
	coord := cache.NewCoordinator(index, facade, zerolog.Nop())
	store := newMemStore()
	adv := &countingAdvancer{}
	return NewService(store, adv, coord, notify.Nop{}, zerolog.Nop()), store, adv
}

func seed(t *testing.T, store *memStore, status Status) types.ID {
	t.Helper()
	id := types.NewID()
	err := store.Create(context.Background(), &Assignment{
		ID:        id,
		OrderID:   "o-1",
		UserID:    "u-1",
		RoleType:  "printer",
		Status:    status,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return id
}

func TestSetStatusSameStatusIsNoOp(t *testing.T) {
	svc, store, adv := newTestService(t)
	id := seed(t, store, StatusApproved)

	err := svc.SetStatus(context.Background(), SetStatusCommand{AssignmentID: id, NewStatus: StatusApproved, Actor: "mgr"})
	require.NoError(t, err)
	assert.Equal(t, 0, adv.calls, "re-setting approved must not re-trigger the advancer")
}

func TestSetStatusApprovedTriggersAdvancerOnce(t *testing.T) {
	svc, store, adv := newTestService(t)
	id := seed(t, store, StatusUnderReview)
	ctx := context.Background()

	require.NoError(t, svc.SetStatus(ctx, SetStatusCommand{AssignmentID: id, NewStatus: StatusApproved, Actor: "mgr"}))
	require.Equal(t, 1, adv.calls)
	assert.Equal(t, types.ID("o-1"), adv.orders[0])

	// A second identical call is a no-op and must not fire again.
	require.NoError(t, svc.SetStatus(ctx, SetStatusCommand{AssignmentID: id, NewStatus: StatusApproved, Actor: "mgr"}))
	assert.Equal(t, 1, adv.calls)
}

func TestSetStatusRejectsBackwardMove(t *testing.T) {
	svc, store, adv := newTestService(t)
	id := seed(t, store, StatusUnderReview)

	err := svc.SetStatus(context.Background(), SetStatusCommand{AssignmentID: id, NewStatus: StatusInProgress, Actor: "mgr"})
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 0, adv.calls)

	got, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusUnderReview, got.Status)
}

func TestSetStatusNoEscapeFromCancelled(t *testing.T) {
	svc, store, _ := newTestService(t)
	id := seed(t, store, StatusCancelled)

	err := svc.SetStatus(context.Background(), SetStatusCommand{AssignmentID: id, NewStatus: StatusPending, Actor: "mgr"})
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestSetStatusStampsTimestamps(t *testing.T) {
	svc, store, _ := newTestService(t)
	id := seed(t, store, StatusPending)
	ctx := context.Background()

	require.NoError(t, svc.SetStatus(ctx, SetStatusCommand{AssignmentID: id, NewStatus: StatusInProgress}))
	require.NoError(t, svc.SetStatus(ctx, SetStatusCommand{AssignmentID: id, NewStatus: StatusApproved}))

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, got.StartedAt)
	assert.NotNil(t, got.ApprovedAt)
	assert.Nil(t, got.CancelledAt)
}

func TestAutoAssignSkipsExistingPairs(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateCommand{OrderID: "o-2", UserID: "u-1", RoleType: "printer"})
	require.NoError(t, err)

	err = svc.AutoAssign(ctx, "o-2", map[string][]types.ID{
		"printer":  {"u-1", "u-2"},
		"engraver": {"u-3"},
	})
	require.NoError(t, err)

	all, err := store.ListByOrder(ctx, "o-2")
	require.NoError(t, err)
	assert.Len(t, all, 3, "existing (printer, u-1) pair must not be duplicated")
}

func TestRemoveRequiresCancelled(t *testing.T) {
	svc, store, _ := newTestService(t)
	id := seed(t, store, StatusInProgress)
	ctx := context.Background()

	require.ErrorIs(t, svc.Remove(ctx, id), ErrConflict)

	require.NoError(t, svc.SetStatus(ctx, SetStatusCommand{AssignmentID: id, NewStatus: StatusCancelled}))
	require.NoError(t, svc.Remove(ctx, id))

	_, err := store.Get(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)
}
