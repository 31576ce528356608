package order

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/audit"
	"atelier/internal/cache"
	"atelier/internal/modules/assignment"
	"atelier/internal/notify"
	"atelier/internal/types"
)

func newServiceFixture(t *testing.T) (*Service, *fixture) {
	t.Helper()
	f := newFixture(t)
	backend := cache.NewMemoryBackend()
	index := cache.NewTagIndex(backend, time.Hour, zerolog.Nop())
	facade := cache.NewFacade(backend, index, time.Minute, zerolog.Nop())
	coord := cache.NewCoordinator(index, facade, zerolog.Nop())
	svc := NewService(f.orders, f.engine, &fakeStages{g: testGraph()}, coord,
		notify.Nop{}, audit.Nop{}, zerolog.Nop())
	return svc, f
}

func TestCreateStartsInEntryStage(t *testing.T) {
	svc, f := newServiceFixture(t)

	o, err := svc.Create(context.Background(), CreateCommand{
		ProductID: "p-ring",
		ClientID:  "c-1",
		Price:     types.Money{Amount: 250, Currency: "EUR"},
	})
	require.NoError(t, err)
	assert.Equal(t, types.ID("s-design"), o.StageID)
	assert.False(t, o.IsArchived)
	assert.Equal(t, int64(0), o.PaymentAmount.Amount)
	assert.Equal(t, "EUR", o.PaymentAmount.Currency)

	stored, err := f.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.StageID, stored.StageID)
}

func TestCreateValidatesCommand(t *testing.T) {
	svc, _ := newServiceFixture(t)

	_, err := svc.Create(context.Background(), CreateCommand{ProductID: "p-ring"})
	require.ErrorIs(t, err, ErrBadRequest)
}

func TestRecordPaymentRejectsNonPositiveAmount(t *testing.T) {
	svc, f := newServiceFixture(t)
	o := seedOrder(f, "s-final", 100, 40)

	_, err := svc.RecordPayment(context.Background(), PaymentCommand{OrderID: o.ID, Amount: 0})
	require.ErrorIs(t, err, ErrBadRequest)

	_, err = svc.RecordPayment(context.Background(), PaymentCommand{OrderID: o.ID, Amount: -5})
	require.ErrorIs(t, err, ErrBadRequest)
}

// The final payment is what unlocks final → completed: the order sits fully
// approved on the last working stage and only the balance holds it back.
func TestRecordPaymentUnlocksCompletion(t *testing.T) {
	svc, f := newServiceFixture(t)
	o := seedOrder(f, "s-final", 100, 40)
	assign(f, o.ID, "qa", assignment.StatusApproved)

	got, err := svc.RecordPayment(context.Background(), PaymentCommand{OrderID: o.ID, Amount: 60, Actor: "u-client"})
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.PaymentAmount.Amount)

	stored, err := f.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ID("s-completed"), stored.StageID)
	assert.True(t, stored.IsArchived)
}

func TestRecordPaymentPartialLeavesStageAlone(t *testing.T) {
	svc, f := newServiceFixture(t)
	o := seedOrder(f, "s-final", 100, 40)
	assign(f, o.ID, "qa", assignment.StatusApproved)

	got, err := svc.RecordPayment(context.Background(), PaymentCommand{OrderID: o.ID, Amount: 30, Actor: "u-client"})
	require.NoError(t, err)
	assert.Equal(t, int64(70), got.PaymentAmount.Amount)

	stored, err := f.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ID("s-final"), stored.StageID)
	assert.False(t, stored.IsArchived)
}

func TestBulkSetStageMovesAndArchives(t *testing.T) {
	svc, f := newServiceFixture(t)
	ctx := context.Background()
	a := seedOrder(f, "s-design", 100, 0)
	b := seedOrder(f, "s-print", 100, 0)
	already := seedOrder(f, "s-cancelled", 100, 0)

	moved, err := svc.BulkSetStage(ctx, BulkStageCommand{
		OrderIDs: []types.ID{a.ID, b.ID, already.ID, "missing"},
		StageID:  "s-cancelled",
		Actor:    "u-mgr",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, moved, "same-stage and missing orders are skipped")

	for _, id := range []types.ID{a.ID, b.ID} {
		got, err := f.orders.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, types.ID("s-cancelled"), got.StageID)
		assert.True(t, got.IsArchived)
	}
}

func TestBulkSetStageNonTerminalDoesNotArchive(t *testing.T) {
	svc, f := newServiceFixture(t)
	o := seedOrder(f, "s-design", 100, 0)

	moved, err := svc.BulkSetStage(context.Background(), BulkStageCommand{
		OrderIDs: []types.ID{o.ID},
		StageID:  "s-workshop",
		Actor:    "u-mgr",
	})
	require.NoError(t, err)
	require.Equal(t, 1, moved)

	got, err := f.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ID("s-workshop"), got.StageID)
	assert.False(t, got.IsArchived)
}

func TestBulkSetStageValidatesTarget(t *testing.T) {
	svc, f := newServiceFixture(t)
	o := seedOrder(f, "s-design", 100, 0)

	_, err := svc.BulkSetStage(context.Background(), BulkStageCommand{
		OrderIDs: []types.ID{o.ID},
		StageID:  "s-unknown",
	})
	require.ErrorIs(t, err, ErrBadRequest)

	_, err = svc.BulkSetStage(context.Background(), BulkStageCommand{StageID: "s-workshop"})
	require.ErrorIs(t, err, ErrBadRequest)
}

func TestStatusLogReturnsTransitions(t *testing.T) {
	svc, f := newServiceFixture(t)
	o := seedOrder(f, "s-final", 100, 100)
	ctx := context.Background()

	moved, err := f.engine.MoveToNextStage(ctx, o, nil)
	require.NoError(t, err)
	require.True(t, moved)

	logs, err := svc.StatusLog(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, types.ID("s-final"), logs[0].FromStageID)
	assert.Equal(t, types.ID("s-completed"), logs[0].ToStageID)
}
