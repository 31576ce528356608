// README: Order service: creation, payment recording, bulk stage moves.
package order

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"atelier/internal/audit"
	"atelier/internal/cache"
	"atelier/internal/notify"
	"atelier/internal/types"
)

type Service struct {
	store   Storage
	engine  *Engine
	stages  StageSource
	coord   *cache.Coordinator
	sink    notify.Sink
	auditor audit.Recorder
	log     zerolog.Logger
}

func NewService(
	store Storage,
	engine *Engine,
	stages StageSource,
	coord *cache.Coordinator,
	sink notify.Sink,
	auditor audit.Recorder,
	log zerolog.Logger,
) *Service {
	return &Service{
		store:   store,
		engine:  engine,
		stages:  stages,
		coord:   coord,
		sink:    sink,
		auditor: auditor,
		log:     log.With().Str("module", "order").Logger(),
	}
}

func (s *Service) Engine() *Engine {
	return s.engine
}

type CreateCommand struct {
	ProductID types.ID
	ClientID  types.ID
	ProjectID *types.ID
	Price     types.Money
}

type PaymentCommand struct {
	OrderID types.ID
	Amount  int64
	Actor   types.ID
}

type BulkStageCommand struct {
	OrderIDs []types.ID
	StageID  types.ID
	Actor    types.ID
}

// Create opens an order in the graph's entry stage.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Order, error) {
	if cmd.ProductID == "" || cmd.ClientID == "" {
		return nil, ErrBadRequest
	}
	g, err := s.stages.Graph(ctx)
	if err != nil {
		return nil, err
	}
	entry, ok := g.Entry()
	if !ok {
		return nil, ErrBadRequest
	}
	o := &Order{
		ID:            types.NewID(),
		StageID:       entry.ID,
		ProductID:     cmd.ProductID,
		ClientID:      cmd.ClientID,
		ProjectID:     cmd.ProjectID,
		Price:         cmd.Price,
		PaymentAmount: types.Money{Currency: cmd.Price.Currency},
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.Create(ctx, o); err != nil {
		return nil, err
	}
	s.coord.Apply(ctx, cache.Mutation{Entity: cache.EntityOrder, Action: cache.ActionCreate})
	return o, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Order, error) {
	return s.store.Get(ctx, id)
}

// RecordPayment adds to the order's payment amount, then re-checks the
// stage: a payment can be exactly what unlocks final → completed. Transition
// problems are logged and swallowed — the payment itself already persisted.
func (s *Service) RecordPayment(ctx context.Context, cmd PaymentCommand) (*Order, error) {
	if cmd.Amount <= 0 {
		return nil, ErrBadRequest
	}
	o, err := s.store.AddPayment(ctx, cmd.OrderID, cmd.Amount)
	if err != nil {
		return nil, err
	}
	s.coord.Apply(ctx, cache.Mutation{
		Entity:     cache.EntityOrder,
		Action:     cache.ActionUpdate,
		ForgetKeys: []string{cache.OrderKey(string(o.ID))},
	})
	s.auditor.Record(audit.Entry{
		Entity:   "order",
		EntityID: o.ID,
		Action:   "payment_recorded",
		After:    map[string]any{"payment_amount": o.PaymentAmount.Amount},
		ActorID:  &cmd.Actor,
	})

	approved, err := s.engine.IsCurrentStageApproved(ctx, o)
	if err != nil {
		s.log.Error().Err(err).Str("order_id", string(o.ID)).Msg("payment re-check failed")
		return o, nil
	}
	if approved {
		if _, err := s.engine.MoveToNextStage(ctx, o, &cmd.Actor); err != nil {
			s.log.Error().Err(err).Str("order_id", string(o.ID)).Msg("transition after payment failed")
		}
	}
	return o, nil
}

// BulkSetStage moves a set of orders to an explicit stage, bypassing the
// walk. Archive rules and status logs still apply per order; one
// conservative invalidation and one notification batch cover the whole set.
func (s *Service) BulkSetStage(ctx context.Context, cmd BulkStageCommand) (int, error) {
	if len(cmd.OrderIDs) == 0 || cmd.StageID == "" {
		return 0, ErrBadRequest
	}
	g, err := s.stages.Graph(ctx)
	if err != nil {
		return 0, err
	}
	target, ok := g.ByID(cmd.StageID)
	if !ok {
		return 0, ErrBadRequest
	}

	moved := 0
	forget := make([]string, 0, len(cmd.OrderIDs))
	for _, id := range cmd.OrderIDs {
		o, err := s.store.Get(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Str("order_id", string(id)).Msg("bulk stage: load failed, skipping")
			continue
		}
		if o.StageID == target.ID {
			continue
		}
		from := o.StageID
		if err := s.store.ApplyTransition(ctx, o, target.ID, target.IsTerminal(), &cmd.Actor); err != nil {
			s.log.Warn().Err(err).Str("order_id", string(id)).Msg("bulk stage: transition failed, skipping")
			continue
		}
		s.auditor.Record(audit.Entry{
			Entity:   "order",
			EntityID: o.ID,
			Action:   "stage_changed_bulk",
			Before:   map[string]any{"stage_id": from},
			After:    map[string]any{"stage_id": target.ID},
			ActorID:  &cmd.Actor,
		})
		forget = append(forget, cache.OrderKey(string(id)))
		moved++
	}

	s.coord.Apply(ctx, cache.Mutation{
		Entity:     cache.EntityOrder,
		Action:     cache.ActionUpdate,
		ForgetKeys: forget,
	})
	s.sink.Notify(ctx, cmd.Actor, notify.EventBulkStageChanged, map[string]any{
		"order_ids": cmd.OrderIDs,
		"stage_id":  target.ID,
		"moved":     moved,
	})
	return moved, nil
}

func (s *Service) StatusLog(ctx context.Context, orderID types.ID) ([]StatusLog, error) {
	return s.store.StatusLogFor(ctx, orderID)
}
