// README: Assignment ledger service; approval events trigger order stage re-checks.
package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"atelier/internal/cache"
	"atelier/internal/notify"
	"atelier/internal/types"
)

var ErrInvalidState = errors.New("invalid assignment status transition")

// Storage is what the service needs from the persistence layer.
type Storage interface {
	Create(ctx context.Context, a *Assignment) error
	Get(ctx context.Context, id types.ID) (*Assignment, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status) (*Assignment, error)
	ListByOrder(ctx context.Context, orderID types.ID) ([]Assignment, error)
	SoftDelete(ctx context.Context, id types.ID) error
}

// Advancer is the transition engine seam: after an assignment reaches
// approved, the ledger asks it to re-check the order's current stage. The
// implementation must swallow its own failures; a transition problem never
// rolls back the approval that triggered it.
type Advancer interface {
	AssignmentApproved(ctx context.Context, orderID types.ID, actor types.ID)
}

type Service struct {
	store    Storage
	advancer Advancer
	coord    *cache.Coordinator
	sink     notify.Sink
	log      zerolog.Logger
}

func NewService(store Storage, advancer Advancer, coord *cache.Coordinator, sink notify.Sink, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		advancer: advancer,
		coord:    coord,
		sink:     sink,
		log:      log.With().Str("module", "assignment").Logger(),
	}
}

type CreateCommand struct {
	OrderID  types.ID
	UserID   types.ID
	RoleType string
}

type SetStatusCommand struct {
	AssignmentID types.ID
	NewStatus    Status
	Actor        types.ID
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Assignment, error) {
	if cmd.OrderID == "" || cmd.UserID == "" || cmd.RoleType == "" {
		return nil, ErrInvalidState
	}
	a := &Assignment{
		ID:        types.NewID(),
		OrderID:   cmd.OrderID,
		UserID:    cmd.UserID,
		RoleType:  cmd.RoleType,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}
	s.coord.Apply(ctx, cache.Mutation{
		Entity:     cache.EntityAssignment,
		Action:     cache.ActionCreate,
		ForgetKeys: []string{cache.OrderAssignmentsKey(string(cmd.OrderID))},
	})
	s.sink.Notify(ctx, a.UserID, notify.EventAssignmentCreated, map[string]any{
		"assignment_id": a.ID,
		"order_id":      a.OrderID,
		"role_type":     a.RoleType,
	})
	return a, nil
}

// SetStatus applies one lifecycle transition. Setting the current status
// again is a no-op. On entering approved the ledger hands the order to the
// advancer for a stage re-check; that is the only automatic trigger path.
func (s *Service) SetStatus(ctx context.Context, cmd SetStatusCommand) error {
	a, err := s.store.Get(ctx, cmd.AssignmentID)
	if err != nil {
		return err
	}
	if a.Status == cmd.NewStatus {
		return nil
	}
	if !CanTransition(a.Status, cmd.NewStatus) {
		return ErrInvalidState
	}
	updated, err := s.store.UpdateStatus(ctx, a.ID, a.Status, cmd.NewStatus)
	if err != nil {
		return err
	}

	s.coord.Apply(ctx, cache.Mutation{
		Entity:     cache.EntityAssignment,
		Action:     cache.ActionUpdate,
		ForgetKeys: []string{cache.OrderAssignmentsKey(string(a.OrderID))},
	})
	s.sink.Notify(ctx, a.UserID, notify.EventAssignmentStatusChanged, map[string]any{
		"assignment_id": a.ID,
		"order_id":      a.OrderID,
		"from":          a.Status,
		"to":            updated.Status,
	})

	if updated.Status == StatusApproved {
		s.advancer.AssignmentApproved(ctx, a.OrderID, cmd.Actor)
	}
	return nil
}

// AutoAssign creates pending assignments for every (user, role) pair,
// skipping pairs the order already has a live assignment for. Invoked by the
// transition engine when an order enters a stage with auto-assign roles.
func (s *Service) AutoAssign(ctx context.Context, orderID types.ID, byRole map[string][]types.ID) error {
	existing, err := s.store.ListByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	has := make(map[string]bool, len(existing))
	for _, a := range existing {
		has[a.RoleType+"/"+string(a.UserID)] = true
	}
	for role, users := range byRole {
		for _, uid := range users {
			if has[role+"/"+string(uid)] {
				continue
			}
			if _, err := s.Create(ctx, CreateCommand{OrderID: orderID, UserID: uid, RoleType: role}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) ListByOrder(ctx context.Context, orderID types.ID) ([]Assignment, error) {
	return s.store.ListByOrder(ctx, orderID)
}

// Remove soft-deletes a cancelled assignment.
func (s *Service) Remove(ctx context.Context, id types.ID) error {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.coord.Apply(ctx, cache.Mutation{
		Entity:     cache.EntityAssignment,
		Action:     cache.ActionDelete,
		ForgetKeys: []string{cache.OrderAssignmentsKey(string(a.OrderID))},
	})
	return nil
}
