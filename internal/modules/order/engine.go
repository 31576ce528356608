// README: Stage transition engine: the walk, the payment gate, the re-entrancy guard.
package order

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"atelier/internal/audit"
	"atelier/internal/cache"
	"atelier/internal/modules/assignment"
	"atelier/internal/modules/product"
	"atelier/internal/modules/stage"
	"atelier/internal/notify"
	"atelier/internal/types"
)

// Storage is what the engine needs from the order persistence layer.
type Storage interface {
	Get(ctx context.Context, id types.ID) (*Order, error)
	Create(ctx context.Context, o *Order) error
	ApplyTransition(ctx context.Context, o *Order, to types.ID, archive bool, actor *types.ID) error
	AddPayment(ctx context.Context, id types.ID, amount int64) (*Order, error)
	StatusLogFor(ctx context.Context, orderID types.ID) ([]StatusLog, error)
}

// Ledger exposes the order's assignment records.
type Ledger interface {
	ListByOrder(ctx context.Context, orderID types.ID) ([]assignment.Assignment, error)
}

// StageSource provides the stage graph.
type StageSource interface {
	Graph(ctx context.Context) (*stage.Graph, error)
}

// ProductSource resolves the order's product, including stage support.
type ProductSource interface {
	Get(ctx context.Context, id types.ID) (*product.Product, error)
}

// AutoAssigner creates pending assignments when a stage with auto-assign
// roles is entered. Implemented by the assignment service; wired after
// construction because the assignment service also holds the engine.
type AutoAssigner interface {
	AutoAssign(ctx context.Context, orderID types.ID, byRole map[string][]types.ID) error
}

// Directory resolves which users hold a role.
type Directory interface {
	UsersWithRole(ctx context.Context, roleType string) ([]types.ID, error)
}

// Engine decides when an order may advance and performs the stage mutation.
// All gating outcomes are plain false returns; only infrastructure and
// data-integrity problems surface as errors, and the approval-trigger
// boundary swallows even those so the write that triggered the check always
// completes.
type Engine struct {
	orders    Storage
	ledger    Ledger
	stages    StageSource
	products  ProductSource
	directory Directory
	coord     *cache.Coordinator
	sink      notify.Sink
	auditor   audit.Recorder
	log       zerolog.Logger

	assigner AutoAssigner

	// inFlight holds the per-order "currently transitioning" tokens. An
	// approval can re-enter the engine through its own side effects; one
	// evaluation per order per logical mutation is the invariant.
	inFlight sync.Map
}

func NewEngine(
	orders Storage,
	ledger Ledger,
	stages StageSource,
	products ProductSource,
	directory Directory,
	coord *cache.Coordinator,
	sink notify.Sink,
	auditor audit.Recorder,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		orders:    orders,
		ledger:    ledger,
		stages:    stages,
		products:  products,
		directory: directory,
		coord:     coord,
		sink:      sink,
		auditor:   auditor,
		log:       log.With().Str("module", "order.engine").Logger(),
	}
}

// SetAutoAssigner wires the assignment service in after construction.
func (e *Engine) SetAutoAssigner(a AutoAssigner) {
	e.assigner = a
}

// NextStage walks forward through the graph from the order's current stage.
// A stage the product does not support is skipped — deliberately, even when
// product configuration is incomplete and a human might have expected the
// order to pass through it. The first stage with unapproved work is the
// answer; an exhausted walk falls through to the payment gate: completed
// when fully paid, final otherwise.
func (e *Engine) NextStage(ctx context.Context, o *Order) (stage.Stage, error) {
	g, err := e.stages.Graph(ctx)
	if err != nil {
		return stage.Stage{}, fmt.Errorf("load stage graph: %w", err)
	}
	cur, ok := g.ByID(o.StageID)
	if !ok {
		return stage.Stage{}, fmt.Errorf("order %s: unknown stage %s", o.ID, o.StageID)
	}
	if cur.IsTerminal() {
		return cur, nil
	}
	prod, err := e.products.Get(ctx, o.ProductID)
	if err != nil {
		return stage.Stage{}, fmt.Errorf("order %s: load product: %w", o.ID, err)
	}
	asgs, err := e.ledger.ListByOrder(ctx, o.ID)
	if err != nil {
		return stage.Stage{}, fmt.Errorf("order %s: load assignments: %w", o.ID, err)
	}

	for _, cand := range g.After(cur.Rank) {
		if !prod.Supports(cand.ID) {
			continue
		}
		entries := entriesTargeting(g, cand.ID, asgs)
		if len(entries) > 0 && !allApproved(entries) {
			return cand, nil
		}
	}

	targetName := stage.NameFinal
	if o.IsFullyPaid() {
		targetName = stage.NameCompleted
	}
	target, ok := g.ByName(targetName)
	if !ok {
		return stage.Stage{}, fmt.Errorf("order %s: stage %q missing from graph", o.ID, targetName)
	}
	// Transitions only fire forward.
	if target.Rank < cur.Rank {
		return cur, nil
	}
	return target, nil
}

// IsCurrentStageApproved reports whether the order's current stage no longer
// gates it: the stage has no roles, the order has no entries targeting it,
// or every entry is approved.
func (e *Engine) IsCurrentStageApproved(ctx context.Context, o *Order) (bool, error) {
	g, err := e.stages.Graph(ctx)
	if err != nil {
		return false, fmt.Errorf("load stage graph: %w", err)
	}
	if len(g.RolesFor(o.StageID)) == 0 {
		return true, nil
	}
	asgs, err := e.ledger.ListByOrder(ctx, o.ID)
	if err != nil {
		return false, fmt.Errorf("order %s: load assignments: %w", o.ID, err)
	}
	entries := entriesTargeting(g, o.StageID, asgs)
	return allApproved(entries), nil
}

// MoveToNextStage computes the target stage and performs the transition.
// Returns false without error for every gating outcome: no-op target,
// payment gate, stale approval on the completed edge, or a concurrent
// evaluation already in flight for this order.
func (e *Engine) MoveToNextStage(ctx context.Context, o *Order, actor *types.ID) (bool, error) {
	if _, busy := e.inFlight.LoadOrStore(o.ID, struct{}{}); busy {
		return false, nil
	}
	defer e.inFlight.Delete(o.ID)

	g, err := e.stages.Graph(ctx)
	if err != nil {
		return false, fmt.Errorf("load stage graph: %w", err)
	}
	next, err := e.NextStage(ctx, o)
	if err != nil {
		return false, err
	}
	if next.ID == o.StageID {
		return false, nil
	}

	if next.Name == stage.NameCompleted {
		if !o.IsFullyPaid() {
			// Payment gate: completed is unreachable until paid in full.
			final, ok := g.ByName(stage.NameFinal)
			if !ok {
				return false, fmt.Errorf("order %s: stage %q missing from graph", o.ID, stage.NameFinal)
			}
			next = final
			if next.ID == o.StageID {
				return false, nil
			}
		} else {
			// The approval snapshot that led here may be stale; re-verify the
			// current stage's required roles before the terminal write.
			ok, err := e.requiredRolesApproved(ctx, g, o)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
	}

	from := o.StageID
	archive := next.IsTerminal()
	if err := e.orders.ApplyTransition(ctx, o, next.ID, archive, actor); err != nil {
		return false, err
	}

	e.coord.Apply(ctx, cache.Mutation{
		Entity:     cache.EntityOrder,
		Action:     cache.ActionUpdate,
		ForgetKeys: []string{cache.OrderKey(string(o.ID))},
	})
	e.auditor.Record(audit.Entry{
		Entity:   "order",
		EntityID: o.ID,
		Action:   "stage_changed",
		Before:   map[string]any{"stage_id": from},
		After:    map[string]any{"stage_id": next.ID, "is_archived": o.IsArchived},
		ActorID:  actor,
	})
	e.notifyStageChanged(ctx, o, from, next)
	e.autoAssignFor(ctx, o, g, next)
	return true, nil
}

// AssignmentApproved is the ledger's trigger path: re-check the current
// stage and advance when it is fully approved. Errors are logged and
// swallowed here so the approval that triggered the check always completes.
func (e *Engine) AssignmentApproved(ctx context.Context, orderID types.ID, actor types.ID) {
	o, err := e.orders.Get(ctx, orderID)
	if err != nil {
		e.log.Error().Err(err).Str("order_id", string(orderID)).Msg("approval re-check: load order failed")
		return
	}
	approved, err := e.IsCurrentStageApproved(ctx, o)
	if err != nil {
		e.log.Error().Err(err).Str("order_id", string(orderID)).Msg("approval re-check failed")
		return
	}
	if !approved {
		return
	}
	if _, err := e.MoveToNextStage(ctx, o, &actor); err != nil {
		e.log.Error().Err(err).Str("order_id", string(orderID)).Msg("transition after approval failed")
	}
}

// requiredRolesApproved verifies every required role of the current stage has
// all of its assignments approved. A role with no assignments passes
// vacuously.
func (e *Engine) requiredRolesApproved(ctx context.Context, g *stage.Graph, o *Order) (bool, error) {
	required := g.RequiredRolesFor(o.StageID)
	if len(required) == 0 {
		return true, nil
	}
	asgs, err := e.ledger.ListByOrder(ctx, o.ID)
	if err != nil {
		return false, fmt.Errorf("order %s: load assignments: %w", o.ID, err)
	}
	for _, r := range required {
		for _, a := range asgs {
			if a.RoleType == r.RoleType && a.Status != assignment.StatusApproved {
				return false, nil
			}
		}
	}
	return true, nil
}

func (e *Engine) notifyStageChanged(ctx context.Context, o *Order, from types.ID, to stage.Stage) {
	asgs, err := e.ledger.ListByOrder(ctx, o.ID)
	if err != nil {
		e.log.Warn().Err(err).Str("order_id", string(o.ID)).Msg("stage-change notification: list assignments failed")
		return
	}
	seen := make(map[types.ID]bool)
	for _, a := range asgs {
		if seen[a.UserID] {
			continue
		}
		seen[a.UserID] = true
		e.sink.Notify(ctx, a.UserID, notify.EventStageChanged, map[string]any{
			"order_id":   o.ID,
			"from_stage": from,
			"to_stage":   to.ID,
			"stage_name": to.Name,
		})
	}
}

func (e *Engine) autoAssignFor(ctx context.Context, o *Order, g *stage.Graph, entered stage.Stage) {
	if e.assigner == nil || e.directory == nil {
		return
	}
	byRole := make(map[string][]types.ID)
	for _, r := range g.RolesFor(entered.ID) {
		if !r.AutoAssign {
			continue
		}
		users, err := e.directory.UsersWithRole(ctx, r.RoleType)
		if err != nil {
			e.log.Warn().Err(err).Str("role", r.RoleType).Msg("auto-assign: directory lookup failed")
			continue
		}
		if len(users) > 0 {
			byRole[r.RoleType] = users
		}
	}
	if len(byRole) == 0 {
		return
	}
	if err := e.assigner.AutoAssign(ctx, o.ID, byRole); err != nil {
		e.log.Warn().Err(err).Str("order_id", string(o.ID)).Msg("auto-assign failed")
	}
}

// entriesTargeting returns the assignments applicable to a stage: those
// whose role type belongs to the stage's role set.
func entriesTargeting(g *stage.Graph, stageID types.ID, asgs []assignment.Assignment) []assignment.Assignment {
	roleSet := make(map[string]bool)
	for _, rt := range g.RoleTypesFor(stageID) {
		roleSet[rt] = true
	}
	var out []assignment.Assignment
	for _, a := range asgs {
		if roleSet[a.RoleType] {
			out = append(out, a)
		}
	}
	return out
}

func allApproved(entries []assignment.Assignment) bool {
	for _, a := range entries {
		if a.Status != assignment.StatusApproved {
			return false
		}
	}
	return true
}
