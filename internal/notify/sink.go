// README: Notification sink contract; delivery is fire-and-forget for the core.
package notify

import (
	"context"

	"atelier/internal/types"
)

type EventKind string

const (
	EventAssignmentCreated       EventKind = "assignment_created"
	EventAssignmentStatusChanged EventKind = "assignment_status_changed"
	EventStageChanged            EventKind = "stage_changed"
	EventBulkStageChanged        EventKind = "bulk_stage_changed"
)

// Sink delivers an event to a user. Implementations never return delivery
// failures to the caller; a failed notification must not roll back the state
// transition that produced it.
type Sink interface {
	Notify(ctx context.Context, userID types.ID, kind EventKind, payload map[string]any)
}

// Fanout delivers through every sink in order.
type Fanout []Sink

func (f Fanout) Notify(ctx context.Context, userID types.ID, kind EventKind, payload map[string]any) {
	for _, s := range f {
		s.Notify(ctx, userID, kind, payload)
	}
}

// Nop drops every event; used when no delivery channel is configured.
type Nop struct{}

func (Nop) Notify(context.Context, types.ID, EventKind, map[string]any) {}
