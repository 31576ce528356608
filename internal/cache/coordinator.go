// README: Maps entity mutations to the tag sets that must be invalidated.
package cache

import (
	"context"

	"github.com/rs/zerolog"
)

// Entity identifies the kind of row a mutation touched.
type Entity string

const (
	EntityOrder      Entity = "order"
	EntityAssignment Entity = "assignment"
	EntityStage      Entity = "stage"
	EntityStageRole  Entity = "stage_role"
	EntityRole       Entity = "role"
	EntityUser       Entity = "user"
	EntityProduct    Entity = "product"
)

// Action is the lifecycle event applied to the entity.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Mutation is the explicit effect record a service hands to the coordinator
// after persisting a change: which entity changed, how, and any concrete
// keys that need a targeted eviction on top of the tag purge (for example
// both old and new stage_by_name keys on a rename).
type Mutation struct {
	Entity     Entity
	Action     Action
	ForgetKeys []string
}

// Coordinator is the single place that knows which cached views each entity
// mutation can affect. It is deliberately conservative: when in doubt it
// over-invalidates, because a stale read is a correctness bug while an extra
// miss is only a performance cost.
type Coordinator struct {
	index  *TagIndex
	facade *Facade
	log    zerolog.Logger
}

func NewCoordinator(index *TagIndex, facade *Facade, log zerolog.Logger) *Coordinator {
	return &Coordinator{index: index, facade: facade, log: log}
}

// tagsFor returns every tag a mutation of the given entity may have touched.
func tagsFor(entity Entity) []Tag {
	switch entity {
	case EntityOrder:
		return []Tag{TagOrders}
	case EntityAssignment:
		// Assignment state feeds cached order views (current stage approval).
		return []Tag{TagAssignments, TagOrders}
	case EntityStage, EntityStageRole, EntityRole, EntityUser:
		// The users-grouped-by-stage-role view spans all three partitions;
		// invalidating them together covers every call site that used to be
		// handled piecemeal.
		return []Tag{TagStages, TagRoles, TagUsers}
	case EntityProduct:
		// Product stage support is consulted by cached order projections.
		return []Tag{TagProducts, TagOrders}
	default:
		return AllTags()
	}
}

// Apply fires the invalidations for one persisted mutation. Failures are
// logged and swallowed: stale-risk is bounded by entry TTLs and the cache
// never blocks the mutation that already committed.
func (c *Coordinator) Apply(ctx context.Context, m Mutation) {
	tags := tagsFor(m.Entity)
	c.index.InvalidateMany(ctx, tags...)
	if len(m.ForgetKeys) > 0 {
		c.facade.Forget(ctx, m.ForgetKeys...)
	}
	c.log.Debug().
		Str("entity", string(m.Entity)).
		Str("action", string(m.Action)).
		Int("tags", len(tags)).
		Msg("cache: invalidated")
}
