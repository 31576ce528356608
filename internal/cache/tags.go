// README: Closed enumeration of cache tags and well-known key builders.
package cache

import "fmt"

// Tag is a logical grouping label under which related cache keys are
// registered for bulk invalidation. The set of tags is closed so a missed
// registration is a compile-time concern, not a runtime one.
type Tag string

const (
	TagOrders      Tag = "orders"
	TagAssignments Tag = "assignments"
	TagStages      Tag = "stages"
	TagRoles       Tag = "roles"
	TagUsers       Tag = "users"
	TagProducts    Tag = "products"
)

// AllTags returns every known tag; used by ClearAll.
func AllTags() []Tag {
	return []Tag{TagOrders, TagAssignments, TagStages, TagRoles, TagUsers, TagProducts}
}

// Well-known key builders. Keeping them here, next to the tags they are
// registered under, is what keeps invalidation and key construction in sync.

func OrderKey(id string) string            { return fmt.Sprintf("order_%s", id) }
func OrderAssignmentsKey(id string) string { return fmt.Sprintf("order_assignments_%s", id) }
func StageByNameKey(name string) string    { return fmt.Sprintf("stage_by_name_%s", name) }
func ProductKey(id string) string          { return fmt.Sprintf("product_%s", id) }

const (
	StageGraphKey       = "stage_graph"
	UsersByStageRoleKey = "users_by_stage_role"
)
