// README: Stage and stage-role definitions plus the immutable stage graph.
package stage

import (
	"sort"

	"atelier/internal/types"
)

// Well-known stage slugs. The graph itself is configurable; these names are
// the ones the transition engine gives special meaning to.
const (
	NameDesign    = "design"
	NamePrint     = "print"
	NameEngraving = "engraving"
	NameWorkshop  = "workshop"
	NameFinal     = "final"
	NameCompleted = "completed"
	NameCancelled = "cancelled"
)

type Stage struct {
	ID          types.ID `json:"id"`
	Name        string   `json:"name"` // unique slug
	DisplayName string   `json:"display_name"`
	Rank        int      `json:"rank"` // total order over active stages
	ColorHint   string   `json:"color_hint"`
	Active      bool     `json:"active"`
}

// IsTerminal reports whether the stage has no outgoing transitions.
func (s Stage) IsTerminal() bool {
	return s.Name == NameCompleted || s.Name == NameCancelled
}

// Role attaches a worker role to a stage. A stage with no attached roles is
// trivially approved (no gating).
type Role struct {
	StageID    types.ID `json:"stage_id"`
	RoleType   string   `json:"role_type"`
	IsRequired bool     `json:"is_required"`
	AutoAssign bool     `json:"auto_assign"`
}

// Graph is the static, ordered view of the active stages with their role
// requirements. Pure data and lookups; it never mutates anything.
type Graph struct {
	Stages []Stage            `json:"stages"` // ascending by Rank
	Roles  map[types.ID][]Role `json:"roles"`
}

func NewGraph(stages []Stage, roles []Role) *Graph {
	g := &Graph{Roles: make(map[types.ID][]Role)}
	for _, s := range stages {
		if s.Active {
			g.Stages = append(g.Stages, s)
		}
	}
	sort.Slice(g.Stages, func(i, j int) bool { return g.Stages[i].Rank < g.Stages[j].Rank })
	for _, r := range roles {
		g.Roles[r.StageID] = append(g.Roles[r.StageID], r)
	}
	return g
}

func (g *Graph) ByID(id types.ID) (Stage, bool) {
	for _, s := range g.Stages {
		if s.ID == id {
			return s, true
		}
	}
	return Stage{}, false
}

func (g *Graph) ByName(name string) (Stage, bool) {
	for _, s := range g.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return Stage{}, false
}

// Entry returns the stage a new order starts in: the lowest-ranked active
// non-terminal stage.
func (g *Graph) Entry() (Stage, bool) {
	for _, s := range g.Stages {
		if !s.IsTerminal() {
			return s, true
		}
	}
	return Stage{}, false
}

// After returns the active non-terminal stages strictly beyond the given
// rank, ascending. Terminal stages are never walk candidates; they are only
// reached through the payment gate.
func (g *Graph) After(rank int) []Stage {
	var out []Stage
	for _, s := range g.Stages {
		if s.Rank > rank && !s.IsTerminal() {
			out = append(out, s)
		}
	}
	return out
}

// RolesFor returns the roles attached to a stage.
func (g *Graph) RolesFor(stageID types.ID) []Role {
	return g.Roles[stageID]
}

// RequiredRolesFor returns only the roles flagged as required.
func (g *Graph) RequiredRolesFor(stageID types.ID) []Role {
	var out []Role
	for _, r := range g.Roles[stageID] {
		if r.IsRequired {
			out = append(out, r)
		}
	}
	return out
}

// RoleTypesFor returns the role-type slugs attached to a stage.
func (g *Graph) RoleTypesFor(stageID types.ID) []string {
	roles := g.Roles[stageID]
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, r.RoleType)
	}
	return out
}
