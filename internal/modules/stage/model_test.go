// README: Stage graph tests.
package stage

import (
	"testing"

	"atelier/internal/types"
)

func testStages() []Stage {
	return []Stage{
		{ID: "s-design", Name: NameDesign, Rank: 10, Active: true},
		{ID: "s-print", Name: NamePrint, Rank: 20, Active: true},
		{ID: "s-engraving", Name: NameEngraving, Rank: 30, Active: true},
		{ID: "s-workshop", Name: NameWorkshop, Rank: 40, Active: true},
		{ID: "s-final", Name: NameFinal, Rank: 50, Active: true},
		{ID: "s-completed", Name: NameCompleted, Rank: 60, Active: true},
		{ID: "s-cancelled", Name: NameCancelled, Rank: 70, Active: true},
		{ID: "s-retired", Name: "retired", Rank: 5, Active: false},
	}
}

func TestGraphEntryIsLowestActiveNonTerminal(t *testing.T) {
	g := NewGraph(testStages(), nil)
	entry, ok := g.Entry()
	if !ok {
		t.Fatal("no entry stage")
	}
	if entry.Name != NameDesign {
		t.Fatalf("entry = %s, want %s (inactive stages must not win)", entry.Name, NameDesign)
	}
}

func TestGraphAfterExcludesTerminals(t *testing.T) {
	g := NewGraph(testStages(), nil)
	design, _ := g.ByName(NameDesign)

	var names []string
	for _, s := range g.After(design.Rank) {
		names = append(names, s.Name)
	}
	want := []string{NamePrint, NameEngraving, NameWorkshop, NameFinal}
	if len(names) != len(want) {
		t.Fatalf("After(%d) = %v, want %v", design.Rank, names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("After(%d)[%d] = %s, want %s", design.Rank, i, names[i], want[i])
		}
	}
}

func TestGraphTerminalStages(t *testing.T) {
	g := NewGraph(testStages(), nil)
	for _, name := range []string{NameCompleted, NameCancelled} {
		s, ok := g.ByName(name)
		if !ok {
			t.Fatalf("stage %s missing", name)
		}
		if !s.IsTerminal() {
			t.Fatalf("stage %s must be terminal", name)
		}
	}
	if final, _ := g.ByName(NameFinal); final.IsTerminal() {
		t.Fatal("final must not be terminal")
	}
}

func TestGraphRequiredRoles(t *testing.T) {
	roles := []Role{
		{StageID: "s-print", RoleType: "printer", IsRequired: true},
		{StageID: "s-print", RoleType: "reviewer", IsRequired: false},
	}
	g := NewGraph(testStages(), roles)

	if got := len(g.RolesFor(types.ID("s-print"))); got != 2 {
		t.Fatalf("RolesFor = %d roles, want 2", got)
	}
	req := g.RequiredRolesFor(types.ID("s-print"))
	if len(req) != 1 || req[0].RoleType != "printer" {
		t.Fatalf("RequiredRolesFor = %v, want just printer", req)
	}
	if got := len(g.RolesFor(types.ID("s-final"))); got != 0 {
		t.Fatalf("stage without roles must report none, got %d", got)
	}
}
