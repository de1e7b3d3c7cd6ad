package tracegen

import (
	"testing"

	"github.com/tamatch/tamatch/internal/ntamodel"
)

func TestBuild_SplitsEveryEdgeThroughACommittedHelper(t *testing.T) {
	m := ntamodel.NewSystem()
	tmpl := m.NewTemplate("Light")
	idle := tmpl.NewLocation("idle")
	busy := tmpl.NewLocation("busy")
	tmpl.AddEdge(&ntamodel.Edge{Source: idle.ID, Target: busy.ID, Sync: "go!"})

	Builder{StepCount: 3}.Build(m)

	edges := tmpl.Edges()
	if len(edges) != 2 {
		t.Fatalf("expected 2 edges after the split, got %d", len(edges))
	}
	locs := tmpl.Locations()
	if len(locs) != 3 {
		t.Fatalf("expected 3 locations (original 2 + 1 helper), got %d", len(locs))
	}
	var helper *ntamodel.Location
	for _, l := range locs {
		if l.Committed {
			helper = l
		}
	}
	if helper == nil {
		t.Fatal("expected a committed helper location")
	}
	if len(m.Queries) != 1 {
		t.Fatalf("expected exactly 1 query, got %d", len(m.Queries))
	}
}
