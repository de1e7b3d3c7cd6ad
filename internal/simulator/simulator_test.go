package simulator

import (
	"testing"

	"github.com/tamatch/tamatch/internal/ntamodel"
)

func TestBuild_AddsScheduleGuardsAndInitHelper(t *testing.T) {
	m := ntamodel.NewSystem()
	tmpl := m.NewTemplate("Light")
	idle := tmpl.NewLocation("idle")
	busy := tmpl.NewLocation("busy")
	tmpl.AddEdge(&ntamodel.Edge{Source: idle.ID, Target: busy.ID})

	b := Builder{Schedule: Schedule{{0}, {-1}}}
	b.Build(m, map[string]int{"Light": 0})

	if tmpl.GetLocationByName("__h") == nil {
		t.Fatal("expected a committed init helper location")
	}
	edges := tmpl.Edges()
	found := false
	for _, e := range edges {
		if len(e.VariableGuards) > 0 {
			found = true
		}
	}
	if !found {
		t.Error("expected at least one edge to carry a schedule guard")
	}
	if len(m.Queries) != 1 {
		t.Fatalf("expected exactly 1 query, got %d", len(m.Queries))
	}
}
