package matcherbuild

import (
	"fmt"
	"testing"

	"github.com/tamatch/tamatch/internal/ntamodel"
)

func sampleModel() *ntamodel.System {
	m := ntamodel.NewSystem()
	tmpl := m.NewTemplate("Light")
	idle := tmpl.NewLocation("idle")
	busy := tmpl.NewLocation("busy")
	tmpl.AddEdge(&ntamodel.Edge{Source: idle.ID, Target: busy.ID})
	m.Instantiations = append(m.Instantiations, &ntamodel.Instantiation{InstanceName: "P1", TemplateName: "Light"})
	m.ProcessGroups = append(m.ProcessGroups, []string{"P1"})
	return m
}

func sampleObservation() []DataPoint {
	v := int64(3)
	return []DataPoint{
		{Time: 0, Vars: map[string]*int64{"x": &v}},
		{Time: 5, Vars: map[string]*int64{"x": &v}},
	}
}

func TestExtendedBuilder_AddsMatcherTemplateAndQuery(t *testing.T) {
	b := &ExtendedBuilder{Flags: Flags{SupportLocationMatching: true}}
	m, err := b.Build(sampleModel(), sampleObservation())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.GetTemplateByName("Trace_Matcher_Normal_Tmpl") == nil {
		t.Fatal("expected the normal matcher template to be added")
	}
	if len(m.Queries) != 1 {
		t.Fatalf("expected exactly 1 query, got %d", len(m.Queries))
	}
	found := false
	for _, inst := range m.Instantiations {
		if inst.InstanceName == "Trace_Matcher" {
			found = true
		}
	}
	if !found {
		t.Error("expected a Trace_Matcher instantiation")
	}
}

func TestExtendedBuilder_SelectsShiftedCommittedVariant(t *testing.T) {
	b := &ExtendedBuilder{Flags: Flags{SupportShiftedMatching: true, SupportCommittedMatching: true, MaximumInitialDelay: 7}}
	m, err := b.Build(sampleModel(), sampleObservation())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.GetTemplateByName("Trace_Matcher_ShiftedCommitted_Tmpl") == nil {
		t.Fatal("expected the shifted+committed matcher variant")
	}
}

func TestExtendedBuilder_ShiftedMatchingAddsInitialDelayGatedByDELAY(t *testing.T) {
	b := &ExtendedBuilder{Flags: Flags{SupportShiftedMatching: true, MaximumInitialDelay: 3}}
	m, err := b.Build(sampleModel(), sampleObservation())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tmpl := m.GetTemplateByName("Trace_Matcher_Shifted_Tmpl")
	if tmpl == nil {
		t.Fatal("expected the shifted matcher template")
	}
	m0 := tmpl.GetLocationByName("m_0")
	if m0 == nil || len(m0.Invariants) == 0 {
		t.Fatal("expected m_0 to carry a tt <= DELAY invariant")
	}
	shifted := tmpl.GetLocationByName("m_0_shifted")
	if shifted == nil {
		t.Fatal("expected a fresh m_0_shifted location after the delay")
	}
	var delayEdge *ntamodel.Edge
	for _, e := range tmpl.Edges() {
		if e.Source == m0.ID && e.Target == shifted.ID {
			delayEdge = e
		}
	}
	if delayEdge == nil {
		t.Fatal("expected an edge from m_0 to m_0_shifted")
	}
	found := false
	for _, c := range delayEdge.Resets {
		if c == "tt" {
			found = true
		}
	}
	if !found {
		t.Error("expected the delay edge to reset tt")
	}
}

func TestExtendedBuilder_CommittedMatchingInsertsStepGatesOnModelEdges(t *testing.T) {
	b := &ExtendedBuilder{Flags: Flags{SupportCommittedMatching: true}}
	m, err := b.Build(sampleModel(), sampleObservation())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tmpl := m.GetTemplateByName("Light")
	if tmpl == nil {
		t.Fatal("expected the original Light template to survive")
	}
	idle, busy := tmpl.GetLocationByName("idle"), tmpl.GetLocationByName("busy")
	if idle == nil || busy == nil {
		t.Fatal("expected idle and busy locations to survive")
	}

	var guardEdge, releaseEdge *ntamodel.Edge
	var helper *ntamodel.Location
	for _, e := range tmpl.Edges() {
		if e.Source == idle.ID && e.Target != busy.ID {
			guardEdge = e
			helper = tmpl.GetLocationByID(e.Target)
		}
	}
	if guardEdge == nil || helper == nil {
		t.Fatal("expected the idle->busy edge to be redirected through a helper location")
	}
	if !helper.Urgent {
		t.Error("expected the inserted helper location to be urgent")
	}
	for _, e := range tmpl.Edges() {
		if e.Source == helper.ID {
			releaseEdge = e
		}
	}
	if releaseEdge == nil || releaseEdge.Target != busy.ID {
		t.Fatal("expected a release edge from the helper to the original target")
	}
	if releaseEdge.Sync != "_step?" {
		t.Errorf("expected the release edge to sync on _step?, got %q", releaseEdge.Sync)
	}

	matcherTmpl := m.GetTemplateByName("Trace_Matcher_Committed_Tmpl")
	if matcherTmpl == nil {
		t.Fatal("expected the committed matcher template")
	}
	sawSend := false
	for _, e := range matcherTmpl.Edges() {
		if e.Sync == "_step!" {
			sawSend = true
		}
	}
	if !sawSend {
		t.Error("expected at least one matcher advancing edge to sync on _step!")
	}
}

func TestExtendedBuilder_RejectsEmptyModel(t *testing.T) {
	b := &ExtendedBuilder{}
	if _, err := b.Build(ntamodel.NewSystem(), sampleObservation()); err == nil {
		t.Fatal("expected an error for a model with no templates")
	}
}

func TestRawBuilder_BuildsChainOfFiveLocationsPerObservation(t *testing.T) {
	m := RawBuilder{}.Build(sampleModel(), sampleObservation())
	tmpl := m.GetTemplateByName("Trace_Matcher_Raw_Tmpl")
	if tmpl == nil {
		t.Fatal("expected the raw matcher template")
	}
	for i := 1; i <= len(sampleObservation()); i++ {
		for j := 1; j <= 5; j++ {
			if tmpl.GetLocationByName(fmt.Sprintf("m_%d_%d", i, j)) == nil {
				t.Errorf("expected chain location m_%d_%d", i, j)
			}
		}
	}
	if tmpl.GetLocationByName("m_T") == nil {
		t.Error("expected a final m_T location")
	}
	if len(m.Queries) != 1 {
		t.Fatalf("expected exactly 1 query, got %d", len(m.Queries))
	}
}
