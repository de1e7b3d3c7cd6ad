package matcher

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/tamatch/tamatch/internal/backend"
	"github.com/tamatch/tamatch/internal/dbm"
	"github.com/tamatch/tamatch/internal/matcherbuild"
	"github.com/tamatch/tamatch/internal/ntamodel"
	"github.com/tamatch/tamatch/internal/symtrace"
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

func sampleObservation() []matcherbuild.DataPoint {
	v := int64(3)
	return []matcherbuild.DataPoint{
		{Time: 0, Vars: map[string]*int64{"x": &v}},
		{Time: 5, Vars: map[string]*int64{"x": &v}},
	}
}

func noopSerialize(m *ntamodel.System) (string, error)      { return "<model/>", nil }
func noopSerializeQuery(m *ntamodel.System) (string, error) { return "A<> Trace_Matcher.S", nil }

func fakeVerifyta(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake verifyta script assumes a POSIX shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "verifyta")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("writing fake verifyta: %v", err)
	}
	return path
}

func newTestMatcher(t *testing.T, runnerPath string) *Matcher {
	t.Helper()
	return New(
		&backend.Runner{VerifytaPath: runnerPath, Timeout: 5 * time.Second},
		nil,
		noopSerialize,
		noopSerializeQuery,
		t.TempDir(),
		nil,
	)
}

func TestSetMatcherType_DefaultsToExtended(t *testing.T) {
	m := newTestMatcher(t, "unused")
	m.SetMatcherType("bogus")
	if m.matcherType != TypeExtended {
		t.Errorf("expected unrecognized types to fall back to TypeExtended, got %q", m.matcherType)
	}
	m.SetMatcherType(TypeRaw)
	if m.matcherType != TypeRaw {
		t.Errorf("expected TypeRaw to stick, got %q", m.matcherType)
	}
}

func TestCreateMatcherModel_RawBuilderAddsRawTemplate(t *testing.T) {
	m := newTestMatcher(t, "unused")
	m.SetModel(sampleModel(), nil)
	m.SetObservationData(sampleObservation())
	m.SetMatcherType(TypeRaw)

	if err := m.CreateMatcherModel(false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.matcherModel.GetTemplateByName("Trace_Matcher_Raw_Tmpl") == nil {
		t.Fatal("expected the raw matcher template to be added")
	}
}

func TestCreateMatcherModel_UsePreparedReusesPreprocessedCopy(t *testing.T) {
	m := newTestMatcher(t, "unused")
	m.SetModel(sampleModel(), nil)
	m.SetObservationData(sampleObservation())
	m.SetMatcherType(TypeRaw)

	if err := m.PrepareMatcherModel(); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	prepared := m.preparedModel
	if err := m.CreateMatcherModel(true); err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.preparedModel != prepared {
		t.Error("expected CreateMatcherModel(true) to reuse the existing prepared model instead of rebuilding it")
	}
}

func TestMatch_TimeoutIsReportedNotErrored(t *testing.T) {
	path := fakeVerifyta(t, "sleep 5")
	m := newTestMatcher(t, path)
	m.Runner.Timeout = 50 * time.Millisecond
	m.SetModel(sampleModel(), nil)
	m.SetMatcherType(TypeRaw)

	res, err := m.Match(context.Background(), sampleObservation(), false, false, false)
	if err != nil {
		t.Fatalf("a backend timeout must not surface as an error: %v", err)
	}
	if !res.IsTimeout || res.IsMatching {
		t.Errorf("expected IsTimeout=true, IsMatching=false, got %+v", res)
	}
}

func TestMatch_UnsatisfiedReturnsNotMatching(t *testing.T) {
	path := fakeVerifyta(t, `echo "-- Formula is NOT satisfied."`)
	m := newTestMatcher(t, path)
	m.SetModel(sampleModel(), nil)
	m.SetMatcherType(TypeRaw)

	res, err := m.Match(context.Background(), sampleObservation(), true, false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsMatching || res.IsTimeout {
		t.Errorf("expected a clean non-match, got %+v", res)
	}
}

func TestMatch_SatisfiedWithoutTraceSkipsXMLParsing(t *testing.T) {
	path := fakeVerifyta(t, `echo "-- Formula is satisfied."`)
	m := newTestMatcher(t, path)
	m.SetModel(sampleModel(), nil)
	m.SetMatcherType(TypeRaw)

	res, err := m.Match(context.Background(), sampleObservation(), false, false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsMatching {
		t.Error("expected IsMatching=true")
	}
	if res.MatchingTrace != nil {
		t.Error("expected no trace to be extracted when returnTrace=false")
	}
}

func TestMergeTraceGroups_UnionsZonesWithinAStepAndDropsHelperStates(t *testing.T) {
	clocks := []string{"x"}
	zoneA, _ := dbm.NewUnconstrained(clocks).Conjugate("x", "", dbm.RelLe, 2)
	zoneB, _ := dbm.NewUnconstrained(clocks).Conjugate("x", "", dbm.RelLe, 9)
	zoneC, _ := dbm.NewUnconstrained(clocks).Conjugate("x", "", dbm.RelLe, 1)

	s1 := &symtrace.State{Locs: map[string]string{traceMatcherProc: "m_0"}, Vars: map[string]int64{}, DBM: zoneA}
	helper := &symtrace.State{Locs: map[string]string{traceMatcherProc: "m_0", "P1": "__h0"}, Vars: map[string]int64{}, DBM: zoneB}
	s2 := &symtrace.State{Locs: map[string]string{traceMatcherProc: "m_1"}, Vars: map[string]int64{}, DBM: zoneC}

	tr := &symtrace.Trace{
		Init: s1,
		Transitions: []*symtrace.Transition{
			{Source: s1, Target: helper, TriggeredEdges: map[string]string{}},
			{Source: helper, Target: s2, TriggeredEdges: map[string]string{"P1": "0"}},
		},
	}

	merged, err := mergeTraceGroups(tr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(merged.Transitions) != 1 {
		t.Fatalf("expected the two m_0 states to collapse into a single merged state, got %d transitions", len(merged.Transitions))
	}
	_, _, hi, _, err := merged.Init.DBM.Interval("x")
	if err != nil {
		t.Fatalf("interval: %v", err)
	}
	if hi != 9 {
		t.Errorf("expected the initial group's zone to widen to the helper state's bound (9), got %d", hi)
	}
	if merged.Transitions[0].TriggeredEdges["P1"] != "0" {
		t.Error("expected the edge between groups to carry the boundary transition's triggered edges")
	}
}
