package obsgen

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/tamatch/tamatch/internal/backend"
	"github.com/tamatch/tamatch/internal/ntamodel"
)

func samplePlainModel() *ntamodel.System {
	m := ntamodel.NewSystem()
	tmpl := m.NewTemplate("Light")
	idle := tmpl.NewLocation("idle")
	busy := tmpl.NewLocation("busy")
	done := tmpl.NewLocation("done")
	tmpl.AddEdge(&ntamodel.Edge{Source: idle.ID, Target: busy.ID})
	tmpl.AddEdge(&ntamodel.Edge{Source: busy.ID, Target: done.ID})
	m.Instantiations = append(m.Instantiations, &ntamodel.Instantiation{InstanceName: "P1", TemplateName: "Light"})
	m.ProcessGroups = append(m.ProcessGroups, []string{"P1"})
	return m
}

func noopSerialize(m *ntamodel.System) (string, error)      { return "<model/>", nil }
func noopSerializeQuery(m *ntamodel.System) (string, error) { return "E<> _SC == 1", nil }

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

// twoStepTraceXML is a trace-generator run over samplePlainModel's two edges
// (idle->busy, busy->done), each split into a guard half (to a committed
// helper) and an update half, exactly as internal/tracegen.splitEdges would
// render them: four raw transitions pairing into two observation steps.
// Every dbm_instance is the zero-point default (no clockbound children), so
// every step resolves its delay at _TG == 0.
const twoStepTraceXML = `<trace>
  <system>
    <clock name="_TG"/>
    <clock name="_TR"/>
    <process name="P1">
      <edge id="e1" original_index="0"/>
      <edge id="e2" original_index="1"/>
      <edge id="e3" original_index="2"/>
      <edge id="e4" original_index="3"/>
    </process>
  </system>
  <location_vector id="lv0"><loc proc="P1" name="idle__0"/></location_vector>
  <location_vector id="lv1"><loc proc="P1" name="__h_0__1"/></location_vector>
  <location_vector id="lv2"><loc proc="P1" name="busy__2"/></location_vector>
  <location_vector id="lv3"><loc proc="P1" name="__h_1__3"/></location_vector>
  <location_vector id="lv4"><loc proc="P1" name="done__4"/></location_vector>
  <variable_vector id="vv0"></variable_vector>
  <dbm_instance id="d0"/>
  <dbm_instance id="d1"/>
  <dbm_instance id="d2"/>
  <dbm_instance id="d3"/>
  <dbm_instance id="d4"/>
  <node id="n0" location_vector_id="lv0" dbm_instance_id="d0" variable_vector_id="vv0"/>
  <node id="n1" location_vector_id="lv1" dbm_instance_id="d1" variable_vector_id="vv0"/>
  <node id="n2" location_vector_id="lv2" dbm_instance_id="d2" variable_vector_id="vv0"/>
  <node id="n3" location_vector_id="lv3" dbm_instance_id="d3" variable_vector_id="vv0"/>
  <node id="n4" location_vector_id="lv4" dbm_instance_id="d4" variable_vector_id="vv0"/>
  <transition source="n0" target="n1">
    <edge proc="P1" id="e1"/>
  </transition>
  <transition source="n1" target="n2">
    <edge proc="P1" id="e2"/>
  </transition>
  <transition source="n2" target="n3">
    <edge proc="P1" id="e3"/>
  </transition>
  <transition source="n3" target="n4">
    <edge proc="P1" id="e4"/>
  </transition>
</trace>`

func TestDriver_GenerateConcreteTrace_ReturnsErrorWhenStepCountUnreachable(t *testing.T) {
	path := fakeVerifyta(t, `echo "-- Formula is NOT satisfied."`)
	d := &Driver{
		Runner:         &backend.Runner{VerifytaPath: path, Timeout: 5 * time.Second},
		Serialize:      noopSerialize,
		SerializeQuery: noopSerializeQuery,
		WorkDir:        t.TempDir(),
	}
	if _, err := d.GenerateConcreteTrace(context.Background(), samplePlainModel(), 1, true); err == nil {
		t.Fatal("expected an error when the trace generator cannot reach the step count")
	}
}

func TestDriver_GenerateConcreteTrace_ExtractsDataPointsFromASatisfiedRun(t *testing.T) {
	path := fakeVerifyta(t, `echo "-- Formula is satisfied."
cat <<'XML'
`+twoStepTraceXML+`
XML`)
	d := &Driver{
		Runner:         &backend.Runner{VerifytaPath: path, Timeout: 5 * time.Second},
		Serialize:      noopSerialize,
		SerializeQuery: noopSerializeQuery,
		WorkDir:        t.TempDir(),
	}
	points, err := d.GenerateConcreteTrace(context.Background(), samplePlainModel(), 2, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Extract reports the departure state of every transition (its location
	// plus the global time at which it leaves), never the arrival state of the very
	// last one; a 2-step trace therefore yields init, init-again (the first
	// step's departure, identical to init since nothing happened yet), and
	// busy (the second step's departure) - done itself never surfaces.
	if len(points) != 3 {
		t.Fatalf("expected 3 data points (init + 2 steps), got %d", len(points))
	}
	first, last := points[0], points[2]
	if first.Locs["P1"] == nil || *first.Locs["P1"].Name != "idle" {
		t.Errorf("expected the first data point at idle, got %+v", first.Locs["P1"])
	}
	if last.Locs["P1"] == nil || *last.Locs["P1"].Name != "busy" {
		t.Errorf("expected the last data point at busy, got %+v", last.Locs["P1"])
	}
}

func TestDriver_GenerateConcreteTrace_RunsReplayCheckUnlessSkipped(t *testing.T) {
	path := fakeVerifyta(t, `echo "-- Formula is satisfied."
cat <<'XML'
`+twoStepTraceXML+`
XML`)
	d := &Driver{
		Runner:         &backend.Runner{VerifytaPath: path, Timeout: 5 * time.Second},
		Serialize:      noopSerialize,
		SerializeQuery: noopSerializeQuery,
		WorkDir:        t.TempDir(),
	}
	if _, err := d.GenerateConcreteTrace(context.Background(), samplePlainModel(), 2, false); err != nil {
		t.Fatalf("unexpected error with replay check enabled: %v", err)
	}
}
