package symtrace

import "testing"

func TestStripOrdinalSuffix(t *testing.T) {
	cases := map[string]string{
		"idle__3":   "idle",
		"busy__0":   "busy",
		"plain":     "plain",
		"weird__ab": "weird__ab",
		"a__":       "a__",
	}
	for in, want := range cases {
		if got := stripOrdinalSuffix(in); got != want {
			t.Errorf("stripOrdinalSuffix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseXML_BuildsInitAndTransitions(t *testing.T) {
	doc := []byte(`<trace>
  <system>
    <clock name="_TG"/>
    <clock name="_TR"/>
    <process name="P0">
      <edge id="e1" original_index="0"/>
    </process>
  </system>
  <location_vector id="lv0"><loc proc="P0" name="idle__0"/></location_vector>
  <location_vector id="lv1"><loc proc="P0" name="busy__1"/></location_vector>
  <variable_vector id="vv0"><variable_state name="x" value="0"/></variable_vector>
  <dbm_instance id="d0"/>
  <dbm_instance id="d1"/>
  <node id="n0" location_vector_id="lv0" dbm_instance_id="d0" variable_vector_id="vv0"/>
  <node id="n1" location_vector_id="lv1" dbm_instance_id="d1" variable_vector_id="vv0"/>
  <transition source="n0" target="n1">
    <edge proc="P0" id="e1"/>
  </transition>
</trace>`)

	tr, err := ParseXML(doc, nil)
	if err != nil {
		t.Fatalf("ParseXML: %v", err)
	}
	if tr.Init == nil {
		t.Fatal("expected an initial state")
	}
	if tr.Init.Locs["P0"] != "idle" {
		t.Errorf("expected initial location idle, got %q", tr.Init.Locs["P0"])
	}
	if len(tr.Transitions) != 1 {
		t.Fatalf("expected 1 transition, got %d", len(tr.Transitions))
	}
	if tr.Transitions[0].Target.Locs["P0"] != "busy" {
		t.Errorf("expected target location busy, got %q", tr.Transitions[0].Target.Locs["P0"])
	}
	if tr.Transitions[0].TriggeredEdges["P0"] != "0" {
		t.Errorf("expected triggered edge original index 0, got %q", tr.Transitions[0].TriggeredEdges["P0"])
	}
}
