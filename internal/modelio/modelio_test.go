package modelio

import "testing"

const sampleYAML = `
clocks: [x]
templates:
  - name: Light
    locations:
      - name: idle
      - name: busy
        clock_upper_bounds: {x: 10}
    edges:
      - source: idle
        target: busy
        sync: "go!"
        resets: [x]
      - source: busy
        target: idle
        clock_guards:
          - {clock: x, op: ">=", value: 5}
instantiations:
  - {name: P1, template: Light}
process_groups:
  - [P1]
`

func TestBuild_ConstructsTemplateLocationsAndEdges(t *testing.T) {
	d, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sys, err := Build(d)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	tmpl := sys.GetTemplateByName("Light")
	if tmpl == nil {
		t.Fatal("expected Light template")
	}
	if len(tmpl.Locations()) != 2 {
		t.Fatalf("expected 2 locations, got %d", len(tmpl.Locations()))
	}
	if len(tmpl.Edges()) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(tmpl.Edges()))
	}
	busy := tmpl.GetLocationByName("busy")
	if len(busy.Invariants) != 1 {
		t.Errorf("expected busy to carry 1 invariant, got %d", len(busy.Invariants))
	}
	if len(sys.Instantiations) != 1 || len(sys.ProcessGroups) != 1 {
		t.Error("expected the instantiation and process group to carry through")
	}
}

func TestBuild_RejectsUnknownEdgeEndpoint(t *testing.T) {
	d, err := Parse([]byte(`
templates:
  - name: T
    locations: [{name: a}]
    edges:
      - {source: a, target: nowhere}
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := Build(d); err == nil {
		t.Error("expected an error for an edge referencing an unknown location")
	}
}

func TestBuild_RejectsTemplateWithNoLocations(t *testing.T) {
	d, err := Parse([]byte(`templates: [{name: Empty}]`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := Build(d); err == nil {
		t.Error("expected an error for a template with no locations")
	}
}
