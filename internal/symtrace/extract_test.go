package symtrace

import (
	"testing"

	"github.com/tamatch/tamatch/internal/dbm"
)

func clocksFor(clocks ...string) *dbm.DBM {
	return dbm.NewUnconstrained(clocks)
}

func TestExtract_SingleTransitionPicksTimeWithinInterval(t *testing.T) {
	clocks := []string{clockTG, clockTR}

	source := &State{
		Locs: map[string]string{"P": "idle"},
		Vars: map[string]int64{},
		DBM:  clocksFor(clocks...),
	}

	targetDBM := dbm.NewUnconstrained(clocks)
	targetDBM, err := targetDBM.Conjugate(clockTG, "", dbm.RelLe, 10)
	if err != nil {
		t.Fatalf("setup conjugate: %v", err)
	}
	target := &State{
		Locs: map[string]string{"P": "busy"},
		Vars: map[string]int64{},
		DBM:  targetDBM,
	}

	tr := &Trace{
		Init: source,
		Transitions: []*Transition{
			{
				Source:         source,
				Target:         target,
				Intermediate:   map[string]*State{"delay_state": target},
				TriggeredEdges: map[string]string{"P": "0"},
			},
		},
	}

	out, err := Extract(tr, PolicyMin)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(out.Steps) != 1 {
		t.Fatalf("expected 1 concrete step, got %d", len(out.Steps))
	}
	if out.Steps[0].Time < 0 {
		t.Errorf("expected a non-negative leaving time, got %d", out.Steps[0].Time)
	}
	if out.Init.Time != 0 {
		t.Errorf("expected the initial concrete state to be at time 0, got %d", out.Init.Time)
	}
}

func TestExtract_MaxPolicyPicksUpperBound(t *testing.T) {
	clocks := []string{clockTG, clockTR}
	source := &State{Locs: map[string]string{}, Vars: map[string]int64{}, DBM: clocksFor(clocks...)}

	targetDBM, err := dbm.NewUnconstrained(clocks).Conjugate(clockTG, "", dbm.RelLe, 5)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	target := &State{Locs: map[string]string{}, Vars: map[string]int64{}, DBM: targetDBM}

	tr := &Trace{
		Init:        source,
		Transitions: []*Transition{{Source: source, Target: target, Intermediate: map[string]*State{"delay_state": target}}},
	}

	outMin, err := Extract(tr, PolicyMin)
	if err != nil {
		t.Fatalf("Extract(min): %v", err)
	}
	outMax, err := Extract(tr, PolicyMax)
	if err != nil {
		t.Fatalf("Extract(max): %v", err)
	}
	if outMax.Steps[0].Time < outMin.Steps[0].Time {
		t.Errorf("expected max-policy time >= min-policy time, got max=%d min=%d", outMax.Steps[0].Time, outMin.Steps[0].Time)
	}
}

func TestExtract_FailsWithoutDelayStateIntermediate(t *testing.T) {
	clocks := []string{clockTG, clockTR}
	source := &State{Locs: map[string]string{}, Vars: map[string]int64{}, DBM: clocksFor(clocks...)}
	target := &State{Locs: map[string]string{}, Vars: map[string]int64{}, DBM: clocksFor(clocks...)}

	tr := &Trace{
		Init:        source,
		Transitions: []*Transition{{Source: source, Target: target}},
	}

	if _, err := Extract(tr, PolicyMin); err == nil {
		t.Fatal("expected extraction to fail without a delay_state intermediate")
	}
}

func TestState_IncludesChecksLocsVarsAndDBM(t *testing.T) {
	clocks := []string{clockTG}
	wide := &State{Locs: map[string]string{"P": "idle"}, Vars: map[string]int64{"x": 1}, DBM: clocksFor(clocks...)}
	narrowDBM, err := dbm.NewUnconstrained(clocks).Conjugate(clockTG, "", dbm.RelLe, 3)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	narrow := &State{Locs: map[string]string{"P": "idle"}, Vars: map[string]int64{"x": 1}, DBM: narrowDBM}

	if !wide.Includes(narrow) {
		t.Error("expected the unconstrained state to include the tighter one")
	}

	diffLoc := &State{Locs: map[string]string{"P": "busy"}, Vars: map[string]int64{"x": 1}, DBM: narrowDBM}
	if wide.Includes(diffLoc) {
		t.Error("expected Includes to fail on differing locations")
	}
}
