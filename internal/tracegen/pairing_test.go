package tracegen

import (
	"testing"

	"github.com/tamatch/tamatch/internal/dbm"
	"github.com/tamatch/tamatch/internal/symtrace"
)

func TestPairTransitions_FoldsGuardAndUpdateHalvesIntoOneStepWithDelayState(t *testing.T) {
	zone := dbm.NewUnconstrained([]string{"_TG", "_TR"})

	init := &symtrace.State{Locs: map[string]string{"P1": "idle"}, DBM: zone}
	committed := &symtrace.State{Locs: map[string]string{"P1": "__h_0"}, DBM: zone}
	busy := &symtrace.State{Locs: map[string]string{"P1": "busy"}, DBM: zone}

	raw := &symtrace.Trace{
		Init: init,
		Transitions: []*symtrace.Transition{
			{Source: init, Target: committed, TriggeredEdges: map[string]string{"P1": "0"}},
			{Source: committed, Target: busy, TriggeredEdges: map[string]string{"P1": "1"}},
		},
	}

	paired, schedule, err := PairTransitions(raw, map[string]int{"P1": 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paired.Transitions) != 1 {
		t.Fatalf("expected 1 paired transition, got %d", len(paired.Transitions))
	}
	step := paired.Transitions[0]
	if step.Target != busy {
		t.Error("expected the paired transition's target to be the update half's target")
	}
	if step.Intermediate["delay_state"] != committed {
		t.Error("expected the paired transition's delay_state to be the guard half's target")
	}

	if len(schedule) != 1 || len(schedule[0]) != 1 || schedule[0][0] != 0 {
		t.Fatalf("expected schedule [[0]], got %v", schedule)
	}
}

func TestPairTransitions_RejectsOddTransitionCount(t *testing.T) {
	zone := dbm.NewUnconstrained([]string{"_TG"})
	s := &symtrace.State{Locs: map[string]string{}, DBM: zone}
	raw := &symtrace.Trace{
		Init:        s,
		Transitions: []*symtrace.Transition{{Source: s, Target: s, TriggeredEdges: map[string]string{}}},
	}
	if _, _, err := PairTransitions(raw, map[string]int{}); err == nil {
		t.Fatal("expected an error for an odd number of transitions")
	}
}
