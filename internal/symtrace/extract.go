package symtrace

import (
	"math/rand"

	"github.com/tamatch/tamatch/internal/dbm"
	"github.com/tamatch/tamatch/internal/xerrors"
)

// TimePolicy picks the concrete leaving time within a delay interval when
// extracting a deterministic trace from a symbolic one.
type TimePolicy int

const (
	PolicyMin TimePolicy = iota
	PolicyMax
	PolicyRandom
)

const (
	clockTG = "_TG" // global elapsed-time clock, never reset
	clockTR = "_TR" // per-transition clock, reset on every move
)

// ConcreteState is one step of the extracted deterministic trace: the
// symbolic state it came from, plus the single global time (_TG value) at
// which the run leaves it. The initial state carries time 0.
type ConcreteState struct {
	*State
	Time int64
}

// ConcreteTrace is the result of extraction: an initial concrete state and
// one concrete state per transition of the source symbolic trace.
type ConcreteTrace struct {
	Init  *ConcreteState
	Steps []*ConcreteState
}

// Extract walks tr and picks a single concrete time for every transition,
// following the source's deviation interval. Every transition must carry a
// delay_state intermediate: the zone after the edge's guard held but before
// its resets applied, which only a trace built by pairing a trace
// generator's split guard/update sub-edges (internal/tracegen) can supply —
// a matcher-witness trace's states are all post-reset and must not be fed
// here. At each step it:
//
//  1. intersects the transition's delay_state zone with the source state's
//     own zone, restricted to the guard clocks moving;
//  2. reads the admissible [min,max] interval for _TG and picks a leaving
//     time tau per policy;
//  3. conjugates a pre-delay copy of the source zone with _TG <= tau and
//     asserts it is still included in the source zone;
//  4. delays that copy to get the post-delay (pre-transition) state;
//  5. identifies which clocks the transition resets by checking, in the
//     target zone, whether M[idx(c)][idx(_TR)] and M[idx(_TR)][idx(c)] are
//     both (0, <=);
//  6. conjugates the post-delay copy with _TG >= tau;
//  7. applies the identified resets;
//  8. applies DelayFuture to re-open the zone for the next step;
//  9. intersects with the target's own zone and asserts inclusion holds.
//
// Any violated assertion fails extraction with xerrors.ExtractionFailed
// naming the step.
func Extract(tr *Trace, policy TimePolicy) (*ConcreteTrace, error) {
	if tr.Init == nil {
		return nil, &xerrors.ExtractionFailed{Step: xerrors.StepIntersectGuard, Reason: "trace has no initial state"}
	}

	out := &ConcreteTrace{Init: &ConcreteState{State: tr.Init, Time: 0}}
	current := tr.Init

	for _, step := range tr.Transitions {
		cs, next, err := extractStep(current, step, policy)
		if err != nil {
			return nil, err
		}
		out.Steps = append(out.Steps, cs)
		current = next
	}
	return out, nil
}

func extractStep(source *State, step *Transition, policy TimePolicy) (*ConcreteState, *State, error) {
	target := step.Target

	delayState := step.Intermediate["delay_state"]
	if delayState == nil {
		return nil, nil, &xerrors.ExtractionFailed{Step: xerrors.StepIntersectGuard, Reason: "transition has no delay_state intermediate"}
	}

	guardZone, err := source.DBM.Intersect(delayState.DBM)
	if err != nil {
		return nil, nil, &xerrors.ExtractionFailed{Step: xerrors.StepIntersectGuard, Reason: err.Error()}
	}

	lowVal, _, highVal, _, err := guardZone.Interval(clockTG)
	if err != nil {
		return nil, nil, &xerrors.ExtractionFailed{Step: xerrors.StepIntersectGuard, Reason: err.Error()}
	}
	tau := pickTime(lowVal, highVal, policy)

	preDelay, err := source.DBM.Conjugate(clockTG, "", dbm.RelLe, tau)
	if err != nil {
		return nil, nil, &xerrors.ExtractionFailed{Step: xerrors.StepConjugateLeave, Reason: err.Error()}
	}
	if !source.DBM.Includes(preDelay) {
		return nil, nil, &xerrors.ExtractionFailed{Step: xerrors.StepConjugateLeave, Reason: "source zone does not include the restricted pre-delay zone"}
	}

	postDelay := preDelay.DelayFuture()

	resets := identifyResets(target.DBM)

	postGuard, err := postDelay.Conjugate("", clockTG, dbm.RelLe, -tau)
	if err != nil {
		return nil, nil, &xerrors.ExtractionFailed{Step: xerrors.StepConjugateArrive, Reason: err.Error()}
	}

	reset := postGuard
	for _, c := range resets {
		reset, err = reset.Reset(c)
		if err != nil {
			return nil, nil, &xerrors.ExtractionFailed{Step: xerrors.StepApplyResets, Reason: err.Error()}
		}
	}

	delayed := reset.DelayFuture()

	finalZone, err := delayed.Intersect(target.DBM)
	if err != nil {
		return nil, nil, &xerrors.ExtractionFailed{Step: xerrors.StepIntersectTarget, Reason: err.Error()}
	}
	if !target.DBM.Includes(finalZone) {
		return nil, nil, &xerrors.ExtractionFailed{Step: xerrors.StepIntersectTarget, Reason: "target zone does not include the extracted zone"}
	}

	concreteTarget := &State{Locs: target.Locs, Vars: target.Vars, DBM: finalZone}
	return &ConcreteState{State: source, Time: tau}, concreteTarget, nil
}

// identifyResets finds every clock the target zone reports as freshly reset:
// its distance to _TR is exactly (0, <=), meaning the two advanced together
// from the same zero point.
func identifyResets(target *dbm.DBM) []string {
	// emptied reports whether adding c1 - c2 < 0 empties the zone, i.e.
	// whether c2 - c1 <= 0 already holds throughout it.
	emptied := func(c1, c2 string) bool {
		_, err := target.Conjugate(c1, c2, dbm.RelLt, 0)
		de, ok := err.(*xerrors.DBMError)
		return ok && de.Kind == xerrors.DBMEmptyAfterClose
	}
	var resets []string
	for _, c := range target.Clocks {
		if c == clockTR {
			continue
		}
		if emptied(clockTR, c) && emptied(c, clockTR) {
			resets = append(resets, c)
		}
	}
	return resets
}

func pickTime(low, high int64, policy TimePolicy) int64 {
	switch policy {
	case PolicyMax:
		return high
	case PolicyRandom:
		if high <= low {
			return low
		}
		return low + rand.Int63n(high-low+1)
	default:
		return low
	}
}
