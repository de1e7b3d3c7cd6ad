package tracegen

import (
	"strconv"

	"github.com/tamatch/tamatch/internal/symtrace"
	"github.com/tamatch/tamatch/internal/xerrors"
)

// PairTransitions folds a raw trace-generator run back into one symbolic
// transition per original edge firing. Build's split turns every original
// edge into a guard half (ending at a committed helper, recorded raw as one
// transition) immediately followed by an update half (ending at the real
// target, recorded as the next transition); verifyta never stops at a
// committed location, so the two always appear back to back in the raw
// trace. Pairing transition 2i with 2i+1 recovers the guard half's target
// as the pair's delay_state intermediate, the zone symtrace.Extract needs
// and a witness trace walked through the matcher product can never supply.
//
// It also recovers, for each pair, the edge-index schedule a caller can
// feed to internal/simulator to replay the same run deterministically
// against the unmodified model: a guard half's TriggeredEdges entry is its
// 0-based position in its template's rendered edge list (see Build's
// package doc), always even, so position/2 is the original edge's ordinal.
// instanceIndex maps each firing process's instance name to its column in
// the schedule; a process absent from a step's row is recorded as -1,
// matching internal/simulator's "did not move" convention.
func PairTransitions(raw *symtrace.Trace, instanceIndex map[string]int) (*symtrace.Trace, [][]int, error) {
	if len(raw.Transitions)%2 != 0 {
		return nil, nil, &xerrors.BackendError{
			Kind:    xerrors.BackendMalformedOutput,
			Details: "trace generator run has an odd number of transitions, so its guard/update halves cannot be paired",
		}
	}

	steps := len(raw.Transitions) / 2
	out := &symtrace.Trace{Init: raw.Init}
	schedule := make([][]int, steps)

	for i := 0; i < steps; i++ {
		guardHalf := raw.Transitions[2*i]
		updateHalf := raw.Transitions[2*i+1]

		row := make([]int, len(instanceIndex))
		for col := range row {
			row[col] = -1
		}
		for proc, posStr := range guardHalf.TriggeredEdges {
			pos, err := strconv.Atoi(posStr)
			if err != nil {
				return nil, nil, &xerrors.BackendError{Kind: xerrors.BackendMalformedOutput, Details: "non-numeric triggered edge position: " + posStr}
			}
			if col, ok := instanceIndex[proc]; ok {
				row[col] = pos / 2
			}
		}
		schedule[i] = row

		out.Transitions = append(out.Transitions, &symtrace.Transition{
			Source:         guardHalf.Source,
			Target:         updateHalf.Target,
			Intermediate:   map[string]*symtrace.State{"delay_state": guardHalf.Target},
			TriggeredEdges: updateHalf.TriggeredEdges,
		})
	}
	return out, schedule, nil
}
