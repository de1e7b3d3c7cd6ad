// Package symtrace holds symbolic timed-automata traces, ingests
// model-checker trace XML into that shape, and extracts a deterministic
// (single-time) concrete trace from a symbolic one via DBM operations.
package symtrace

import "github.com/tamatch/tamatch/internal/dbm"

// State is one symbolic state of a run: per-process locations, the clock
// zone, and integer variable valuations.
type State struct {
	Locs map[string]string // proc id -> location name
	DBM  *dbm.DBM
	Vars map[string]int64
}

// Includes reports whether s includes other: same locations and variables
// pointwise, and s.DBM includes other.DBM.
func (s *State) Includes(other *State) bool {
	if len(s.Locs) != len(other.Locs) || len(s.Vars) != len(other.Vars) {
		return false
	}
	for proc, loc := range s.Locs {
		if other.Locs[proc] != loc {
			return false
		}
	}
	for name, val := range s.Vars {
		if other.Vars[name] != val {
			return false
		}
	}
	return s.DBM.Includes(other.DBM)
}

// Transition is one step of a symbolic run: the pre/post state, the
// generator's intermediate (pre-delay) states keyed by name, and the edge
// each process fired.
type Transition struct {
	Source         *State
	Target         *State
	Intermediate   map[string]*State
	TriggeredEdges map[string]string // proc id -> original edge index, in decimal
}

// Trace is a full symbolic run.
type Trace struct {
	Init        *State
	Transitions []*Transition
}
