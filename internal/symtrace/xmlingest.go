package symtrace

import (
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tamatch/tamatch/internal/dbm"
	"github.com/tamatch/tamatch/internal/ntamodel"
	"github.com/tamatch/tamatch/internal/xerrors"
)

// xmlTrace mirrors the back-end trace XML shape:
// system/(clock|variable|process/(clock|variable|edge/update)),
// location_vector, variable_vector/variable_state, node,
// dbm_instance/clockbound, transition.
type xmlTrace struct {
	XMLName xml.Name      `xml:"trace"`
	System  xmlSystem     `xml:"system"`
	LocVecs []xmlLocVec   `xml:"location_vector"`
	VarVecs []xmlVarVec   `xml:"variable_vector"`
	DBMs    []xmlDBM      `xml:"dbm_instance"`
	Nodes   []xmlNode     `xml:"node"`
	Trans   []xmlTransXML `xml:"transition"`
}

type xmlSystem struct {
	Clocks    []xmlNamed    `xml:"clock"`
	Variables []xmlNamed    `xml:"variable"`
	Processes []xmlProcess  `xml:"process"`
}

type xmlNamed struct {
	Name string `xml:"name,attr"`
}

type xmlProcess struct {
	Name      string     `xml:"name,attr"`
	Clocks    []xmlNamed `xml:"clock"`
	Variables []xmlNamed `xml:"variable"`
	Edges     []xmlEdgeRef `xml:"edge"`
}

type xmlEdgeRef struct {
	UniqueID string `xml:"id,attr"`
	Original int    `xml:"original_index,attr"`
}

type xmlLocVec struct {
	ID    string     `xml:"id,attr"`
	Procs []xmlLocEntry `xml:"loc"`
}

type xmlLocEntry struct {
	Proc string `xml:"proc,attr"`
	Name string `xml:"name,attr"`
}

type xmlVarVec struct {
	ID     string           `xml:"id,attr"`
	States []xmlVarState `xml:"variable_state"`
}

type xmlVarState struct {
	Name  string `xml:"name,attr"`
	Value int64  `xml:"value,attr"`
}

type xmlDBM struct {
	ID     string          `xml:"id,attr"`
	Bounds []xmlClockBound `xml:"clockbound"`
}

type xmlClockBound struct {
	Clock1 string `xml:"clock1,attr"`
	Clock2 string `xml:"clock2,attr"`
	Bound  string `xml:"bound,attr"`
	Comp   string `xml:"comp,attr"`
}

type xmlNode struct {
	ID        string `xml:"id,attr"`
	LocVecID  string `xml:"location_vector_id,attr"`
	DBMID     string `xml:"dbm_instance_id,attr"`
	VarVecID  string `xml:"variable_vector_id,attr"`
}

type xmlTransXML struct {
	SourceID string             `xml:"source,attr"`
	TargetID string             `xml:"target,attr"`
	Edges    []xmlTriggeredEdge `xml:"edge"`
}

type xmlTriggeredEdge struct {
	Proc     string `xml:"proc,attr"`
	UniqueID string `xml:"id,attr"`
}

// ParseXML ingests back-end trace XML and builds a Trace. Triggered edges
// are resolved to their original_index through each process's edge list in
// the XML itself. When tmpl is non-nil, every location name (after its
// ordinal __k suffix is stripped) must exist in tmpl.
func ParseXML(data []byte, tmpl *ntamodel.Template) (*Trace, error) {
	var doc xmlTrace
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &xerrors.BackendError{Kind: xerrors.BackendMalformedOutput, Details: err.Error()}
	}

	clockOrder := make([]string, len(doc.System.Clocks))
	for i, c := range doc.System.Clocks {
		clockOrder[i] = c.Name
	}

	locVecByID := map[string]xmlLocVec{}
	for _, lv := range doc.LocVecs {
		locVecByID[lv.ID] = lv
	}
	varVecByID := map[string]xmlVarVec{}
	for _, vv := range doc.VarVecs {
		varVecByID[vv.ID] = vv
	}
	dbmByID := map[string]xmlDBM{}
	for _, d := range doc.DBMs {
		dbmByID[d.ID] = d
	}

	edgeOriginalByUniqueID := map[string]map[string]int{} // proc -> unique id -> original index
	for _, p := range doc.System.Processes {
		m := map[string]int{}
		for _, e := range p.Edges {
			m[e.UniqueID] = e.Original
		}
		edgeOriginalByUniqueID[p.Name] = m
	}

	stateByNodeID := map[string]*State{}
	for _, n := range doc.Nodes {
		s, err := buildState(n, locVecByID, varVecByID, dbmByID, clockOrder)
		if err != nil {
			return nil, err
		}
		if tmpl != nil {
			if err := validateLocations(s, tmpl); err != nil {
				return nil, err
			}
		}
		stateByNodeID[n.ID] = s
	}

	if len(doc.Nodes) == 0 {
		return nil, &xerrors.BackendError{Kind: xerrors.BackendMalformedOutput, Details: "trace XML has no nodes"}
	}
	trace := &Trace{Init: stateByNodeID[doc.Nodes[0].ID]}

	for _, tr := range doc.Trans {
		triggered := map[string]string{}
		for _, e := range tr.Edges {
			if orig, ok := edgeOriginalByUniqueID[e.Proc][e.UniqueID]; ok {
				triggered[e.Proc] = fmt.Sprintf("%d", orig)
			}
		}
		trace.Transitions = append(trace.Transitions, &Transition{
			Source:         stateByNodeID[tr.SourceID],
			Target:         stateByNodeID[tr.TargetID],
			TriggeredEdges: triggered,
		})
	}

	return trace, nil
}

// buildState reconstructs a State for node n, stripping any trailing
// ordinal __k suffix from every location name.
func buildState(n xmlNode, locVecs map[string]xmlLocVec, varVecs map[string]xmlVarVec, dbms map[string]xmlDBM, clockOrder []string) (*State, error) {
	locs := map[string]string{}
	if lv, ok := locVecs[n.LocVecID]; ok {
		for _, entry := range lv.Procs {
			locs[entry.Proc] = stripOrdinalSuffix(entry.Name)
		}
	}

	vars := map[string]int64{}
	if vv, ok := varVecs[n.VarVecID]; ok {
		for _, vs := range vv.States {
			vars[vs.Name] = vs.Value
		}
	}

	d := dbms[n.DBMID]
	mat := dbm.NewUnconstrained(clockOrder)
	for _, cb := range d.Bounds {
		if cb.Clock1 == "T0_REF" && cb.Clock2 == "T0_REF" {
			continue
		}
		val, err := parseBound(cb.Bound)
		if err != nil {
			return nil, &xerrors.BackendError{Kind: xerrors.BackendMalformedOutput, Details: err.Error()}
		}
		rel := dbm.RelLe
		if cb.Comp == "<" {
			rel = dbm.RelLt
		}
		c1, c2 := resolveClockName(cb.Clock1), resolveClockName(cb.Clock2)
		var err2 error
		mat, err2 = mat.Conjugate(c1, c2, rel, val)
		if err2 != nil {
			return nil, &xerrors.BackendError{Kind: xerrors.BackendMalformedOutput, Details: err2.Error()}
		}
	}

	return &State{Locs: locs, DBM: mat, Vars: vars}, nil
}

func resolveClockName(name string) string {
	if name == "T0_REF" {
		return ""
	}
	return name
}

func parseBound(s string) (int64, error) {
	switch s {
	case "inf":
		return math.MaxInt64, nil
	case "-inf":
		return math.MinInt64, nil
	default:
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("symtrace: invalid bound %q: %w", s, err)
		}
		return v, nil
	}
}

// validateLocations checks that every location name in s exists in tmpl,
// catching ordinal-suffix stripping bugs and malformed trace XML early
// rather than letting a typo'd location name silently mismatch later.
func validateLocations(s *State, tmpl *ntamodel.Template) error {
	for proc, loc := range s.Locs {
		if tmpl.GetLocationByName(loc) == nil {
			return &xerrors.BackendError{
				Kind:    xerrors.BackendMalformedOutput,
				Details: fmt.Sprintf("process %s: location %q not found in template %s", proc, loc, tmpl.Name),
			}
		}
	}
	return nil
}

// stripOrdinalSuffix removes a trailing "__<digits>" ordinal used to
// disambiguate location names.
func stripOrdinalSuffix(name string) string {
	idx := strings.LastIndex(name, "__")
	if idx < 0 {
		return name
	}
	suffix := name[idx+2:]
	if suffix == "" {
		return name
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return name
		}
	}
	return name[:idx]
}
