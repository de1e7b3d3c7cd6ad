// Package matcherbuild constructs the matcher product automaton that
// encodes an observation sequence as a reachability property.
// Two builders are provided: ExtendedBuilder (the full
// feature-flagged construction) and RawBuilder (the infrastructure-free
// chain-of-locations alternative).
package matcherbuild

import (
	"fmt"

	"github.com/tamatch/tamatch/internal/ast"
	"github.com/tamatch/tamatch/internal/astbuild"
	"github.com/tamatch/tamatch/internal/ntamodel"
	"github.com/tamatch/tamatch/internal/xerrors"
)

// DataPoint is one entry of an observation sequence. JSON tags give it a
// stable wire shape for callers outside this module, such as
// pkg/matchsvc's structpb-encoded request field.
type DataPoint struct {
	Time int64                       `json:"time"`
	Vars map[string]*int64           `json:"vars,omitempty"` // nil value = unobserved
	Locs map[string]*LocObservation  `json:"locs,omitempty"`
}

// LocObservation is the per-process location observation within a DataPoint.
type LocObservation struct {
	Name        *string `json:"name"` // nil = unobserved
	IsCommitted bool    `json:"is_committed,omitempty"`
}

// Flags are the matcher configuration flags used to select and instrument the matcher variant.
type Flags struct {
	SupportLocationMatching  bool
	SupportCommittedMatching bool
	SupportShiftedMatching   bool
	SupportPartialMatching   bool
	AllowedDeviations        map[string]int
	MaximumInitialDelay      int
}

const unnamedLoc = -1
const obsNoValueSentinel = int64(-1 << 31) // NOB sentinel for a missing observation

// ExtendedBuilder constructs the full feature-flagged matcher model.
type ExtendedBuilder struct {
	Flags Flags
}

// Build returns the augmented system: m (a preprocessed model, already a
// private copy safe to mutate) plus the observation O, instrumented per
// this builder's preparation and finalization steps.
func (b *ExtendedBuilder) Build(m *ntamodel.System, obs []DataPoint) (*ntamodel.System, error) {
	templates := m.Templates()
	if len(templates) == 0 {
		return nil, &xerrors.TransformError{Stage: xerrors.StageMatcherBuild, Details: "model has no templates"}
	}

	instCount := len(templates)
	m.GlobalDecl.Decls = append(m.GlobalDecl.Decls, astbuild.ConstInt("INST_COUNT", int64(instCount)))

	instIDs := map[string]int{}
	for i, t := range templates {
		name := fmt.Sprintf("%s_ID", t.Name)
		instIDs[t.Name] = i
		m.GlobalDecl.Decls = append(m.GlobalDecl.Decls, astbuild.ConstInt(name, int64(i)))
	}

	locIDs := map[string]map[string]int{} // template name -> loc name -> numeric id
	if b.Flags.SupportLocationMatching {
		initLocs := make([]ast.Expr, instCount)
		for ti, t := range templates {
			ids := map[string]int{}
			k := 0
			for _, loc := range t.Locations() {
				if loc.Name == "" {
					continue
				}
				ids[loc.Name] = k
				m.GlobalDecl.Decls = append(m.GlobalDecl.Decls,
					astbuild.ConstInt(fmt.Sprintf("%s_%s", t.Name, loc.Name), int64(k)))
				k++
			}
			locIDs[t.Name] = ids

			initID := int64(unnamedLoc)
			if len(t.Locations()) > 0 {
				if id, ok := ids[t.Locations()[0].Name]; ok {
					initID = int64(id)
				}
			}
			initLocs[ti] = astbuild.Int(initID)

			for _, e := range t.Edges() {
				if e.Source == e.Target {
					continue
				}
				tgt := t.GetLocationByID(e.Target)
				if tgt == nil || tgt.Name == "" {
					continue
				}
				loc := astbuild.ArrayIndex(astbuild.Var("LOC"), astbuild.Int(int64(instIDs[t.Name])))
				e.Updates = append(e.Updates, astbuild.Assign(loc, astbuild.Int(int64(ids[tgt.Name]))))
			}
		}
		m.GlobalDecl.Decls = append(m.GlobalDecl.Decls, astbuild.IntArray("LOC", instCount, initLocs))
	}

	if b.Flags.SupportCommittedMatching {
		commInit := make([]ast.Expr, instCount)
		for ti := range commInit {
			commInit[ti] = astbuild.Bool(false)
		}
		m.GlobalDecl.Decls = append(m.GlobalDecl.Decls, astbuild.IntArray("COMM", instCount, commInit))
		for _, t := range templates {
			for _, e := range t.Edges() {
				if e.Source == e.Target {
					continue
				}
				tgt := t.GetLocationByID(e.Target)
				comm := astbuild.ArrayIndex(astbuild.Var("COMM"), astbuild.Int(int64(instIDs[t.Name])))
				e.Updates = append(e.Updates, astbuild.Assign(comm, astbuild.Bool(tgt != nil && tgt.Committed)))
			}
		}
		insertStepGates(templates)
	}

	n := len(obs)
	m.GlobalDecl.Decls = append(m.GlobalDecl.Decls, astbuild.ConstInt("OBS_COUNT", int64(n)))

	timeVals := make([]ast.Expr, n)
	for i, dp := range obs {
		timeVals[i] = astbuild.Int(dp.Time)
	}
	m.GlobalDecl.Decls = append(m.GlobalDecl.Decls, astbuild.ConstIntArray("OBS_time", n, timeVals))

	varNames := observedVarNames(obs)
	for _, v := range varNames {
		vals := make([]ast.Expr, n)
		hasVals := make([]ast.Expr, n)
		for i, dp := range obs {
			if val, ok := dp.Vars[v]; ok && val != nil {
				vals[i] = astbuild.Int(*val)
				hasVals[i] = astbuild.Bool(true)
			} else {
				vals[i] = astbuild.Int(obsNoValueSentinel)
				hasVals[i] = astbuild.Bool(false)
			}
		}
		m.GlobalDecl.Decls = append(m.GlobalDecl.Decls, astbuild.ConstIntArray("OBS_"+v, n, vals))
		if b.Flags.SupportPartialMatching {
			m.GlobalDecl.Decls = append(m.GlobalDecl.Decls, astbuild.ConstIntArray("HAS_OBS_"+v, n, hasVals))
		}
	}

	if b.Flags.SupportLocationMatching {
		for _, proc := range observedProcNames(obs) {
			vals := make([]ast.Expr, n)
			for i, dp := range obs {
				id := int64(unnamedLoc)
				if lo, ok := dp.Locs[proc]; ok && lo != nil && lo.Name != nil {
					if ids, ok := locIDs[proc]; ok {
						if v, ok := ids[*lo.Name]; ok {
							id = int64(v)
						}
					}
				}
				vals[i] = astbuild.Int(id)
			}
			m.GlobalDecl.Decls = append(m.GlobalDecl.Decls, astbuild.ConstIntArray("OBS_"+proc, n, vals))
		}
	}

	for name, dev := range b.Flags.AllowedDeviations {
		if dev > 0 {
			m.GlobalDecl.Decls = append(m.GlobalDecl.Decls, astbuild.ConstInt("DEV_"+name, int64(dev)))
		}
	}

	if b.Flags.SupportCommittedMatching {
		m.GlobalDecl.Decls = append(m.GlobalDecl.Decls,
			&ast.VariableDecls{Type: astbuild.ChanType("broadcast"), VarData: []*ast.VariableID{{VarName: "_step"}}},
			astbuild.InitDecl(astbuild.BoolType(), "_stepped", astbuild.Bool(true)))
	}
	if b.Flags.SupportShiftedMatching {
		m.GlobalDecl.Decls = append(m.GlobalDecl.Decls, astbuild.ConstInt("DELAY", int64(b.Flags.MaximumInitialDelay)))
	}

	matcher := buildMatcherTemplate(b.Flags, varNames, observedProcNames(obs), n)
	m.AddTemplate(matcher)
	m.Instantiations = append(m.Instantiations, &ntamodel.Instantiation{
		InstanceName: "Trace_Matcher",
		TemplateName: matcher.Name,
	})
	m.ProcessGroups = append(m.ProcessGroups, []string{"Trace_Matcher"})

	m.Queries = []ast.Query{&ast.PropExists{Inner: &ast.PropFinally{Inner: &ast.QExpr{
		Expr: &ast.BinaryExpr{Op: ast.OpDot, Left: astbuild.Var("Trace_Matcher"), Right: astbuild.Var("S")},
	}}}}

	return m, nil
}

// buildMatcherTemplate constructs the preauthored matcher template selected
// by (SupportShiftedMatching, SupportCommittedMatching), instantiated with
// an observation-count-sized waiting chain of locations m_0..m_n.
func buildMatcherTemplate(flags Flags, varNames, procNames []string, n int) *ntamodel.Template {
	t := ntamodel.NewTemplate(matcherTemplateName(flags))
	t.Decl.Decls = append(t.Decl.Decls,
		astbuild.PlainDecl(astbuild.ClockType(), "tt"),
		astbuild.InitDecl(astbuild.IntType(), "i", astbuild.Int(0)))
	t.Decl.Decls = append(t.Decl.Decls, checkVarsFunction(varNames, flags.SupportPartialMatching))
	if flags.SupportLocationMatching {
		t.Decl.Decls = append(t.Decl.Decls, checkLocsFunction(procNames, flags.SupportPartialMatching))
	}

	prev := t.NewLocation("m_0")
	if flags.SupportShiftedMatching {
		prev.Invariants = append(prev.Invariants, astbuild.Bin(ast.OpLe, astbuild.Var("tt"), astbuild.Var("DELAY")))
		shifted := t.NewLocation("m_0_shifted")
		t.AddEdge(&ntamodel.Edge{Source: prev.ID, Target: shifted.ID, Resets: []string{"tt"}})
		prev = shifted
	}
	for i := 0; i < n; i++ {
		wait := t.NewLocation(fmt.Sprintf("m_%d", i+1))
		e := t.AddEdge(&ntamodel.Edge{Source: prev.ID, Target: wait.ID})
		e.ClockGuards = append(e.ClockGuards, timeGuard(i, flags.AllowedDeviations["t"] > 0, false))
		e.VariableGuards = append(e.VariableGuards, astbuild.Bin(ast.OpLogAnd, checkVarsCall(), checkLocsCall(flags)))
		e.Updates = append(e.Updates, astbuild.Assign(astbuild.Var("i"), astbuild.Bin(ast.OpAdd, astbuild.Var("i"), astbuild.Int(1))))
		if flags.SupportCommittedMatching {
			e.Sync = "_step!"
		}
		prev.Invariants = append(prev.Invariants, timeGuard(i, flags.AllowedDeviations["t"] > 0, true))
		prev = wait
	}
	final := t.NewLocation("S")
	t.AddEdge(&ntamodel.Edge{Source: prev.ID, Target: final.ID})
	return t
}

// insertStepGates implements the committed-matching sync gate: every
// location-changing edge across every model template is split by a fresh
// urgent helper location, so the model sits one edge short of its real
// target the instant it moves. The helper only leaves on a "_step?"
// broadcast from the matcher's own advancing edge, and "_stepped" blocks any
// other model edge from firing while one helper is still waiting to be
// released, so exactly one model move settles between consecutive
// observation checks.
func insertStepGates(templates []*ntamodel.Template) {
	counter := 0
	for _, t := range templates {
		for _, e := range t.Edges() {
			if e.Source == e.Target {
				continue
			}
			helper := t.NewLocation(fmt.Sprintf("__h_%d", counter))
			counter++
			helper.Urgent = true
			realTarget := e.Target
			if tgt := t.GetLocationByID(realTarget); tgt != nil {
				tgt.InEdges = removeEdgeID(tgt.InEdges, e.ID)
			}
			helper.InEdges = append(helper.InEdges, e.ID)
			e.Target = helper.ID
			e.VariableGuards = append(e.VariableGuards, astbuild.Var("_stepped"))
			e.Updates = append(e.Updates, astbuild.Assign(astbuild.Var("_stepped"), astbuild.Bool(false)))
			t.AddEdge(&ntamodel.Edge{
				Source: helper.ID,
				Target: realTarget,
				Sync:   "_step?",
				Updates: []ast.Expr{
					astbuild.Assign(astbuild.Var("_stepped"), astbuild.Bool(true)),
				},
			})
		}
	}
}

func matcherTemplateName(f Flags) string {
	return selectVariant(f.SupportShiftedMatching, f.SupportCommittedMatching)
}

func timeGuard(i int, withDev, invariant bool) ast.Expr {
	obsTime := astbuild.ArrayIndex(astbuild.Var("OBS_time"), astbuild.Int(int64(i)))
	var bound ast.Expr = obsTime
	if withDev {
		bound = astbuild.Bin(ast.OpAdd, obsTime, astbuild.Var("DEV_t"))
	}
	op := ast.OpGe
	if invariant {
		op = ast.OpLe
	}
	return astbuild.Bin(op, astbuild.Var("tt"), bound)
}

func checkVarsCall() ast.Expr { return &ast.FuncCallExpr{FuncName: "check_vars"} }
func checkLocsCall(f Flags) ast.Expr {
	if !f.SupportLocationMatching {
		return astbuild.Bool(true)
	}
	return &ast.FuncCallExpr{FuncName: "check_locs"}
}

func checkVarsFunction(varNames []string, partial bool) *ast.Function {
	var conjuncts []ast.Expr
	for _, v := range varNames {
		obs := astbuild.ArrayIndex(astbuild.Var("OBS_"+v), astbuild.Var("i"))
		conjunct := astbuild.Bin(ast.OpEq, astbuild.Var(v), obs)
		if partial {
			has := astbuild.ArrayIndex(astbuild.Var("HAS_OBS_"+v), astbuild.Var("i"))
			conjunct = astbuild.Or(astbuild.Not(has), conjunct)
		}
		conjuncts = append(conjuncts, conjunct)
	}
	return &ast.Function{
		Type: astbuild.BoolType(),
		Name: "check_vars",
		Body: &ast.StatementBlock{Stmts: []ast.Stmt{&ast.ReturnStatement{Value: astbuild.And(conjuncts...)}}},
	}
}

func checkLocsFunction(procNames []string, partial bool) *ast.Function {
	var conjuncts []ast.Expr
	for _, p := range procNames {
		obs := astbuild.ArrayIndex(astbuild.Var("OBS_"+p), astbuild.Var("i"))
		loc := astbuild.ArrayIndex(astbuild.Var("LOC"), astbuild.Var(p+"_ID"))
		conjuncts = append(conjuncts, astbuild.Bin(ast.OpEq, loc, obs))
	}
	return &ast.Function{
		Type: astbuild.BoolType(),
		Name: "check_locs",
		Body: &ast.StatementBlock{Stmts: []ast.Stmt{&ast.ReturnStatement{Value: astbuild.And(conjuncts...)}}},
	}
}

func removeEdgeID(ids []string, target string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

func observedVarNames(obs []DataPoint) []string {
	seen := map[string]bool{}
	var out []string
	for _, dp := range obs {
		for name := range dp.Vars {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

func observedProcNames(obs []DataPoint) []string {
	seen := map[string]bool{}
	var out []string
	for _, dp := range obs {
		for name := range dp.Locs {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}
