// Package simulator implements the transition-simulator model
// transformation: given a fixed edge-index schedule, it
// constrains every original edge to fire only when the schedule says so,
// turning a model into a deterministic replay of a previously recorded run.
package simulator

import (
	"github.com/tamatch/tamatch/internal/ast"
	"github.com/tamatch/tamatch/internal/astbuild"
	"github.com/tamatch/tamatch/internal/ntamodel"
)

// Schedule is TR[step][instance] the transition simulator replays: the edge index each
// instance must take at each step (-1 if that instance does not move).
type Schedule [][]int

// Builder transforms a preprocessed model into its transition-simulator
// variant for a fixed Schedule.
type Builder struct {
	Schedule Schedule
}

// Build mutates m in place and returns it for chaining. instanceIndex maps
// a template's name to its column in Schedule; templates absent from it are
// left unconstrained.
func (b Builder) Build(m *ntamodel.System, instanceIndex map[string]int) *ntamodel.System {
	steps := len(b.Schedule)
	m.GlobalDecl.Decls = append(m.GlobalDecl.Decls,
		astbuild.InitDecl(astbuild.IntType(), "TR_idx", astbuild.Int(0)),
		astbuild.InitDecl(astbuild.BoolType(), "initialized", astbuild.Bool(false)))

	instCount := 0
	for _, v := range instanceIndex {
		if v+1 > instCount {
			instCount = v + 1
		}
	}
	rows := make([]ast.Expr, steps)
	for s, row := range b.Schedule {
		vals := make([]ast.Expr, instCount)
		for i := range vals {
			vals[i] = astbuild.Int(-1)
		}
		for i, v := range row {
			if i < instCount {
				vals[i] = astbuild.Int(int64(v))
			}
		}
		rows[s] = &ast.InitialiserArray{Vals: vals}
	}
	m.GlobalDecl.Decls = append(m.GlobalDecl.Decls, &ast.VariableDecls{
		Type: astbuild.IntType(),
		VarData: []*ast.VariableID{{
			VarName:   "TR",
			ArrayDecl: []ast.Expr{astbuild.Int(int64(steps)), astbuild.Int(int64(instCount))},
			InitData:  &ast.InitialiserArray{Vals: rows},
		}},
	})

	templates := m.Templates()
	if len(templates) > 0 {
		addInitHelper(templates[0])
	}

	for _, t := range templates {
		instID, ok := instanceIndex[t.Name]
		if !ok {
			continue
		}
		ordinal := 0
		for _, e := range t.Edges() {
			idxExpr := astbuild.ArrayIndex(
				astbuild.ArrayIndex(astbuild.Var("TR"), astbuild.Var("TR_idx")),
				astbuild.Int(int64(instID)))
			e.VariableGuards = append(e.VariableGuards,
				astbuild.And(
					astbuild.Bin(ast.OpEq, idxExpr, astbuild.Int(int64(ordinal))),
					astbuild.Var("initialized"),
				))
			if e.Sync == "" || e.Sync[len(e.Sync)-1] != '?' {
				e.Updates = append(e.Updates,
					astbuild.Assign(astbuild.Var("TR_idx"), astbuild.Bin(ast.OpAdd, astbuild.Var("TR_idx"), astbuild.Int(1))))
			}
			ordinal++
		}
	}

	m.Queries = []ast.Query{&ast.PropExists{Inner: &ast.PropFinally{Inner: &ast.QExpr{
		Expr: astbuild.And(astbuild.Var("initialized"),
			astbuild.Bin(ast.OpEq, astbuild.Var("TR_idx"), astbuild.Int(int64(steps)))),
	}}}}
	return m
}

// addInitHelper adds a committed initial location __h to t whose only
// outgoing edge sets initialized := true, as the very first location any
// run of the simulator must pass through.
func addInitHelper(t *ntamodel.Template) {
	locs := t.Locations()
	if len(locs) == 0 {
		return
	}
	helper := t.NewLocation("__h")
	helper.Committed = true
	t.AddEdge(&ntamodel.Edge{
		Source:  helper.ID,
		Target:  locs[0].ID,
		Updates: []ast.Expr{astbuild.Assign(astbuild.Var("initialized"), astbuild.Bool(true))},
	})
}
