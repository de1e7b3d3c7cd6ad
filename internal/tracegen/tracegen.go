// Package tracegen implements the trace-generator model transformation: it
// splits every edge into a guard half and an update half joined by a
// committed helper location, so every pre-delay DBM in a generated run is
// individually observable by the back-end trace dump.
package tracegen

import (
	"fmt"

	"github.com/tamatch/tamatch/internal/ast"
	"github.com/tamatch/tamatch/internal/astbuild"
	"github.com/tamatch/tamatch/internal/ntamodel"
)

// Builder transforms a preprocessed model into its trace-generator variant.
type Builder struct {
	StepCount int
}

// Build mutates m's templates in place, adds the global step-counting
// declarations, and rewrites the query, returning m for chaining.
//
// splitEdges always replaces a template's edges in its original pre-split
// order, appending each edge's guard half immediately followed by its
// update half; the rendered model therefore lists a template's edges as
// [guard_0, update_0, guard_1, update_1, ...]. A back-end trace reports
// which edge fired by its 0-based position in that same per-template list
// (see internal/symtrace's original_edge_idxs handling), so a guard half's
// reported position is always even and position/2 recovers the original
// edge's ordinal — see PairTransitions.
func (b Builder) Build(m *ntamodel.System) *ntamodel.System {
	m.GlobalDecl.Decls = append(m.GlobalDecl.Decls,
		astbuild.PlainDecl(astbuild.ClockType(), "_TG"),
		astbuild.PlainDecl(astbuild.ClockType(), "_TR"),
		astbuild.InitDecl(astbuild.IntType(), "_SC", astbuild.Int(0)),
		&ast.VariableDecls{Type: astbuild.ChanType("broadcast"), VarData: []*ast.VariableID{{VarName: "step"}}},
	)

	for _, t := range m.Templates() {
		splitEdges(t)
	}

	m.Queries = []ast.Query{&ast.PropExists{Inner: &ast.PropFinally{Inner: &ast.QExpr{
		Expr: astbuild.Bin(ast.OpEq, astbuild.Var("_SC"), astbuild.Int(int64(b.StepCount))),
	}}}}
	return m
}

// splitEdges rewrites every edge e: s -> t into e1: s -> __h_k (guards,
// selects; __h_k committed) and e2: __h_k -> t (updates, resets; the edge's
// sync becomes a step{op} rendezvous). Non-receiving
// edges (no sync, or a send sync) additionally increment _SC and reset _TR.
func splitEdges(t *ntamodel.Template) {
	for k, e := range t.Edges() {
		helper := t.NewLocation(fmt.Sprintf("__h_%d", k))
		helper.Committed = true

		e1 := &ntamodel.Edge{
			Source:         e.Source,
			Target:         helper.ID,
			ClockGuards:    e.ClockGuards,
			VariableGuards: e.VariableGuards,
			Selects:        e.Selects,
			Sync:           e.Sync,
		}
		for i, sel := range e.Selects {
			name := sel.VarData.VarName
			selVar := "sel_" + name
			t.Decl.Decls = append(t.Decl.Decls, astbuild.PlainDecl(astbuild.IntType(), selVar))
			e1.Updates = append(e1.Updates, astbuild.Assign(astbuild.Var(selVar), astbuild.Var(name)))
			e.Selects[i].VarData.VarName = name
		}

		isReceive := e.Sync != "" && e.Sync[len(e.Sync)-1] == '?'
		updates := append([]ast.Expr{}, e.Updates...)
		if !isReceive {
			updates = append(updates,
				astbuild.Assign(astbuild.Var("_SC"), astbuild.Bin(ast.OpAdd, astbuild.Var("_SC"), astbuild.Int(1))))
		}
		e2 := &ntamodel.Edge{
			Source:  helper.ID,
			Target:  e.Target,
			Updates: updates,
			Resets:  e.Resets,
			Sync:    "step" + syncOp(e.Sync),
		}
		if !isReceive {
			e2.Resets = append(e2.Resets, "_TR")
		}

		t.AddEdge(e1)
		t.AddEdge(e2)
		removeEdge(t, e.ID)
	}
}

func syncOp(sync string) string {
	if sync == "" {
		return ""
	}
	return sync[len(sync)-1:]
}

func removeEdge(t *ntamodel.Template, id string) {
	for _, l := range t.Locations() {
		l.OutEdges = removeID(l.OutEdges, id)
		l.InEdges = removeID(l.InEdges, id)
	}
	t.RemoveEdge(id)
}

func removeID(ids []string, target string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
