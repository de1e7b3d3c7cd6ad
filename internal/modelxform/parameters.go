package modelxform

import (
	"fmt"

	"github.com/tamatch/tamatch/internal/ast"
	"github.com/tamatch/tamatch/internal/ntamodel"
	"github.com/tamatch/tamatch/internal/rewrite"
	"github.com/tamatch/tamatch/internal/xerrors"
)

// resolveParameters removes c.Template's formal parameters, substituting
// by-reference ones with the caller's argument expression everywhere they
// are referenced, and lifting by-value ones into a prepended local
// declaration that initializes them from the argument.
//
// Precondition: c.Template has exactly one instance (enforced by
// cloneTemplatesPerInstance, which clones one template per instance before
// this runs, so violations here indicate an internal inconsistency rather
// than a user input error).
func resolveParameters(m *ntamodel.System, c clonedInstance) error {
	if len(c.Template.Parameters) != len(c.Args) {
		return &xerrors.TransformError{
			Stage: xerrors.StageResolveByRef,
			Details: fmt.Sprintf("template %s has %d parameters but instance %s supplies %d arguments",
				c.Template.Name, len(c.Template.Parameters), c.InstanceName, len(c.Args)),
		}
	}

	var remainingParams []*ast.Parameter
	var byValuePrelude []ast.Stmt

	for i, p := range c.Template.Parameters {
		arg := c.Args[i]
		if p.IsRef == "&" {
			name := p.VarData.VarName
			rename := func(n ast.Node, _ *rewrite.Accumulator) ast.Node {
				v, ok := n.(*ast.Variable)
				if !ok || v.Name != name {
					return n
				}
				cp, _ := rewrite.Walk(arg, func(n ast.Node, _ *rewrite.Accumulator) ast.Node { return n })
				return cp
			}
			out, _ := rewrite.Walk(c.Template.Decl, rename)
			c.Template.Decl = out.(*ast.StatementBlock)
			for _, e := range c.Template.Edges() {
				substituteEdgeExprs(e, rename)
			}
			for _, l := range c.Template.Locations() {
				l.Invariants = walkList(l.Invariants, rename)
			}
			continue
		}
		// By-value: prepend `T p = arg;`
		byValuePrelude = append(byValuePrelude, &ast.VariableDecls{
			Type:    p.Type,
			VarData: []*ast.VariableID{{VarName: p.VarData.VarName, InitData: arg}},
		})
	}

	c.Template.Parameters = remainingParams
	if len(byValuePrelude) > 0 {
		c.Template.Decl.Decls = append(byValuePrelude, c.Template.Decl.Decls...)
	}
	return nil
}

// substituteEdgeExprs applies rename to every expression-bearing field of e
// in place.
func substituteEdgeExprs(e *ntamodel.Edge, rename rewrite.VisitFunc) {
	e.ClockGuards = walkList(e.ClockGuards, rename)
	e.VariableGuards = walkList(e.VariableGuards, rename)
	e.Updates = walkList(e.Updates, rename)
}

func walkList(list []ast.Expr, fn rewrite.VisitFunc) []ast.Expr {
	out := make([]ast.Expr, len(list))
	for i, e := range list {
		n, _ := rewrite.Walk(e, fn)
		out[i] = n.(ast.Expr)
	}
	return out
}

// localToGlobalRename collects every local variable and function name
// declared in c.Template.Decl, renames each reference to {Template}_{name}
// throughout the template's declaration, every edge label and every
// location invariant, then appends
// the renamed declaration block to the global section and clears the local
// one.
func localToGlobalRename(m *ntamodel.System, c clonedInstance) error {
	prefix := c.Template.Name
	var fns []rewrite.VisitFunc
	for _, stmt := range c.Template.Decl.Decls {
		switch d := stmt.(type) {
		case *ast.VariableDecls:
			for _, v := range d.VarData {
				fns = append(fns, rewrite.RenameVar(v.VarName, prefix+"_"+v.VarName))
			}
		case *ast.Function:
			fns = append(fns, rewrite.RenameFunc(d.Name, prefix+"_"+d.Name))
		}
	}
	if len(fns) == 0 {
		return nil
	}

	out, _ := rewrite.WalkMany(c.Template.Decl, fns)
	renamedDecl := out.(*ast.StatementBlock)

	combined := func(n ast.Node, acc *rewrite.Accumulator) ast.Node {
		for _, f := range fns {
			n = f(n, acc)
		}
		return n
	}
	for _, e := range c.Template.Edges() {
		substituteEdgeExprs(e, combined)
	}
	for _, l := range c.Template.Locations() {
		l.Invariants = walkList(l.Invariants, combined)
	}

	m.GlobalDecl.Decls = append(m.GlobalDecl.Decls, renamedDecl.Decls...)
	c.Template.Decl = &ast.StatementBlock{}
	return nil
}
