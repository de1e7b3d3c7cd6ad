package rewrite

import "github.com/tamatch/tamatch/internal/ast"

// RenameVar returns a VisitFunc that replaces every Variable and VariableID
// named old with new, for use with Walk/WalkMany.
func RenameVar(old, new_ string) VisitFunc {
	return func(node ast.Node, _ *Accumulator) ast.Node {
		switch n := node.(type) {
		case *ast.Variable:
			if n.Name == old {
				return &ast.Variable{Name: new_}
			}
		case *ast.VariableID:
			if n.VarName == old {
				return &ast.VariableID{VarName: new_, ArrayDecl: n.ArrayDecl, InitData: n.InitData}
			}
		}
		return node
	}
}

// RenameType returns a VisitFunc that replaces every CustomType named old
// with new.
func RenameType(old, new_ string) VisitFunc {
	return func(node ast.Node, _ *Accumulator) ast.Node {
		if n, ok := node.(*ast.CustomType); ok && n.Name == old {
			return &ast.CustomType{Name: new_}
		}
		return node
	}
}

// RenameFunc returns a VisitFunc that replaces every FuncCallExpr call site
// and Function declaration named old with new.
func RenameFunc(old, new_ string) VisitFunc {
	return func(node ast.Node, _ *Accumulator) ast.Node {
		switch n := node.(type) {
		case *ast.FuncCallExpr:
			if n.FuncName == old {
				return &ast.FuncCallExpr{FuncName: new_, Args: n.Args}
			}
		case *ast.Function:
			if n.Name == old {
				return &ast.Function{Type: n.Type, Name: new_, Params: n.Params, Body: n.Body}
			}
		}
		return node
	}
}
