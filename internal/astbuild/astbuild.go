// Package astbuild provides small constructor helpers for assembling
// internal/ast trees without a parser, used by preprocessing and the
// matcher builders to synthesize declarations, guards, and updates.
package astbuild

import "github.com/tamatch/tamatch/internal/ast"

func Var(name string) *ast.Variable { return &ast.Variable{Name: name} }

func Int(v int64) *ast.Integer { return &ast.Integer{Val: v} }

func Bool(v bool) *ast.Boolean { return &ast.Boolean{Val: v} }

func Bin(op ast.BinaryOp, left, right ast.Expr) *ast.BinaryExpr {
	return &ast.BinaryExpr{Op: op, Left: left, Right: right}
}

func Not(e ast.Expr) *ast.UnaryExpr { return &ast.UnaryExpr{Op: ast.OpLogNot, Expr: e} }

func And(exprs ...ast.Expr) ast.Expr {
	if len(exprs) == 0 {
		return Bool(true)
	}
	out := exprs[0]
	for _, e := range exprs[1:] {
		out = Bin(ast.OpLogAnd, out, e)
	}
	return out
}

func Or(exprs ...ast.Expr) ast.Expr {
	if len(exprs) == 0 {
		return Bool(false)
	}
	out := exprs[0]
	for _, e := range exprs[1:] {
		out = Bin(ast.OpLogOr, out, e)
	}
	return out
}

func ArrayIndex(base ast.Expr, idx ast.Expr) *ast.BinaryExpr {
	return Bin(ast.OpArrayAcc, base, idx)
}

func Assign(target ast.Expr, value ast.Expr) *ast.AssignExpr {
	return &ast.AssignExpr{Op: ast.OpAssign, Left: target, Right: value}
}

// IntType builds `int` with no bound, used for plain int declarations.
func IntType() *ast.Type {
	return &ast.Type{TypeID: &ast.CustomType{Name: "int"}}
}

func BoundedIntType(lower, upper ast.Expr) *ast.Type {
	return &ast.Type{TypeID: &ast.BoundedIntType{Lower: lower, Upper: upper}}
}

func BoolType() *ast.Type {
	return &ast.Type{TypeID: &ast.CustomType{Name: "bool"}}
}

func ClockType() *ast.Type {
	return &ast.Type{TypeID: &ast.CustomType{Name: "clock"}}
}

func ChanType(prefixes ...string) *ast.Type {
	return &ast.Type{Prefixes: prefixes, TypeID: &ast.CustomType{Name: "chan"}}
}

// ConstInt declares `const int name = val;`.
func ConstInt(name string, val int64) *ast.VariableDecls {
	return &ast.VariableDecls{
		Type:    &ast.Type{Prefixes: []string{"const"}, TypeID: &ast.CustomType{Name: "int"}},
		VarData: []*ast.VariableID{{VarName: name, InitData: Int(val)}},
	}
}

// IntArray declares `int name[len] = {vals...};`.
func IntArray(name string, length int, vals []ast.Expr) *ast.VariableDecls {
	return &ast.VariableDecls{
		Type: IntType(),
		VarData: []*ast.VariableID{{
			VarName:   name,
			ArrayDecl: []ast.Expr{Int(int64(length))},
			InitData:  &ast.InitialiserArray{Vals: vals},
		}},
	}
}

// ConstIntArray declares `const int name[len] = {vals...};`.
func ConstIntArray(name string, length int, vals []ast.Expr) *ast.VariableDecls {
	d := IntArray(name, length, vals)
	d.Type.Prefixes = append([]string{"const"}, d.Type.Prefixes...)
	return d
}

// PlainDecl declares `typ name;` with no initializer.
func PlainDecl(typ *ast.Type, name string) *ast.VariableDecls {
	return &ast.VariableDecls{Type: typ, VarData: []*ast.VariableID{{VarName: name}}}
}

// InitDecl declares `typ name = init;`.
func InitDecl(typ *ast.Type, name string, init ast.Expr) *ast.VariableDecls {
	return &ast.VariableDecls{Type: typ, VarData: []*ast.VariableID{{VarName: name, InitData: init}}}
}
