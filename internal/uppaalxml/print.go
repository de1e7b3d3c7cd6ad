// Package uppaalxml renders a ntamodel.System to the UPPAAL model XML
// format and its queries to the .q query-file textual syntax verifyta
// expects, the reverse direction of internal/symtrace's XML ingestion: no
// parser exists for either format (out of scope), so this package only
// ever needs to go from this codebase's own in-memory shapes to text, never
// back.
package uppaalxml

import (
	"fmt"
	"strings"

	"github.com/tamatch/tamatch/internal/ast"
)

var binaryOpText = map[ast.BinaryOp]string{
	ast.OpAdd: "+", ast.OpSub: "-", ast.OpMul: "*", ast.OpDiv: "/", ast.OpMod: "%",
	ast.OpLt: "<", ast.OpLe: "<=", ast.OpGt: ">", ast.OpGe: ">=", ast.OpEq: "==", ast.OpNeq: "!=",
	ast.OpLogAnd: "&&", ast.OpLogOr: "||", ast.OpLogImply: "imply",
	ast.OpBitAnd: "&", ast.OpBitOr: "|", ast.OpBitXor: "^", ast.OpShl: "<<", ast.OpShr: ">>",
	ast.OpMinimum: "min", ast.OpMaximum: "max", ast.OpDot: ".",
}

var unaryOpText = map[ast.UnaryOp]string{
	ast.OpPlus: "+", ast.OpMinus: "-", ast.OpLogNot: "!", ast.OpBitNot: "~",
	ast.OpPreIncr: "++", ast.OpPreDecr: "--",
}

var assignOpText = map[ast.AssignOp]string{
	ast.OpAssign: "=", ast.OpAddAssign: "+=", ast.OpSubAssign: "-=", ast.OpMulAssign: "*=",
	ast.OpDivAssign: "/=", ast.OpModAssign: "%=", ast.OpBitAndAssign: "&=",
	ast.OpBitOrAssign: "|=", ast.OpBitXorAssign: "^=",
}

// Expr renders e in the declaration-language surface syntax. Parenthesization
// is driven by internal/ast's own precedence table, so an edge guard printed
// here and one walked by internal/rewrite agree on operator binding.
func Expr(e ast.Expr) string {
	if e == nil {
		return ""
	}
	switch n := e.(type) {
	case *ast.Integer:
		return fmt.Sprintf("%d", n.Val)
	case *ast.Double:
		return fmt.Sprintf("%g", n.Val)
	case *ast.Boolean:
		if n.Val {
			return "true"
		}
		return "false"
	case *ast.Variable:
		return n.Name
	case *ast.UnaryExpr:
		return unaryOpText[n.Op] + parenIfNeeded(n.Expr)
	case *ast.BinaryExpr:
		if n.Op == ast.OpArrayAcc {
			return fmt.Sprintf("%s[%s]", parenBinary(n, n.Left), Expr(n.Right))
		}
		if n.Op == ast.OpDot {
			return fmt.Sprintf("%s.%s", parenBinary(n, n.Left), Expr(n.Right))
		}
		op, ok := binaryOpText[n.Op]
		if !ok {
			op = string(n.Op)
		}
		return fmt.Sprintf("%s %s %s", parenBinary(n, n.Left), op, parenBinary(n, n.Right))
	case *ast.TernaryExpr:
		return fmt.Sprintf("%s ? %s : %s", Expr(n.Left), Expr(n.Middle), Expr(n.Right))
	case *ast.AssignExpr:
		return fmt.Sprintf("%s %s %s", Expr(n.Left), assignOpText[n.Op], Expr(n.Right))
	case *ast.PostIncrDecrAssignExpr:
		if n.Incr {
			return Expr(n.Expr) + "++"
		}
		return Expr(n.Expr) + "--"
	case *ast.PreIncrDecrAssignExpr:
		if n.Incr {
			return "++" + Expr(n.Expr)
		}
		return "--" + Expr(n.Expr)
	case *ast.FuncCallExpr:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = Expr(a)
		}
		return fmt.Sprintf("%s(%s)", n.FuncName, strings.Join(args, ", "))
	case *ast.InitialiserArray:
		vals := make([]string, len(n.Vals))
		for i, v := range n.Vals {
			vals[i] = Expr(v)
		}
		return "{" + strings.Join(vals, ", ") + "}"
	default:
		return fmt.Sprintf("<?%T?>", n)
	}
}

func parenIfNeeded(e ast.Expr) string {
	switch e.(type) {
	case *ast.Integer, *ast.Double, *ast.Boolean, *ast.Variable:
		return Expr(e)
	default:
		return "(" + Expr(e) + ")"
	}
}

// parenBinary wraps child in parens when its own operator binds looser than
// parent's, or binds equally and child is not on the side parent's operator
// associates toward.
func parenBinary(parent *ast.BinaryExpr, child ast.Expr) string {
	cb, ok := child.(*ast.BinaryExpr)
	if !ok {
		return Expr(child)
	}
	cp, pp := ast.Precedence(cb.Op), ast.Precedence(parent.Op)
	if cp < pp {
		return "(" + Expr(child) + ")"
	}
	if cp == pp {
		assoc := ast.Assoc(parent.Op)
		if !(assoc == ast.AssocLeft && child == parent.Left) && !(assoc == ast.AssocRight && child == parent.Right) {
			return "(" + Expr(child) + ")"
		}
	}
	return Expr(child)
}

// Type renders a declared type, e.g. "const int", "int[0,10]", "chan".
func Type(t *ast.Type) string {
	if t == nil {
		return ""
	}
	parts := append([]string{}, t.Prefixes...)
	parts = append(parts, typeID(t.TypeID))
	return strings.Join(parts, " ")
}

func typeID(id ast.TypeID) string {
	switch n := id.(type) {
	case *ast.CustomType:
		return n.Name
	case *ast.BoundedIntType:
		return fmt.Sprintf("int[%s,%s]", Expr(n.Lower), Expr(n.Upper))
	case *ast.ScalarType:
		return fmt.Sprintf("scalar[%s]", Expr(n.Expr))
	case *ast.StructType:
		fields := make([]string, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = fmt.Sprintf("%s %s", Type(f.Type), f.Name)
		}
		return "struct{" + strings.Join(fields, "; ") + "}"
	default:
		return fmt.Sprintf("<?%T?>", n)
	}
}

// VariableID renders one declared name, e.g. "x", "a[4]", "x = 3".
func VariableID(v *ast.VariableID) string {
	var b strings.Builder
	b.WriteString(v.VarName)
	for _, dim := range v.ArrayDecl {
		fmt.Fprintf(&b, "[%s]", Expr(dim))
	}
	if v.InitData != nil {
		fmt.Fprintf(&b, " = %s", Expr(v.InitData))
	}
	return b.String()
}

// VariableDecls renders a full `type name, name = val;` declaration line.
func VariableDecls(d *ast.VariableDecls) string {
	names := make([]string, len(d.VarData))
	for i, v := range d.VarData {
		names[i] = VariableID(v)
	}
	return fmt.Sprintf("%s %s;", Type(d.Type), strings.Join(names, ", "))
}

// Stmt renders a single declaration-block statement.
func Stmt(s ast.Stmt) string {
	switch n := s.(type) {
	case *ast.VariableDecls:
		return VariableDecls(n)
	case *ast.ExprStatement:
		return Expr(n.Expr) + ";"
	case *ast.Function:
		return function(n)
	case *ast.EmptyStatement:
		return ";"
	case *ast.IfStatement:
		if n.Else != nil {
			return fmt.Sprintf("if (%s) %s else %s", Expr(n.Cond), Stmt(n.Then), Stmt(n.Else))
		}
		return fmt.Sprintf("if (%s) %s", Expr(n.Cond), Stmt(n.Then))
	case *ast.WhileLoop:
		return fmt.Sprintf("while (%s) %s", Expr(n.Cond), Stmt(n.Body))
	case *ast.DoWhileLoop:
		return fmt.Sprintf("do %s while (%s);", Stmt(n.Body), Expr(n.Cond))
	case *ast.ForLoop:
		return fmt.Sprintf("for (%s; %s; %s) %s", Stmt(n.Init), Expr(n.Cond), Stmt(n.Post), Stmt(n.Body))
	case *ast.Iteration:
		return fmt.Sprintf("for (%s : %s) %s", n.VarName, Type(n.Type), Stmt(n.Body))
	case *ast.ReturnStatement:
		if n.Value == nil {
			return "return;"
		}
		return "return " + Expr(n.Value) + ";"
	case *ast.StatementBlock:
		return Block(n)
	case *ast.Instantiation:
		return instantiation(n)
	case *ast.System:
		return system(n)
	default:
		return fmt.Sprintf("<?%T?>", n)
	}
}

func function(f *ast.Function) string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = fmt.Sprintf("%s%s %s", Type(p.Type), p.IsRef, VariableID(p.VarData))
	}
	return fmt.Sprintf("%s %s(%s) %s", Type(f.Type), f.Name, strings.Join(params, ", "), Block(f.Body))
}

func instantiation(n *ast.Instantiation) string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = Expr(a)
	}
	if len(n.Params) == 0 {
		return fmt.Sprintf("%s = %s(%s);", n.InstanceName, n.TemplateName, strings.Join(args, ", "))
	}
	params := make([]string, len(n.Params))
	for i, p := range n.Params {
		params[i] = fmt.Sprintf("%s%s %s", Type(p.Type), p.IsRef, VariableID(p.VarData))
	}
	return fmt.Sprintf("%s(%s) = %s(%s);", n.InstanceName, strings.Join(params, ", "), n.TemplateName, strings.Join(args, ", "))
}

func system(n *ast.System) string {
	groups := make([]string, len(n.ProcessNames))
	for i, g := range n.ProcessNames {
		groups[i] = strings.Join(g, ", ")
	}
	return "system " + strings.Join(groups, " < ") + ";"
}

// Block renders a declaration block's declarations and statements, one per
// line, in source order.
func Block(b *ast.StatementBlock) string {
	if b == nil {
		return "{}"
	}
	var lines []string
	for _, d := range b.Decls {
		lines = append(lines, Stmt(d))
	}
	for _, s := range b.Stmts {
		lines = append(lines, Stmt(s))
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}
