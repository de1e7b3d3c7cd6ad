// Package rewrite implements the generic AST rewriter: a post-order walker
// with an accumulator, rotation primitives for associativity/precedence
// normalization, and name-substitution combinators.
//
// The teacher tree has no single generic walker — cmd/lsp/ast_utils.go's
// getChildAtInclusive/getNodePosition instead hand-writes one type-switch
// case per node kind for a single read-only query. This package follows
// that exact type-switch idiom, but generalizes it into a rewriting walk
// that both descends and replaces, supporting structural rewriting rather
// than just lookup.
package rewrite

import "github.com/tamatch/tamatch/internal/ast"

// Accumulator is the shared ordered list a VisitFunc may append to while
// walking. It is always non-nil inside a VisitFunc.
type Accumulator struct {
	Items []interface{}
}

// Append adds v to the accumulator, in visitation order.
func (a *Accumulator) Append(v interface{}) {
	a.Items = append(a.Items, v)
}

// VisitFunc is applied to every node, post-order, after its children have
// already been walked and replaced. It may return node unchanged or a
// replacement; it may append bookkeeping data to acc.
type VisitFunc func(node ast.Node, acc *Accumulator) ast.Node

// Walk performs a post-order traversal of ast, applying fn to every
// reachable node (including ast itself, last) and returns the rewritten
// tree plus the accumulator fn populated along the way.
func Walk(node ast.Node, fn VisitFunc) (ast.Node, *Accumulator) {
	acc := &Accumulator{}
	result := walk1(node, fn, acc)
	return result, acc
}

// WalkMany applies every fn in fns, in order, at each node of a single
// traversal (rather than one traversal per function) and returns the final
// tree plus the shared accumulator.
func WalkMany(node ast.Node, fns []VisitFunc) (ast.Node, *Accumulator) {
	combined := func(n ast.Node, acc *Accumulator) ast.Node {
		for _, f := range fns {
			n = f(n, acc)
		}
		return n
	}
	return Walk(node, combined)
}

// walk1 descends into node's children (if any), replaces them with their
// walked results, then applies fn to the (possibly child-rewritten) node.
func walk1(node ast.Node, fn VisitFunc, acc *Accumulator) ast.Node {
	if node == nil {
		return nil
	}
	node = descend(node, fn, acc)
	return fn(node, acc)
}

func walkExpr(e ast.Expr, fn VisitFunc, acc *Accumulator) ast.Expr {
	if e == nil {
		return nil
	}
	out := walk1(e, fn, acc)
	if out == nil {
		return nil
	}
	return out.(ast.Expr)
}

func walkStmt(s ast.Stmt, fn VisitFunc, acc *Accumulator) ast.Stmt {
	if s == nil {
		return nil
	}
	out := walk1(s, fn, acc)
	if out == nil {
		return nil
	}
	return out.(ast.Stmt)
}

func walkTypeID(t ast.TypeID, fn VisitFunc, acc *Accumulator) ast.TypeID {
	if t == nil {
		return nil
	}
	out := walk1(t, fn, acc)
	if out == nil {
		return nil
	}
	return out.(ast.TypeID)
}

func walkQuery(q ast.Query, fn VisitFunc, acc *Accumulator) ast.Query {
	if q == nil {
		return nil
	}
	out := walk1(q, fn, acc)
	if out == nil {
		return nil
	}
	return out.(ast.Query)
}

func walkExprList(list []ast.Expr, fn VisitFunc, acc *Accumulator) []ast.Expr {
	out := make([]ast.Expr, len(list))
	for i, e := range list {
		out[i] = walkExpr(e, fn, acc)
	}
	return out
}

func walkStmtList(list []ast.Stmt, fn VisitFunc, acc *Accumulator) []ast.Stmt {
	out := make([]ast.Stmt, len(list))
	for i, s := range list {
		out[i] = walkStmt(s, fn, acc)
	}
	return out
}

// descend rewrites node's immediate children in place (structurally: it
// returns a new value of the same concrete type with children replaced) but
// does not apply fn to node itself. Leaf nodes are returned as fresh copies,
// so a walk with an identity fn yields a tree sharing no node with its input.
func descend(node ast.Node, fn VisitFunc, acc *Accumulator) ast.Node {
	switch n := node.(type) {

	// ---- leaves ----
	case *ast.Integer:
		return &ast.Integer{Val: n.Val}
	case *ast.Double:
		return &ast.Double{Val: n.Val}
	case *ast.Boolean:
		return &ast.Boolean{Val: n.Val}
	case *ast.Variable:
		return &ast.Variable{Name: n.Name}
	case *ast.EmptyStatement:
		return &ast.EmptyStatement{}

	// ---- expressions ----
	case *ast.UnaryExpr:
		return &ast.UnaryExpr{Op: n.Op, Expr: walkExpr(n.Expr, fn, acc)}
	case *ast.BinaryExpr:
		return &ast.BinaryExpr{Op: n.Op, Left: walkExpr(n.Left, fn, acc), Right: walkExpr(n.Right, fn, acc)}
	case *ast.TernaryExpr:
		return &ast.TernaryExpr{
			Left:   walkExpr(n.Left, fn, acc),
			Middle: walkExpr(n.Middle, fn, acc),
			Right:  walkExpr(n.Right, fn, acc),
		}
	case *ast.AssignExpr:
		return &ast.AssignExpr{Op: n.Op, Left: walkExpr(n.Left, fn, acc), Right: walkExpr(n.Right, fn, acc)}
	case *ast.PostIncrDecrAssignExpr:
		return &ast.PostIncrDecrAssignExpr{Incr: n.Incr, Expr: walkExpr(n.Expr, fn, acc)}
	case *ast.PreIncrDecrAssignExpr:
		return &ast.PreIncrDecrAssignExpr{Incr: n.Incr, Expr: walkExpr(n.Expr, fn, acc)}
	case *ast.FuncCallExpr:
		return &ast.FuncCallExpr{FuncName: n.FuncName, Args: walkExprList(n.Args, fn, acc)}
	case *ast.InitialiserArray:
		return &ast.InitialiserArray{Vals: walkExprList(n.Vals, fn, acc)}

	// ---- types ----
	case *ast.Type:
		return &ast.Type{Prefixes: append([]string{}, n.Prefixes...), TypeID: walkTypeID(n.TypeID, fn, acc)}
	case *ast.CustomType:
		return &ast.CustomType{Name: n.Name}
	case *ast.BoundedIntType:
		return &ast.BoundedIntType{Lower: walkExpr(n.Lower, fn, acc), Upper: walkExpr(n.Upper, fn, acc)}
	case *ast.ScalarType:
		return &ast.ScalarType{Expr: walkExpr(n.Expr, fn, acc)}
	case *ast.StructField:
		return &ast.StructField{Type: walk1(n.Type, fn, acc).(*ast.Type), Name: n.Name}
	case *ast.StructType:
		fields := make([]*ast.StructField, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = walk1(f, fn, acc).(*ast.StructField)
		}
		return &ast.StructType{Fields: fields}

	// ---- declarations ----
	case *ast.VariableID:
		return &ast.VariableID{
			VarName:   n.VarName,
			ArrayDecl: walkExprList(n.ArrayDecl, fn, acc),
			InitData:  walkExpr(n.InitData, fn, acc),
		}
	case *ast.VariableDecls:
		varData := make([]*ast.VariableID, len(n.VarData))
		for i, v := range n.VarData {
			varData[i] = walk1(v, fn, acc).(*ast.VariableID)
		}
		var typ *ast.Type
		if n.Type != nil {
			typ = walk1(n.Type, fn, acc).(*ast.Type)
		}
		return &ast.VariableDecls{Type: typ, VarData: varData}
	case *ast.Parameter:
		var typ *ast.Type
		if n.Type != nil {
			typ = walk1(n.Type, fn, acc).(*ast.Type)
		}
		var vd *ast.VariableID
		if n.VarData != nil {
			vd = walk1(n.VarData, fn, acc).(*ast.VariableID)
		}
		return &ast.Parameter{IsRef: n.IsRef, Type: typ, VarData: vd}
	case *ast.Function:
		params := make([]*ast.Parameter, len(n.Params))
		for i, p := range n.Params {
			params[i] = walk1(p, fn, acc).(*ast.Parameter)
		}
		var typ *ast.Type
		if n.Type != nil {
			typ = walk1(n.Type, fn, acc).(*ast.Type)
		}
		var body *ast.StatementBlock
		if n.Body != nil {
			body = walk1(n.Body, fn, acc).(*ast.StatementBlock)
		}
		return &ast.Function{Type: typ, Name: n.Name, Params: params, Body: body}
	case *ast.StatementBlock:
		return &ast.StatementBlock{Decls: walkStmtList(n.Decls, fn, acc), Stmts: walkStmtList(n.Stmts, fn, acc)}

	// ---- statements ----
	case *ast.ForLoop:
		return &ast.ForLoop{
			Init: walkStmt(n.Init, fn, acc),
			Cond: walkExpr(n.Cond, fn, acc),
			Post: walkStmt(n.Post, fn, acc),
			Body: walkStmt(n.Body, fn, acc),
		}
	case *ast.Iteration:
		var typ *ast.Type
		if n.Type != nil {
			typ = walk1(n.Type, fn, acc).(*ast.Type)
		}
		return &ast.Iteration{VarName: n.VarName, Type: typ, Body: walkStmt(n.Body, fn, acc)}
	case *ast.WhileLoop:
		return &ast.WhileLoop{Cond: walkExpr(n.Cond, fn, acc), Body: walkStmt(n.Body, fn, acc)}
	case *ast.DoWhileLoop:
		return &ast.DoWhileLoop{Body: walkStmt(n.Body, fn, acc), Cond: walkExpr(n.Cond, fn, acc)}
	case *ast.IfStatement:
		return &ast.IfStatement{
			Cond: walkExpr(n.Cond, fn, acc),
			Then: walkStmt(n.Then, fn, acc),
			Else: walkStmt(n.Else, fn, acc),
		}
	case *ast.ReturnStatement:
		return &ast.ReturnStatement{Value: walkExpr(n.Value, fn, acc)}
	case *ast.ExprStatement:
		return &ast.ExprStatement{Expr: walkExpr(n.Expr, fn, acc)}

	// ---- templates / system ----
	case *ast.Instantiation:
		params := make([]*ast.Parameter, len(n.Params))
		for i, p := range n.Params {
			params[i] = walk1(p, fn, acc).(*ast.Parameter)
		}
		return &ast.Instantiation{
			InstanceName: n.InstanceName,
			Params:       params,
			TemplateName: n.TemplateName,
			Args:         walkExprList(n.Args, fn, acc),
		}
	case *ast.System:
		groups := make([][]string, len(n.ProcessNames))
		for i, g := range n.ProcessNames {
			groups[i] = append([]string{}, g...)
		}
		return &ast.System{ProcessNames: groups}

	// ---- query AST ----
	case *ast.QExpr:
		return &ast.QExpr{Expr: walkExpr(n.Expr, fn, acc)}
	case *ast.PropAll:
		return &ast.PropAll{Inner: walkQuery(n.Inner, fn, acc)}
	case *ast.PropExists:
		return &ast.PropExists{Inner: walkQuery(n.Inner, fn, acc)}
	case *ast.PropLeadsTo:
		return &ast.PropLeadsTo{Left: walkQuery(n.Left, fn, acc), Right: walkQuery(n.Right, fn, acc)}
	case *ast.PropGlobally:
		return &ast.PropGlobally{Inner: walkQuery(n.Inner, fn, acc)}
	case *ast.PropFinally:
		return &ast.PropFinally{Inner: walkQuery(n.Inner, fn, acc)}
	case *ast.PropUntil:
		return &ast.PropUntil{Left: walkQuery(n.Left, fn, acc), Right: walkQuery(n.Right, fn, acc)}
	case *ast.ProbEstimate:
		return &ast.ProbEstimate{
			Inner:   walkQuery(n.Inner, fn, acc),
			Bound:   walkExpr(n.Bound, fn, acc),
			Epsilon: walkExpr(n.Epsilon, fn, acc),
		}
	case *ast.HypothesisTest:
		return &ast.HypothesisTest{
			Inner: walkQuery(n.Inner, fn, acc),
			P0:    walkExpr(n.P0, fn, acc),
			P1:    walkExpr(n.P1, fn, acc),
		}
	case *ast.ProbCompare:
		return &ast.ProbCompare{Left: walkQuery(n.Left, fn, acc), Right: walkQuery(n.Right, fn, acc)}
	case *ast.ValueEstimate:
		return &ast.ValueEstimate{Expr: walkExpr(n.Expr, fn, acc)}
	case *ast.Sim:
		return &ast.Sim{Inner: walkQuery(n.Inner, fn, acc), Runs: walkExpr(n.Runs, fn, acc)}
	case *ast.Sup:
		return &ast.Sup{Expr: walkExpr(n.Expr, fn, acc)}
	case *ast.Inf:
		return &ast.Inf{Expr: walkExpr(n.Expr, fn, acc)}

	default:
		// Unknown or leaf-like node with no children to descend into
		// (e.g. *ast.CustomType handled above returns early).
		return node
	}
}
