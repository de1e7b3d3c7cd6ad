package uppaalxml

import "github.com/tamatch/tamatch/internal/ast"

// Query renders a TCTL/SMC query tree to the textual syntax verifyta
// expects in a .q file (e.g. "E<> Trace_Matcher.S").
func Query(q ast.Query) string {
	switch n := q.(type) {
	case *ast.QExpr:
		return Expr(n.Expr)
	case *ast.PropAll:
		return "A" + Query(n.Inner)
	case *ast.PropExists:
		return "E" + Query(n.Inner)
	case *ast.PropGlobally:
		return "[] " + Query(n.Inner)
	case *ast.PropFinally:
		return "<> " + Query(n.Inner)
	case *ast.PropLeadsTo:
		return Query(n.Left) + " --> " + Query(n.Right)
	case *ast.PropUntil:
		return Query(n.Left) + " U " + Query(n.Right)
	case *ast.ProbEstimate:
		return "Pr[" + Query(n.Inner) + "](<= " + Expr(n.Bound) + ")"
	case *ast.HypothesisTest:
		return "Pr[" + Query(n.Inner) + "] >= " + Expr(n.P0)
	case *ast.ProbCompare:
		return "Pr[" + Query(n.Left) + "] >= Pr[" + Query(n.Right) + "]"
	case *ast.ValueEstimate:
		return "E(" + Expr(n.Expr) + ")"
	case *ast.Sim:
		return "simulate [<= " + Expr(n.Runs) + "] { " + Query(n.Inner) + " }"
	case *ast.Sup:
		return "sup: " + Expr(n.Expr)
	case *ast.Inf:
		return "inf: " + Expr(n.Expr)
	default:
		return ""
	}
}

// QueryFile renders queries the way verifyta's .q format lists them: one
// per line, each followed by a blank line for its (empty) comment field.
func QueryFile(queries []ast.Query) string {
	out := ""
	for _, q := range queries {
		out += Query(q) + "\n\n"
	}
	return out
}
