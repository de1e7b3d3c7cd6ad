package uppaalxml

import (
	"strings"
	"testing"

	"github.com/tamatch/tamatch/internal/ast"
	"github.com/tamatch/tamatch/internal/astbuild"
	"github.com/tamatch/tamatch/internal/ntamodel"
)

func TestExpr_RespectsPrecedenceWithParens(t *testing.T) {
	// (x + 1) * 2 must keep its parens; x + 1 * 2 must not.
	mulOfSum := astbuild.Bin(ast.OpMul, astbuild.Bin(ast.OpAdd, astbuild.Var("x"), astbuild.Int(1)), astbuild.Int(2))
	if got := Expr(mulOfSum); got != "(x + 1) * 2" {
		t.Errorf("got %q", got)
	}
	sumOfMul := astbuild.Bin(ast.OpAdd, astbuild.Var("x"), astbuild.Bin(ast.OpMul, astbuild.Int(1), astbuild.Int(2)))
	if got := Expr(sumOfMul); got != "x + 1 * 2" {
		t.Errorf("got %q", got)
	}
}

func TestExpr_ArrayAccessAndDot(t *testing.T) {
	if got := Expr(astbuild.ArrayIndex(astbuild.Var("a"), astbuild.Int(3))); got != "a[3]" {
		t.Errorf("got %q", got)
	}
	if got := Expr(astbuild.Bin(ast.OpDot, astbuild.Var("P1"), astbuild.Var("x"))); got != "P1.x" {
		t.Errorf("got %q", got)
	}
}

func TestVariableDecls_RendersArrayAndInit(t *testing.T) {
	v := int64(3)
	_ = v
	decl := astbuild.IntArray("xs", 2, []ast.Expr{astbuild.Int(1), astbuild.Int(2)})
	got := VariableDecls(decl)
	if !strings.Contains(got, "xs[2]") {
		t.Errorf("expected array declaration in %q", got)
	}
	if !strings.Contains(got, " = {1, 2}") {
		t.Errorf("expected array initializer in %q", got)
	}
}

func TestQuery_RendersReachability(t *testing.T) {
	q := &ast.PropExists{Inner: &ast.PropFinally{Inner: &ast.QExpr{Expr: astbuild.Bin(ast.OpEq, astbuild.Var("Trace_Matcher.S"), astbuild.Var("Trace_Matcher.S"))}}}
	got := Query(q)
	if !strings.HasPrefix(got, "E<> ") {
		t.Errorf("expected an E<> reachability query, got %q", got)
	}
}

func TestModel_RendersOneInitPerTemplate(t *testing.T) {
	m := ntamodel.NewSystem()
	tmpl := m.NewTemplate("Light")
	idle := tmpl.NewLocation("idle")
	busy := tmpl.NewLocation("busy")
	edge := tmpl.AddEdge(&ntamodel.Edge{Source: idle.ID, Target: busy.ID, Sync: "go!"})
	edge.Resets = []string{"x"}
	m.Instantiations = append(m.Instantiations, &ntamodel.Instantiation{InstanceName: "P1", TemplateName: "Light"})
	m.ProcessGroups = append(m.ProcessGroups, []string{"P1"})

	out, err := Model(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `<init ref="`+idle.ID+`"`) {
		t.Errorf("expected idle (first-inserted location) to be the init location:\n%s", out)
	}
	if !strings.Contains(out, "go!") || !strings.Contains(out, "x = 0") {
		t.Errorf("expected sync and reset labels:\n%s", out)
	}
}

func TestModel_ErrorsOnTemplateWithNoLocations(t *testing.T) {
	m := ntamodel.NewSystem()
	m.NewTemplate("Empty")
	if _, err := Model(m); err == nil {
		t.Error("expected an error for a template with no locations")
	}
}
