package matcherbuild

import (
	"fmt"

	"github.com/tamatch/tamatch/internal/ast"
	"github.com/tamatch/tamatch/internal/astbuild"
	"github.com/tamatch/tamatch/internal/ntamodel"
)

// RawBuilder constructs the infrastructure-free matcher: a five-location
// chain per observation step, with no _ID/LOC/COMM support machinery
//. It never uses partial/deviation/committed features.
type RawBuilder struct{}

// Build appends a raw matcher template+instance to m and returns it.
func (RawBuilder) Build(m *ntamodel.System, obs []DataPoint) *ntamodel.System {
	t := ntamodel.NewTemplate("Trace_Matcher_Raw_Tmpl")
	t.Decl.Decls = append(t.Decl.Decls,
		astbuild.PlainDecl(astbuild.ClockType(), "tt"),
		astbuild.PlainDecl(astbuild.ClockType(), "k"))

	prev := t.NewLocation("m_0_5")
	for i, dp := range obs {
		stepLocs := make([]*ntamodel.Location, 5)
		for j := 0; j < 5; j++ {
			stepLocs[j] = t.NewLocation(fmt.Sprintf("m_%d_%d", i+1, j+1))
		}
		reset := t.AddEdge(&ntamodel.Edge{Source: prev.ID, Target: stepLocs[0].ID, Resets: []string{"k"}})
		reset.ClockGuards = append(reset.ClockGuards, astbuild.Bin(ast.OpEq, astbuild.Var("k"), astbuild.Int(0)))

		t.AddEdge(&ntamodel.Edge{
			Source:      stepLocs[0].ID,
			Target:      stepLocs[1].ID,
			ClockGuards: []ast.Expr{astbuild.Bin(ast.OpGe, astbuild.Var("tt"), astbuild.Int(dp.Time))},
		})
		t.AddEdge(&ntamodel.Edge{
			Source:      stepLocs[1].ID,
			Target:      stepLocs[2].ID,
			ClockGuards: []ast.Expr{astbuild.Bin(ast.OpLe, astbuild.Var("tt"), astbuild.Int(dp.Time))},
		})

		cur := stepLocs[2]
		for _, name := range sortedVarNames(dp.Vars) {
			val := dp.Vars[name]
			if val == nil {
				continue
			}
			next := t.NewLocation("")
			g := astbuild.And(
				astbuild.Bin(ast.OpGe, astbuild.Var(name), astbuild.Int(*val)),
				astbuild.Bin(ast.OpLe, astbuild.Var(name), astbuild.Int(*val)),
			)
			t.AddEdge(&ntamodel.Edge{Source: cur.ID, Target: next.ID, VariableGuards: []ast.Expr{g}})
			cur = next
		}
		t.AddEdge(&ntamodel.Edge{Source: cur.ID, Target: stepLocs[3].ID})
		t.AddEdge(&ntamodel.Edge{Source: stepLocs[3].ID, Target: stepLocs[4].ID})
		prev = stepLocs[4]
	}
	final := t.NewLocation("m_T")
	t.AddEdge(&ntamodel.Edge{Source: prev.ID, Target: final.ID})

	m.AddTemplate(t)
	m.Instantiations = append(m.Instantiations, &ntamodel.Instantiation{
		InstanceName: "Trace_Matcher",
		TemplateName: t.Name,
	})
	m.ProcessGroups = append(m.ProcessGroups, []string{"Trace_Matcher"})
	m.Queries = []ast.Query{&ast.PropExists{Inner: &ast.PropFinally{Inner: &ast.QExpr{
		Expr: &ast.BinaryExpr{Op: ast.OpDot, Left: astbuild.Var("Trace_Matcher"), Right: astbuild.Var("m_T")},
	}}}}
	return m
}

func sortedVarNames(vars map[string]*int64) []string {
	var out []string
	for k := range vars {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
