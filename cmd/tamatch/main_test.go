package main

import (
	"strings"
	"testing"

	"github.com/tamatch/tamatch/internal/ast"
	"github.com/tamatch/tamatch/internal/ntamodel"
)

func TestRun_RequiresModelFlag(t *testing.T) {
	if err := run("testdata/example-config.yaml", "", 0); err == nil {
		t.Error("expected an error when -model is omitted")
	}
}

func TestSerializeQuery_RendersEveryQuery(t *testing.T) {
	sys := ntamodel.NewSystem()
	sys.Queries = []ast.Query{&ast.QExpr{Expr: &ast.Boolean{Val: true}}}
	out, err := serializeQuery(sys)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "true") {
		t.Errorf("expected the query text in output, got %q", out)
	}
}
