package ntamodel

import (
	"github.com/google/uuid"
	"github.com/tamatch/tamatch/internal/ast"
	"github.com/tamatch/tamatch/internal/rewrite"
)

// AssignFrom replaces s's contents with a deep copy of other. When
// assignIDs is true, every template/location/edge id is preserved
// verbatim; otherwise every copied entity is given a fresh uuid, and every
// internal id cross-reference (Edge.Source/Target, Location.InEdges/OutEdges)
// is remapped to match. Instantiation args are copied as they are.
//
// This must run before any transformation touches a model, since
// preprocessing steps mutate in place and the input model must never be
// mutated.
func (s *System) AssignFrom(other *System, assignIDs bool) {
	idMap := map[string]string{}
	newID := func(old string) string {
		if assignIDs {
			return old
		}
		if mapped, ok := idMap[old]; ok {
			return mapped
		}
		fresh := uuid.NewString()
		idMap[old] = fresh
		return fresh
	}

	s.GlobalDecl = deepCopyBlock(other.GlobalDecl)
	s.Queries = make([]ast.Query, len(other.Queries))
	for i, q := range other.Queries {
		if n, _ := rewrite.Walk(q, func(n ast.Node, _ *rewrite.Accumulator) ast.Node { return n }); n != nil {
			s.Queries[i] = n.(ast.Query)
		}
	}

	s.Instantiations = nil
	for _, inst := range other.Instantiations {
		s.Instantiations = append(s.Instantiations, &Instantiation{
			InstanceName: inst.InstanceName,
			TemplateName: inst.TemplateName,
			Args:         deepCopyExprList(inst.Args),
		})
	}

	s.ProcessGroups = nil
	for _, grp := range other.ProcessGroups {
		s.ProcessGroups = append(s.ProcessGroups, append([]string{}, grp...))
	}

	s.templates = map[string]*Template{}
	s.templateOrder = nil
	for _, t := range other.Templates() {
		copyTemplate := &Template{
			ID:         newID(t.ID),
			Name:       t.Name,
			Parameters: deepCopyParams(t.Parameters),
			Decl:       deepCopyBlock(t.Decl),
			locations:  map[string]*Location{},
			edges:      map[string]*Edge{},
		}
		for _, l := range t.Locations() {
			copyTemplate.locations[newID(l.ID)] = &Location{
				ID:         newID(l.ID),
				Name:       l.Name,
				Urgent:     l.Urgent,
				Committed:  l.Committed,
				Invariants: deepCopyExprList(l.Invariants),
			}
			copyTemplate.locationOrder = append(copyTemplate.locationOrder, newID(l.ID))
		}
		for _, e := range t.Edges() {
			ce := &Edge{
				ID:             newID(e.ID),
				Source:         newID(e.Source),
				Target:         newID(e.Target),
				ClockGuards:    deepCopyExprList(e.ClockGuards),
				VariableGuards: deepCopyExprList(e.VariableGuards),
				Updates:        deepCopyExprList(e.Updates),
				Resets:         append([]string{}, e.Resets...),
				Sync:           e.Sync,
				Selects:        deepCopyParams(e.Selects),
			}
			copyTemplate.edges[ce.ID] = ce
			copyTemplate.edgeOrder = append(copyTemplate.edgeOrder, ce.ID)
			if src := copyTemplate.locations[ce.Source]; src != nil {
				src.OutEdges = append(src.OutEdges, ce.ID)
			}
			if tgt := copyTemplate.locations[ce.Target]; tgt != nil {
				tgt.InEdges = append(tgt.InEdges, ce.ID)
			}
		}
		s.templates[copyTemplate.ID] = copyTemplate
		s.templateOrder = append(s.templateOrder, copyTemplate.ID)
	}
}

// Clone returns a freshly-id'd deep copy of s.
func (s *System) Clone() *System {
	out := NewSystem()
	out.AssignFrom(s, false)
	return out
}

func deepCopyBlock(b *ast.StatementBlock) *ast.StatementBlock {
	if b == nil {
		return &ast.StatementBlock{}
	}
	out, _ := rewrite.Walk(b, func(n ast.Node, _ *rewrite.Accumulator) ast.Node { return n })
	return out.(*ast.StatementBlock)
}

func deepCopyExprList(list []ast.Expr) []ast.Expr {
	out := make([]ast.Expr, len(list))
	for i, e := range list {
		if e == nil {
			continue
		}
		n, _ := rewrite.Walk(e, func(n ast.Node, _ *rewrite.Accumulator) ast.Node { return n })
		out[i] = n.(ast.Expr)
	}
	return out
}

func deepCopyParams(params []*ast.Parameter) []*ast.Parameter {
	out := make([]*ast.Parameter, len(params))
	for i, p := range params {
		n, _ := rewrite.Walk(p, func(n ast.Node, _ *rewrite.Accumulator) ast.Node { return n })
		out[i] = n.(*ast.Parameter)
	}
	return out
}
