// Package ntamodel defines the network-of-timed-automata model: System,
// Template, Location, Edge and their ordered-mapping owners. No parser
// exists for this package (out of scope); models are built programmatically
// or produced by internal/modelxform's preprocessing pipeline.
//
// Ordered mappings are modelled as a slice of ids in insertion order plus
// an id->entry map, pairing a deterministic iteration order with O(1) lookup.
package ntamodel

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tamatch/tamatch/internal/ast"
)

// Location is one automaton state.
type Location struct {
	ID         string
	Name       string
	Urgent     bool
	Committed  bool
	Invariants []ast.Expr
	InEdges    []string // edge ids terminating here
	OutEdges   []string // edge ids starting here
}

// Edge is one automaton transition.
type Edge struct {
	ID             string
	Source         string // location id
	Target         string // location id
	ClockGuards    []ast.Expr
	VariableGuards []ast.Expr
	Updates        []ast.Expr
	Resets         []string // clock names
	Sync           string   // channel expression, "" if none
	Selects        []*ast.Parameter
}

// Template owns an ordered set of locations and edges plus its own
// declaration block and formal parameters.
type Template struct {
	ID         string
	Name       string
	Parameters []*ast.Parameter
	Decl       *ast.StatementBlock

	locationOrder []string
	locations     map[string]*Location
	edgeOrder     []string
	edges         map[string]*Edge
}

// NewTemplate returns an empty template with a fresh id.
func NewTemplate(name string) *Template {
	return &Template{
		ID:        uuid.NewString(),
		Name:      name,
		Decl:      &ast.StatementBlock{},
		locations: map[string]*Location{},
		edges:     map[string]*Edge{},
	}
}

// AddLocation inserts loc (assigning a fresh id if absent) and returns it.
func (t *Template) AddLocation(loc *Location) *Location {
	if loc.ID == "" {
		loc.ID = uuid.NewString()
	}
	t.locations[loc.ID] = loc
	t.locationOrder = append(t.locationOrder, loc.ID)
	return loc
}

// NewLocation creates, inserts, and returns a fresh named location.
func (t *Template) NewLocation(name string) *Location {
	return t.AddLocation(&Location{Name: name})
}

// GetLocationByID returns the location with the given id, or nil.
func (t *Template) GetLocationByID(id string) *Location { return t.locations[id] }

// GetLocationByName returns the first location with the given name, or nil.
func (t *Template) GetLocationByName(name string) *Location {
	for _, id := range t.locationOrder {
		if l := t.locations[id]; l.Name == name {
			return l
		}
	}
	return nil
}

// Locations returns locations in insertion order.
func (t *Template) Locations() []*Location {
	out := make([]*Location, len(t.locationOrder))
	for i, id := range t.locationOrder {
		out[i] = t.locations[id]
	}
	return out
}

// AddEdge inserts e (assigning a fresh id if absent), wires source/target
// adjacency, and returns it. If e.Source or e.Target names no location in
// t, the edge is still stored and that side's adjacency list is left as is.
func (t *Template) AddEdge(e *Edge) *Edge {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	t.edges[e.ID] = e
	t.edgeOrder = append(t.edgeOrder, e.ID)
	if src := t.locations[e.Source]; src != nil {
		src.OutEdges = append(src.OutEdges, e.ID)
	}
	if tgt := t.locations[e.Target]; tgt != nil {
		tgt.InEdges = append(tgt.InEdges, e.ID)
	}
	return e
}

// GetEdgeByID returns the edge with the given id, or nil.
func (t *Template) GetEdgeByID(id string) *Edge { return t.edges[id] }

// RemoveEdge deletes the edge with the given id, including from the
// locations it connects.
func (t *Template) RemoveEdge(id string) {
	drop := func(ids []string) []string {
		out := ids[:0]
		for _, eid := range ids {
			if eid != id {
				out = append(out, eid)
			}
		}
		return out
	}
	for _, l := range t.locations {
		l.OutEdges = drop(l.OutEdges)
		l.InEdges = drop(l.InEdges)
	}
	delete(t.edges, id)
	for i, eid := range t.edgeOrder {
		if eid == id {
			t.edgeOrder = append(t.edgeOrder[:i], t.edgeOrder[i+1:]...)
			break
		}
	}
}

// Edges returns edges in insertion order.
func (t *Template) Edges() []*Edge {
	out := make([]*Edge, len(t.edgeOrder))
	for i, id := range t.edgeOrder {
		out[i] = t.edges[id]
	}
	return out
}

// Instantiation is a `name = Template(args...)` system-declaration entry.
type Instantiation struct {
	InstanceName string
	TemplateName string
	Args         []ast.Expr
}

// System is the top-level NTA model: ordered templates, global
// declarations, instantiations, process-priority groups, and queries.
type System struct {
	GlobalDecl *ast.StatementBlock
	Queries    []ast.Query

	Instantiations []*Instantiation
	ProcessGroups  [][]string // priority-ordered groups of instance names

	templateOrder []string
	templates     map[string]*Template
}

// NewSystem returns an empty system.
func NewSystem() *System {
	return &System{
		GlobalDecl: &ast.StatementBlock{},
		templates:  map[string]*Template{},
	}
}

// AddTemplate inserts tmpl (assigning a fresh id if absent) and returns it.
func (s *System) AddTemplate(tmpl *Template) *Template {
	if tmpl.ID == "" {
		tmpl.ID = uuid.NewString()
	}
	s.templates[tmpl.ID] = tmpl
	s.templateOrder = append(s.templateOrder, tmpl.ID)
	return tmpl
}

// NewTemplate creates, inserts, and returns a fresh named template.
func (s *System) NewTemplate(name string) *Template {
	return s.AddTemplate(NewTemplate(name))
}

// GetTemplateByID returns the template with the given id, or nil.
func (s *System) GetTemplateByID(id string) *Template { return s.templates[id] }

// GetTemplateByName returns the first template with the given name, or nil.
func (s *System) GetTemplateByName(name string) *Template {
	for _, id := range s.templateOrder {
		if t := s.templates[id]; t.Name == name {
			return t
		}
	}
	return nil
}

// GetTemplateByIndex returns the template at position i in insertion order.
func (s *System) GetTemplateByIndex(i int) (*Template, error) {
	if i < 0 || i >= len(s.templateOrder) {
		return nil, fmt.Errorf("ntamodel: template index %d out of range (have %d)", i, len(s.templateOrder))
	}
	return s.templates[s.templateOrder[i]], nil
}

// Templates returns templates in insertion order.
func (s *System) Templates() []*Template {
	out := make([]*Template, len(s.templateOrder))
	for i, id := range s.templateOrder {
		out[i] = s.templates[id]
	}
	return out
}

// RemoveTemplate deletes the template with the given id.
func (s *System) RemoveTemplate(id string) {
	delete(s.templates, id)
	for i, tid := range s.templateOrder {
		if tid == id {
			s.templateOrder = append(s.templateOrder[:i], s.templateOrder[i+1:]...)
			return
		}
	}
}
