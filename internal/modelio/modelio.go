// Package modelio builds a ntamodel.System from a small declarative YAML
// description, standing in for the parser this codebase deliberately
// doesn't have (internal/ntamodel's own doc comment: "models are built
// programmatically"). It covers exactly the shapes cmd/tamatch needs to
// bootstrap a network of timed automata at startup: named locations with
// optional urgency/committedness and a clock-upper-bound invariant, and
// edges with simple "clock <op> value" guards, an optional synchronisation
// channel, and clock resets. Anything more expressive (general guard
// expressions, integer variable arithmetic, functions) is out of scope
// here and should be built directly against internal/ntamodel/internal/astbuild.
package modelio

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/tamatch/tamatch/internal/ast"
	"github.com/tamatch/tamatch/internal/astbuild"
	"github.com/tamatch/tamatch/internal/ntamodel"
)

// Descriptor is the top-level YAML shape.
type Descriptor struct {
	Clocks         []string               `yaml:"clocks"`
	Templates      []TemplateDescriptor   `yaml:"templates"`
	Instantiations []InstantiationDesc    `yaml:"instantiations"`
	ProcessGroups  [][]string             `yaml:"process_groups"`
}

type TemplateDescriptor struct {
	Name      string               `yaml:"name"`
	Locations []LocationDescriptor `yaml:"locations"`
	Edges     []EdgeDescriptor     `yaml:"edges"`
}

// LocationDescriptor's Name is the first location listed in its template's
// Locations slice; that one is treated as the template's initial location.
type LocationDescriptor struct {
	Name             string           `yaml:"name"`
	Urgent           bool             `yaml:"urgent,omitempty"`
	Committed        bool             `yaml:"committed,omitempty"`
	ClockUpperBounds map[string]int64 `yaml:"clock_upper_bounds,omitempty"` // invariant clock <= bound
}

type EdgeDescriptor struct {
	Source      string           `yaml:"source"`
	Target      string           `yaml:"target"`
	ClockGuards []GuardDescriptor `yaml:"clock_guards,omitempty"`
	Sync        string           `yaml:"sync,omitempty"` // "chan!" or "chan?"
	Resets      []string         `yaml:"resets,omitempty"`
}

// GuardDescriptor is one "clock <op> value" clock constraint. Op is one of
// "<", "<=", ">", ">=", "==".
type GuardDescriptor struct {
	Clock string `yaml:"clock"`
	Op    string `yaml:"op"`
	Value int64  `yaml:"value"`
}

type InstantiationDesc struct {
	Name     string `yaml:"name"`
	Template string `yaml:"template"`
}

var guardOps = map[string]ast.BinaryOp{
	"<": ast.OpLt, "<=": ast.OpLe, ">": ast.OpGt, ">=": ast.OpGe, "==": ast.OpEq,
}

// Parse unmarshals a YAML model descriptor.
func Parse(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("modelio: parsing descriptor: %w", err)
	}
	return &d, nil
}

// Build constructs a ntamodel.System from d.
func Build(d *Descriptor) (*ntamodel.System, error) {
	sys := ntamodel.NewSystem()
	for _, clk := range d.Clocks {
		sys.GlobalDecl.Decls = append(sys.GlobalDecl.Decls, astbuild.PlainDecl(astbuild.ClockType(), clk))
	}

	for _, td := range d.Templates {
		if len(td.Locations) == 0 {
			return nil, fmt.Errorf("modelio: template %q declares no locations", td.Name)
		}
		tmpl := sys.NewTemplate(td.Name)
		byName := map[string]*ntamodel.Location{}
		for _, ld := range td.Locations {
			loc := tmpl.NewLocation(ld.Name)
			loc.Urgent = ld.Urgent
			loc.Committed = ld.Committed
			for clk, bound := range ld.ClockUpperBounds {
				loc.Invariants = append(loc.Invariants, astbuild.Bin(ast.OpLe, astbuild.Var(clk), astbuild.Int(bound)))
			}
			byName[ld.Name] = loc
		}
		for _, ed := range td.Edges {
			src, ok := byName[ed.Source]
			if !ok {
				return nil, fmt.Errorf("modelio: template %q edge references unknown source %q", td.Name, ed.Source)
			}
			tgt, ok := byName[ed.Target]
			if !ok {
				return nil, fmt.Errorf("modelio: template %q edge references unknown target %q", td.Name, ed.Target)
			}
			edge := &ntamodel.Edge{Source: src.ID, Target: tgt.ID, Sync: ed.Sync, Resets: append([]string{}, ed.Resets...)}
			for _, g := range ed.ClockGuards {
				op, ok := guardOps[g.Op]
				if !ok {
					return nil, fmt.Errorf("modelio: unknown guard operator %q", g.Op)
				}
				edge.ClockGuards = append(edge.ClockGuards, astbuild.Bin(op, astbuild.Var(g.Clock), astbuild.Int(g.Value)))
			}
			tmpl.AddEdge(edge)
		}
	}

	for _, inst := range d.Instantiations {
		if sys.GetTemplateByName(inst.Template) == nil {
			return nil, fmt.Errorf("modelio: instantiation %q references unknown template %q", inst.Name, inst.Template)
		}
		sys.Instantiations = append(sys.Instantiations, &ntamodel.Instantiation{InstanceName: inst.Name, TemplateName: inst.Template})
	}
	sys.ProcessGroups = d.ProcessGroups
	return sys, nil
}
