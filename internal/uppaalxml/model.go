package uppaalxml

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/tamatch/tamatch/internal/ntamodel"
)

// Model renders the full UPPAAL NTA XML document for m: a <nta> with one
// <template> per template (locations, an <init>, and <transition> edges),
// global declarations, and the <system> process line. By convention (no
// explicit flag exists on ntamodel.Location) a template's first location in
// insertion order is its initial location — every builder in this codebase
// inserts the initial location first.
func Model(m *ntamodel.System) (string, error) {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<!DOCTYPE nta PUBLIC '-//Uppaal Team//DTD Flat System 1.6//EN' 'http://www.it.uu.se/research/group/darts/uppaal/flat-1_6.dtd'>` + "\n")
	b.WriteString("<nta>\n")
	fmt.Fprintf(&b, "<declaration>%s</declaration>\n", escape(Block(m.GlobalDecl)))

	for _, tmpl := range m.Templates() {
		if err := writeTemplate(&b, tmpl); err != nil {
			return "", err
		}
	}

	fmt.Fprintf(&b, "<system>%s</system>\n", escape(systemText(m)))
	b.WriteString("</nta>\n")
	return b.String(), nil
}

func writeTemplate(b *strings.Builder, tmpl *ntamodel.Template) error {
	fmt.Fprintf(b, "<template>\n<name>%s</name>\n", escape(tmpl.Name))
	if decl := Block(tmpl.Decl); decl != "" {
		fmt.Fprintf(b, "<declaration>%s</declaration>\n", escape(decl))
	}

	locs := tmpl.Locations()
	if len(locs) == 0 {
		return fmt.Errorf("uppaalxml: template %q has no locations", tmpl.Name)
	}
	for _, loc := range locs {
		fmt.Fprintf(b, "<location id=\"%s\">\n<name>%s</name>\n", loc.ID, escape(loc.Name))
		for _, inv := range loc.Invariants {
			fmt.Fprintf(b, "<label kind=\"invariant\">%s</label>\n", escape(Expr(inv)))
		}
		if loc.Committed {
			b.WriteString("<committed/>\n")
		} else if loc.Urgent {
			b.WriteString("<urgent/>\n")
		}
		b.WriteString("</location>\n")
	}
	fmt.Fprintf(b, "<init ref=\"%s\"/>\n", locs[0].ID)

	for _, e := range tmpl.Edges() {
		fmt.Fprintf(b, "<transition>\n<source ref=\"%s\"/>\n<target ref=\"%s\"/>\n", e.Source, e.Target)
		for _, g := range e.VariableGuards {
			fmt.Fprintf(b, "<label kind=\"guard\">%s</label>\n", escape(Expr(g)))
		}
		for _, g := range e.ClockGuards {
			fmt.Fprintf(b, "<label kind=\"guard\">%s</label>\n", escape(Expr(g)))
		}
		if e.Sync != "" {
			fmt.Fprintf(b, "<label kind=\"synchronisation\">%s</label>\n", escape(e.Sync))
		}
		if update := edgeUpdateText(e); update != "" {
			fmt.Fprintf(b, "<label kind=\"assignment\">%s</label>\n", escape(update))
		}
		b.WriteString("</transition>\n")
	}
	b.WriteString("</template>\n")
	return nil
}

func edgeUpdateText(e *ntamodel.Edge) string {
	parts := make([]string, 0, len(e.Resets)+len(e.Updates))
	for _, clk := range e.Resets {
		parts = append(parts, clk+" = 0")
	}
	for _, u := range e.Updates {
		parts = append(parts, Expr(u))
	}
	return strings.Join(parts, ", ")
}

func systemText(m *ntamodel.System) string {
	var lines []string
	for _, inst := range m.Instantiations {
		args := make([]string, len(inst.Args))
		for i, a := range inst.Args {
			args[i] = Expr(a)
		}
		lines = append(lines, fmt.Sprintf("%s = %s(%s);", inst.InstanceName, inst.TemplateName, strings.Join(args, ", ")))
	}
	groups := make([]string, len(m.ProcessGroups))
	for i, g := range m.ProcessGroups {
		groups[i] = strings.Join(g, ", ")
	}
	lines = append(lines, "system "+strings.Join(groups, " < ")+";")
	return strings.Join(lines, "\n")
}

func escape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}
