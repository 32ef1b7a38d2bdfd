// Package render turns flow analysis results into output formats: Graphviz
// DOT for graphs, indented text for outlines, and tabular views of the
// presentation legend.
package render

import (
	"fmt"
	"strings"

	"github.com/fortdoc/fortflow/pkg/flow"
	"github.com/fortdoc/fortflow/pkg/legend"
)

// DOT renders a control flow graph as a Graphviz digraph. Node attributes
// come from the legend; blocks with known source ranges get the range
// appended to their label.
func DOT(g *flow.Graph, l legend.Legend) string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", dotID(g.Procedure))
	b.WriteString("  rankdir=TB;\n")
	b.WriteString("  node [fontname=\"Helvetica\", fontsize=10];\n")
	b.WriteString("  edge [fontname=\"Helvetica\", fontsize=9];\n\n")

	for _, blk := range g.Blocks {
		e := l.Entry(blk.Kind)
		fmt.Fprintf(&b, "  block_%d [label=\"%s\", shape=%s, style=\"%s\", fillcolor=\"%s\"];\n",
			blk.ID, dotEscape(nodeLabel(blk)), e.Shape, e.Style, e.Color)
	}
	b.WriteString("\n")
	for _, edge := range g.Edges {
		if edge.Label != "" {
			fmt.Fprintf(&b, "  block_%d -> block_%d [label=\"%s\"];\n", edge.From, edge.To, dotEscape(edge.Label))
		} else {
			fmt.Fprintf(&b, "  block_%d -> block_%d;\n", edge.From, edge.To)
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func nodeLabel(blk *flow.BasicBlock) string {
	label := blk.Label
	if label == "" {
		label = string(blk.Kind)
	}
	if blk.StartLine > 0 {
		if blk.EndLine > blk.StartLine {
			label += fmt.Sprintf("\nlines %d-%d", blk.StartLine, blk.EndLine)
		} else {
			label += fmt.Sprintf("\nline %d", blk.StartLine)
		}
	}
	return label
}

func dotEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

// dotID sanitizes a procedure name into a valid DOT identifier.
func dotID(name string) string {
	if name == "" {
		return "cfg"
	}
	var b strings.Builder
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9' && i > 0:
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
