package render

import (
	"fmt"
	"strings"

	"github.com/fortdoc/fortflow/pkg/legend"
)

// LegendTable renders the legend as an aligned plain-text table.
func LegendTable(l legend.Legend) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-9s %-16s %-10s %-16s %s\n",
		"BLOCK KIND", "COLOR", "COLOR NAME", "SHAPE", "STYLE", "DESCRIPTION")
	for _, kind := range l.Kinds() {
		e := l[kind]
		fmt.Fprintf(&b, "%-20s %-9s %-16s %-10s %-16s %s\n",
			kind, e.Color, e.ColorName, e.Shape, e.Style, e.Description)
	}
	return b.String()
}

// LegendMarkdown renders the legend as a Markdown table.
func LegendMarkdown(l legend.Legend) string {
	var b strings.Builder
	b.WriteString("| Block Kind | Color | Color Name | Shape | Style | Description |\n")
	b.WriteString("|------------|-------|------------|-------|-------|-------------|\n")
	for _, kind := range l.Kinds() {
		e := l[kind]
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			kind, e.Color, e.ColorName, e.Shape, e.Style, e.Description)
	}
	return b.String()
}
