package render

import (
	"fmt"
	"strings"

	"github.com/fortdoc/fortflow/pkg/flow"
)

// Outline renders outline nodes as an indented text tree with source line
// ranges. Doc comments attached to a node appear above its header.
func Outline(nodes []flow.OutlineNode) string {
	var b strings.Builder
	writeOutline(&b, nodes, 0)
	return b.String()
}

func writeOutline(b *strings.Builder, nodes []flow.OutlineNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		for _, c := range n.Comments {
			fmt.Fprintf(b, "%s!! %s\n", indent, c.Text)
		}
		if n.StartLine > 0 {
			fmt.Fprintf(b, "%s%s  [%s]\n", indent, n.Header, lineRange(n.StartLine, n.EndLine))
		} else {
			fmt.Fprintf(b, "%s%s\n", indent, n.Header)
		}
		writeOutline(b, n.Children, depth+1)
	}
}

func lineRange(start, end int) string {
	if end > start {
		return fmt.Sprintf("L%d-L%d", start, end)
	}
	return fmt.Sprintf("L%d", start)
}

// Allocations renders allocation summaries as aligned text, one variable
// per line.
func Allocations(summaries []flow.AllocationSummary) string {
	if len(summaries) == 0 {
		return "no allocations\n"
	}
	var b strings.Builder
	for _, s := range summaries {
		fmt.Fprintf(&b, "%s: allocated at %s", s.Variable, joinLines(s.AllocateLines))
		if len(s.DeallocateLines) > 0 {
			fmt.Fprintf(&b, ", deallocated at %s", joinLines(s.DeallocateLines))
		} else {
			b.WriteString(", never deallocated")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func joinLines(lines []int) string {
	parts := make([]string, len(lines))
	for i, n := range lines {
		parts[i] = fmt.Sprintf("L%d", n)
	}
	return strings.Join(parts, ", ")
}
