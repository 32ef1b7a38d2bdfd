// Package legend maps block kinds to presentation attributes used when
// rendering graphs: Graphviz shape, fill color, node style, and a short
// description. The default palette gives decision points diamond shapes,
// memory operations a hexagon, early exits an octagon, and each I/O
// operation its own color so mixed graphs stay readable.
package legend

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/fortdoc/fortflow/pkg/flow"
)

// Entry holds the presentation attributes for one block kind.
type Entry struct {
	Shape       string `json:"shape" yaml:"shape"`
	Color       string `json:"color" yaml:"color"`
	ColorName   string `json:"color_name,omitempty" yaml:"color_name,omitempty"`
	Style       string `json:"style" yaml:"style"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Legend is a total mapping from block kind to presentation attributes.
type Legend map[flow.BlockKind]Entry

var reHexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Default returns the standard palette. Every kind flow.BlockKinds reports
// has an entry.
func Default() Legend {
	return Legend{
		flow.BlockEntry:       {Shape: "box", Color: "#90EE90", ColorName: "Light green", Style: "filled", Description: "Procedure entry point"},
		flow.BlockExit:        {Shape: "box", Color: "#FFB6C1", ColorName: "Light pink", Style: "filled", Description: "Procedure exit point"},
		flow.BlockReturn:      {Shape: "box", Color: "#FFB6C1", ColorName: "Light pink", Style: "filled", Description: "Return statement"},
		flow.BlockUse:         {Shape: "box", Color: "#B0E0E6", ColorName: "Powder blue", Style: "filled", Description: "USE statement"},
		flow.BlockStatement:   {Shape: "box", Color: "#E0E0E0", ColorName: "Light gray", Style: "filled", Description: "Regular statement block"},
		flow.BlockIfCondition: {Shape: "diamond", Color: "#87CEEB", ColorName: "Sky blue", Style: "filled", Description: "IF condition decision point"},
		flow.BlockDoLoop:      {Shape: "diamond", Color: "#DDA0DD", ColorName: "Plum", Style: "filled", Description: "DO loop control"},
		flow.BlockSelectCase:  {Shape: "diamond", Color: "#F0E68C", ColorName: "Khaki", Style: "filled", Description: "SELECT CASE statement"},
		flow.BlockCase:        {Shape: "box", Color: "#FFE4B5", ColorName: "Moccasin", Style: "filled", Description: "CASE block within SELECT"},
		flow.BlockIOOpen:      {Shape: "box", Color: "#4A90E2", ColorName: "Medium blue", Style: "filled,rounded", Description: "I/O: OPEN file operation"},
		flow.BlockIORead:      {Shape: "box", Color: "#50C878", ColorName: "Emerald green", Style: "filled,rounded", Description: "I/O: READ operation"},
		flow.BlockIOWrite:     {Shape: "box", Color: "#FF6B6B", ColorName: "Coral red", Style: "filled,rounded", Description: "I/O: WRITE operation"},
		flow.BlockIOClose:     {Shape: "box", Color: "#9370DB", ColorName: "Medium purple", Style: "filled,rounded", Description: "I/O: CLOSE file operation"},
		flow.BlockIORewind:    {Shape: "box", Color: "#FFD700", ColorName: "Gold", Style: "filled,rounded", Description: "I/O: REWIND file operation"},
		flow.BlockIOInquire:   {Shape: "box", Color: "#20B2AA", ColorName: "Light sea green", Style: "filled,rounded", Description: "I/O: INQUIRE file status"},
		flow.BlockIOPrint:     {Shape: "box", Color: "#FF69B4", ColorName: "Hot pink", Style: "filled,rounded", Description: "I/O: PRINT output"},
		flow.BlockMemory:      {Shape: "hexagon", Color: "#52BE80", ColorName: "Green", Style: "filled", Description: "Memory operations (ALLOCATE, DEALLOCATE)"},
		flow.BlockExitKeyword: {Shape: "octagon", Color: "#EC7063", ColorName: "Red", Style: "filled", Description: "Early exit (RETURN, EXIT, CYCLE)"},
		flow.BlockCallKeyword: {Shape: "box", Color: "#BB8FCE", ColorName: "Purple", Style: "filled,bold", Description: "Procedure call (CALL)"},
	}
}

// Entry returns the attributes for the given kind, falling back to the
// statement entry for kinds the legend does not cover.
func (l Legend) Entry(kind flow.BlockKind) Entry {
	if e, ok := l[kind]; ok {
		return e
	}
	return l[flow.BlockStatement]
}

// Override applies per-kind color overrides, typically sourced from user
// configuration. Unknown kind names and malformed colors are rejected.
func (l Legend) Override(colors map[string]string) error {
	for name, color := range colors {
		kind := flow.BlockKind(name)
		e, ok := l[kind]
		if !ok {
			return fmt.Errorf("unknown block kind %q", name)
		}
		if !reHexColor.MatchString(color) {
			return fmt.Errorf("invalid color %q for block kind %q", color, name)
		}
		e.Color = color
		e.ColorName = ""
		l[kind] = e
	}
	return nil
}

// Validate checks that the legend covers every block kind and that every
// entry carries a shape and a well-formed color.
func (l Legend) Validate() error {
	for _, kind := range flow.BlockKinds() {
		e, ok := l[kind]
		if !ok {
			return fmt.Errorf("legend missing block kind %q", kind)
		}
		if e.Shape == "" {
			return fmt.Errorf("legend entry for %q has no shape", kind)
		}
		if !reHexColor.MatchString(e.Color) {
			return fmt.Errorf("legend entry for %q has invalid color %q", kind, e.Color)
		}
	}
	return nil
}

// Kinds returns the legend's block kinds in a stable order: structural
// kinds first in the order flow.BlockKinds reports them, then any extras
// sorted by name.
func (l Legend) Kinds() []flow.BlockKind {
	known := flow.BlockKinds()
	seen := make(map[flow.BlockKind]bool, len(known))
	var kinds []flow.BlockKind
	for _, kind := range known {
		if _, ok := l[kind]; ok {
			kinds = append(kinds, kind)
			seen[kind] = true
		}
	}
	var extra []flow.BlockKind
	for kind := range l {
		if !seen[kind] {
			extra = append(extra, kind)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(kinds, extra...)
}
