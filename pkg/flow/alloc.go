package flow

import (
	"regexp"
	"sort"
	"strings"
)

// AllocationSummary groups allocate/deallocate statements by variable so a
// reader can spot unbalanced memory handling at a glance.
type AllocationSummary struct {
	Variable        string `json:"variable"`
	AllocateLines   []int  `json:"allocate_lines,omitempty"`
	DeallocateLines []int  `json:"deallocate_lines,omitempty"`
}

var reIdent = regexp.MustCompile(`^[a-zA-Z_]\w*`)

// TrackAllocations scans statement lines for allocate/deallocate calls and
// summarizes them per variable, ordered by variable name.
func TrackAllocations(lines []SourceLine) []AllocationSummary {
	byVar := make(map[string]*AllocationSummary)

	record := func(content string, line int, dealloc bool) {
		for _, name := range allocationVars(content) {
			s, ok := byVar[name]
			if !ok {
				s = &AllocationSummary{Variable: name}
				byVar[name] = s
			}
			if dealloc {
				s.DeallocateLines = append(s.DeallocateLines, line)
			} else {
				s.AllocateLines = append(s.AllocateLines, line)
			}
		}
	}

	for _, line := range lines {
		if line.Class != LineStatement {
			continue
		}
		c := ClassifyStatement(line.Trimmed)
		switch c.Kind {
		case KindAllocate:
			record(c.Body, line.Number, false)
		case KindDeallocate:
			record(c.Body, line.Number, true)
		}
	}

	names := make([]string, 0, len(byVar))
	for name := range byVar {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]AllocationSummary, 0, len(names))
	for _, name := range names {
		out = append(out, *byVar[name])
	}
	return out
}

// allocationVars extracts the variable names from the argument list of an
// allocate/deallocate statement. Splitting is paren-depth aware so shape
// expressions like "hru(10)" or "a(n, m)" stay with their variable.
func allocationVars(content string) []string {
	var parts []string
	var current strings.Builder
	depth := 0
	for _, ch := range content {
		switch ch {
		case '(':
			depth++
			current.WriteRune(ch)
		case ')':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				parts = append(parts, current.String())
				current.Reset()
				continue
			}
			current.WriteRune(ch)
		default:
			current.WriteRune(ch)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	var vars []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		// stat= and errmsg= options are not allocations.
		if idx := strings.IndexAny(part, "=("); idx > 0 && part[idx] == '=' {
			continue
		}
		if name := reIdent.FindString(part); name != "" {
			vars = append(vars, name)
		}
	}
	return vars
}
