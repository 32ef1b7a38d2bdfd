// Package fortran isolates procedure bodies from Fortran source files. It
// finds subroutine/function boundaries, extracts declared argument lists,
// and hands each body to the flow engine as numbered source lines. Boundary
// detection is deliberately line-based, matching the flow engine's
// tolerance: a file that never closes a procedure still yields a usable
// body.
package fortran

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/fortdoc/fortflow/pkg/flow"
)

// Procedure is one subroutine or function found in a source file, with its
// body isolated and declaration lines numbered against the original file.
type Procedure struct {
	Name      string            `json:"name"`
	Kind      string            `json:"kind"` // "subroutine" or "function"
	Args      []string          `json:"args,omitempty"`
	StartLine int               `json:"start_line"`
	EndLine   int               `json:"end_line"`
	Body      []flow.SourceLine `json:"-"`
}

// File is the parse result for one source file.
type File struct {
	Path       string      `json:"path"`
	Procedures []Procedure `json:"procedures"`
}

var (
	reProcStart = regexp.MustCompile(`(?i)^\s*` +
		`(?:(?:pure|elemental|impure|recursive|module)\s+)*` +
		`(?:(?:integer|real|double\s+precision|complex|logical|character|type\s*\([^)]*\))(?:\s*\([^)]*\))?\s+)?` +
		`(subroutine|function)\s+(\w+)\s*(?:\(([^)]*)\))?`)
	reProcEnd  = regexp.MustCompile(`(?i)^\s*end\s*(subroutine|function)\b`)
	reContains = regexp.MustCompile(`(?i)^\s*contains\s*$`)
)

// Parse finds every procedure in the source text. It never fails: a
// procedure left open at end of file is closed there.
func Parse(source string) []Procedure {
	var procs []Procedure
	var open *Procedure
	bodyDone := false

	lines := strings.Split(source, "\n")
	for i, raw := range lines {
		num := i + 1
		trimmed := strings.TrimSpace(raw)

		if open != nil {
			if reProcEnd.MatchString(trimmed) {
				open.EndLine = num
				procs = append(procs, *open)
				open = nil
				bodyDone = false
				continue
			}
			if reContains.MatchString(trimmed) {
				// Internal procedures follow; the host body is complete.
				bodyDone = true
				continue
			}
			if bodyDone {
				if m := reProcStart.FindStringSubmatch(trimmed); m != nil {
					// Close the host at the nested declaration; the nested
					// procedure is parsed on its own.
					open.EndLine = num - 1
					procs = append(procs, *open)
					open = newProcedure(m, num)
					bodyDone = false
				}
				continue
			}
			open.Body = append(open.Body, flow.MakeLine(num, raw))
			continue
		}

		if m := reProcStart.FindStringSubmatch(trimmed); m != nil {
			open = newProcedure(m, num)
		}
	}

	if open != nil {
		open.EndLine = len(lines)
		procs = append(procs, *open)
	}
	return procs
}

func newProcedure(m []string, line int) *Procedure {
	return &Procedure{
		Name:      m[2],
		Kind:      strings.ToLower(m[1]),
		Args:      splitArgs(m[3]),
		StartLine: line,
	}
}

func splitArgs(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	args := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			args = append(args, p)
		}
	}
	return args
}

// Find returns the named procedure from the source text.
func Find(source, name string) (*Procedure, bool) {
	for _, p := range Parse(source) {
		if strings.EqualFold(p.Name, name) {
			return &p, true
		}
	}
	return nil, false
}

// ParseFile reads and parses one source file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &File{Path: path, Procedures: Parse(string(data))}, nil
}

// FlowProcedure converts a parsed procedure into the flow engine's input.
func (p *Procedure) FlowProcedure() flow.Procedure {
	return flow.Procedure{
		Name:  p.Name,
		Kind:  p.Kind,
		Args:  p.Args,
		Lines: p.Body,
	}
}

// Identity is a stable cache key component for this procedure.
func (p *Procedure) Identity() string {
	return fmt.Sprintf("%s %s/%d-%d", p.Kind, p.Name, p.StartLine, p.EndLine)
}
