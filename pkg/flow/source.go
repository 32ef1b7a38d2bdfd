// Package flow extracts control flow structure from Fortran procedure bodies.
// It provides a line classifier, a nesting stack machine that builds a logic
// block tree, and a basic-block graph builder. The package operates purely on
// in-memory text: it never reads files, writes files, or logs.
package flow

import (
	"regexp"
	"strings"
)

// LineClass categorizes a physical source line.
type LineClass string

const (
	LineBlank      LineClass = "blank"       // Empty or whitespace-only
	LineDocComment LineClass = "doc_comment" // "!!" documentation comment
	LineComment    LineClass = "comment"     // "!" ordinary comment
	LineStatement  LineClass = "statement"   // Anything else
)

// ConstructKind identifies the control construct a statement line opens,
// closes, or represents.
type ConstructKind string

const (
	KindIfOpen      ConstructKind = "if_open"
	KindElseIf      ConstructKind = "else_if"
	KindElse        ConstructKind = "else"
	KindIfClose     ConstructKind = "if_close"
	KindDoOpen      ConstructKind = "do_open"
	KindDoClose     ConstructKind = "do_close"
	KindSelectOpen  ConstructKind = "select_open"
	KindCaseArm     ConstructKind = "case_arm"
	KindCaseDefault ConstructKind = "case_default"
	KindSelectClose ConstructKind = "select_close"
	KindSingleIf    ConstructKind = "single_if"
	KindCall        ConstructKind = "call"
	KindIOOpen      ConstructKind = "io_open"
	KindIORead      ConstructKind = "io_read"
	KindIOWrite     ConstructKind = "io_write"
	KindIOClose     ConstructKind = "io_close"
	KindIORewind    ConstructKind = "io_rewind"
	KindIOInquire   ConstructKind = "io_inquire"
	KindIOPrint     ConstructKind = "io_print"
	KindAllocate    ConstructKind = "allocate"
	KindDeallocate  ConstructKind = "deallocate"
	KindReturn      ConstructKind = "return"
	KindExit        ConstructKind = "exit"
	KindCycle       ConstructKind = "cycle"
	KindUse         ConstructKind = "use"
	KindDeclaration ConstructKind = "declaration"
	KindStatement   ConstructKind = "statement"
)

// SourceLine is one physical line of procedure source. Line numbers are
// 1-based and stable across the whole pipeline.
type SourceLine struct {
	Number  int       `json:"number"`
	Raw     string    `json:"raw"`
	Trimmed string    `json:"trimmed"`
	Class   LineClass `json:"class"`
}

// Classification is the result of matching a statement line against the
// construct pattern table.
type Classification struct {
	Kind      ConstructKind // Construct kind, KindStatement if unrecognized
	Condition string        // Condition / loop control / select expression
	Label     string        // Optional Fortran construct label (name: if ...)
	Body      string        // Statement part of a single-line IF
}

// Lines converts raw source text into SourceLines with 1-based numbering.
func Lines(source string) []SourceLine {
	raw := strings.Split(source, "\n")
	lines := make([]SourceLine, 0, len(raw))
	for i, r := range raw {
		lines = append(lines, MakeLine(i+1, r))
	}
	return lines
}

// MakeLine builds a single classified SourceLine from a (number, text) pair.
func MakeLine(number int, raw string) SourceLine {
	trimmed := strings.TrimSpace(raw)
	return SourceLine{
		Number:  number,
		Raw:     raw,
		Trimmed: trimmed,
		Class:   classOf(trimmed),
	}
}

func classOf(trimmed string) LineClass {
	switch {
	case trimmed == "":
		return LineBlank
	case strings.HasPrefix(trimmed, "!!"):
		return LineDocComment
	case strings.HasPrefix(trimmed, "!"):
		return LineComment
	default:
		return LineStatement
	}
}

// DocText returns the text of a doc-comment line with the "!!" marker removed.
func (l SourceLine) DocText() string {
	return strings.TrimSpace(strings.TrimPrefix(l.Trimmed, "!!"))
}

// Pattern table for Fortran control flow statements. Rules are evaluated in
// order, most specific first: IF-THEN must win over the single-line IF form,
// CASE DEFAULT over CASE, and the keyword statements over the plain
// statement fallback.
var (
	reIfThen      = regexp.MustCompile(`(?i)^(?:(\w+)\s*:)?\s*if\s*\((.*)\)\s*then\s*$`)
	reElseIf      = regexp.MustCompile(`(?i)^else\s*if\s*\((.*)\)\s*then\s*$`)
	reElse        = regexp.MustCompile(`(?i)^else\s*$`)
	reEndIf       = regexp.MustCompile(`(?i)^end\s*if(?:\s+(\w+))?\s*$`)
	reDo          = regexp.MustCompile(`(?i)^(?:(\w+)\s*:)?\s*do(?:\s+(.*))?$`)
	reEndDo       = regexp.MustCompile(`(?i)^end\s*do(?:\s+(\w+))?\s*$`)
	reSelectCase  = regexp.MustCompile(`(?i)^(?:(\w+)\s*:)?\s*select\s+case\s*\((.*)\)\s*$`)
	reCase        = regexp.MustCompile(`(?i)^case\s*\((.*)\)\s*$`)
	reCaseDefault = regexp.MustCompile(`(?i)^case\s+default\s*$`)
	reEndSelect   = regexp.MustCompile(`(?i)^end\s*select(?:\s+(\w+))?\s*$`)
	reSingleIf    = regexp.MustCompile(`(?i)^if\s*\((.*?)\)\s+(\S.*)$`)
	reReturn      = regexp.MustCompile(`(?i)^return\s*$`)
	reExit        = regexp.MustCompile(`(?i)^exit(?:\s+\w+)?\s*$`)
	reCycle       = regexp.MustCompile(`(?i)^cycle(?:\s+\w+)?\s*$`)
	reCall        = regexp.MustCompile(`(?i)^call\s+(\w+)`)
	reIOOpen      = regexp.MustCompile(`(?i)^open\s*\(`)
	reIORead      = regexp.MustCompile(`(?i)^read\s*[\(\*]`)
	reIOWrite     = regexp.MustCompile(`(?i)^write\s*\(`)
	reIOClose     = regexp.MustCompile(`(?i)^close\s*\(`)
	reIORewind    = regexp.MustCompile(`(?i)^rewind\b`)
	reIOInquire   = regexp.MustCompile(`(?i)^inquire\s*\(`)
	reIOPrint     = regexp.MustCompile(`(?i)^print\b`)
	reAllocate    = regexp.MustCompile(`(?i)^allocate\s*\((.*)\)`)
	reDeallocate  = regexp.MustCompile(`(?i)^deallocate\s*\((.*)\)`)
	reUse         = regexp.MustCompile(`(?i)^use\s+(\w+)`)
	reImplicit    = regexp.MustCompile(`(?i)^implicit\s+`)
	reDeclaration = regexp.MustCompile(`(?i)^(?:integer|real|double\s+precision|complex|logical|character|class|procedure|dimension|type\s*\()`)
)

// ClassifyStatement matches a trimmed statement line against the construct
// pattern table. An unrecognized line classifies as KindStatement; this
// function never fails.
func ClassifyStatement(trimmed string) Classification {
	if m := reIfThen.FindStringSubmatch(trimmed); m != nil {
		return Classification{Kind: KindIfOpen, Label: m[1], Condition: m[2]}
	}
	if m := reElseIf.FindStringSubmatch(trimmed); m != nil {
		return Classification{Kind: KindElseIf, Condition: m[1]}
	}
	if reElse.MatchString(trimmed) {
		return Classification{Kind: KindElse}
	}
	if m := reEndIf.FindStringSubmatch(trimmed); m != nil {
		return Classification{Kind: KindIfClose, Label: m[1]}
	}
	if m := reEndDo.FindStringSubmatch(trimmed); m != nil {
		return Classification{Kind: KindDoClose, Label: m[1]}
	}
	if m := reSelectCase.FindStringSubmatch(trimmed); m != nil {
		return Classification{Kind: KindSelectOpen, Label: m[1], Condition: m[2]}
	}
	if reCaseDefault.MatchString(trimmed) {
		return Classification{Kind: KindCaseDefault, Condition: "DEFAULT"}
	}
	if m := reCase.FindStringSubmatch(trimmed); m != nil {
		return Classification{Kind: KindCaseArm, Condition: m[1]}
	}
	if m := reEndSelect.FindStringSubmatch(trimmed); m != nil {
		return Classification{Kind: KindSelectClose, Label: m[1]}
	}
	if m := reDo.FindStringSubmatch(trimmed); m != nil {
		return Classification{Kind: KindDoOpen, Label: m[1], Condition: strings.TrimSpace(m[2])}
	}
	if m := reSingleIf.FindStringSubmatch(trimmed); m != nil {
		// "if (c) then" already matched above, so the trailing part here is a
		// real statement and the line is a self-contained leaf.
		if !strings.EqualFold(strings.TrimSpace(m[2]), "then") {
			return Classification{Kind: KindSingleIf, Condition: m[1], Body: m[2]}
		}
	}
	if reReturn.MatchString(trimmed) {
		return Classification{Kind: KindReturn}
	}
	if reExit.MatchString(trimmed) {
		return Classification{Kind: KindExit}
	}
	if reCycle.MatchString(trimmed) {
		return Classification{Kind: KindCycle}
	}
	if m := reCall.FindStringSubmatch(trimmed); m != nil {
		return Classification{Kind: KindCall, Body: m[1]}
	}
	if reIOOpen.MatchString(trimmed) {
		return Classification{Kind: KindIOOpen}
	}
	if reIORead.MatchString(trimmed) {
		return Classification{Kind: KindIORead}
	}
	if reIOWrite.MatchString(trimmed) {
		return Classification{Kind: KindIOWrite}
	}
	if reIOClose.MatchString(trimmed) {
		return Classification{Kind: KindIOClose}
	}
	if reIORewind.MatchString(trimmed) {
		return Classification{Kind: KindIORewind}
	}
	if reIOInquire.MatchString(trimmed) {
		return Classification{Kind: KindIOInquire}
	}
	if reIOPrint.MatchString(trimmed) {
		return Classification{Kind: KindIOPrint}
	}
	if m := reAllocate.FindStringSubmatch(trimmed); m != nil {
		return Classification{Kind: KindAllocate, Body: m[1]}
	}
	if m := reDeallocate.FindStringSubmatch(trimmed); m != nil {
		return Classification{Kind: KindDeallocate, Body: m[1]}
	}
	if m := reUse.FindStringSubmatch(trimmed); m != nil {
		return Classification{Kind: KindUse, Body: m[1]}
	}
	if reImplicit.MatchString(trimmed) || reDeclaration.MatchString(trimmed) {
		return Classification{Kind: KindDeclaration}
	}
	return Classification{Kind: KindStatement}
}

// IsKeyword reports whether the construct kind is a keyword statement that
// must get its own basic block (call, I/O, memory, early exit). Keyword lines
// are never batched with plain statements.
func (k ConstructKind) IsKeyword() bool {
	switch k {
	case KindCall, KindIOOpen, KindIORead, KindIOWrite, KindIOClose,
		KindIORewind, KindIOInquire, KindIOPrint,
		KindAllocate, KindDeallocate,
		KindReturn, KindExit, KindCycle:
		return true
	}
	return false
}

// IsEarlyExit reports whether the kind transfers control out of the normal
// statement sequence.
func (k ConstructKind) IsEarlyExit() bool {
	return k == KindReturn || k == KindExit || k == KindCycle
}
