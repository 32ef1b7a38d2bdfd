package flow

// LogicBlockKind identifies a node in the nested logic tree.
type LogicBlockKind string

const (
	LogicRoot       LogicBlockKind = "root"
	LogicIf         LogicBlockKind = "if"
	LogicElseIf     LogicBlockKind = "elseif"
	LogicElse       LogicBlockKind = "else"
	LogicDo         LogicBlockKind = "do"
	LogicSelect     LogicBlockKind = "select"
	LogicCase       LogicBlockKind = "case"
	LogicStatements LogicBlockKind = "statements"
)

// Statement is one source statement with its original line number.
type Statement struct {
	Text string `json:"text"`
	Line int    `json:"line"`
}

// DocComment is one "!!" documentation comment with its line number.
type DocComment struct {
	Text string `json:"text"`
	Line int    `json:"line"`
}

// LogicBlock is a closed, immutable node of the source-order structure tree.
// Control constructs carry their condition text and nested children;
// consecutive plain statements are grouped into LogicStatements leaves so
// that child order mirrors source order exactly.
type LogicBlock struct {
	Kind       LogicBlockKind `json:"kind"`
	Condition  string         `json:"condition,omitempty"`
	Label      string         `json:"label,omitempty"`
	StartLine  int            `json:"start_line"`
	EndLine    int            `json:"end_line"`
	Statements []Statement    `json:"statements,omitempty"`
	Children   []*LogicBlock  `json:"children,omitempty"`
	Comments   []DocComment   `json:"comments,omitempty"`
}

// blockContext is one open stack frame while the tree is being built.
// Children accumulate while the frame is open; the frame materializes into
// the LogicBlock when its matching closer (or end of input) is seen.
type blockContext struct {
	block *LogicBlock
}

// treeBuilder is the nesting stack machine. The stack is an explicit slice
// of frames, so force-closing at end of input is a simple LIFO drain and
// nesting depth is bounded by the slice, not the call stack.
type treeBuilder struct {
	root    *blockContext
	stack   []*blockContext
	pending []DocComment
}

// BuildLogicTree consumes classified lines in order and produces a single
// root LogicBlock for the procedure. Malformed input never fails: a closer
// that does not match the innermost open construct is skipped, and any
// still-open constructs are force-closed innermost-first at end of input.
func BuildLogicTree(lines []SourceLine) *LogicBlock {
	b := &treeBuilder{
		root: &blockContext{block: &LogicBlock{Kind: LogicRoot}},
	}
	if len(lines) > 0 {
		b.root.block.StartLine = lines[0].Number
		b.root.block.EndLine = lines[len(lines)-1].Number
	}

	for _, line := range lines {
		switch line.Class {
		case LineBlank, LineComment:
			continue
		case LineDocComment:
			b.pending = append(b.pending, DocComment{Text: line.DocText(), Line: line.Number})
			continue
		}

		c := ClassifyStatement(line.Trimmed)
		switch c.Kind {
		case KindIfOpen:
			b.push(LogicIf, c, line.Number)
		case KindElseIf:
			b.sibling(LogicElseIf, c, line.Number, LogicIf, LogicElseIf)
		case KindElse:
			b.sibling(LogicElse, c, line.Number, LogicIf, LogicElseIf)
		case KindIfClose:
			b.close(line.Number, LogicIf, LogicElseIf, LogicElse)
		case KindDoOpen:
			b.push(LogicDo, c, line.Number)
		case KindDoClose:
			b.close(line.Number, LogicDo)
		case KindSelectOpen:
			b.push(LogicSelect, c, line.Number)
		case KindCaseArm, KindCaseDefault:
			b.caseArm(c, line.Number)
		case KindSelectClose:
			// An open CASE arm closes together with its SELECT.
			b.close(line.Number, LogicCase)
			b.close(line.Number, LogicSelect)
		case KindUse, KindDeclaration:
			// Declarations are not part of the procedure's logic.
			continue
		default:
			b.statement(line.Trimmed, line.Number)
		}
	}

	b.forceClose()
	return b.root.block
}

// top returns the innermost open frame, or the root when the stack is empty.
func (b *treeBuilder) top() *blockContext {
	if len(b.stack) == 0 {
		return b.root
	}
	return b.stack[len(b.stack)-1]
}

// takePending drains buffered doc comments for attachment to the next item.
func (b *treeBuilder) takePending() []DocComment {
	p := b.pending
	b.pending = nil
	return p
}

func (b *treeBuilder) push(kind LogicBlockKind, c Classification, line int) {
	blk := &LogicBlock{
		Kind:      kind,
		Condition: c.Condition,
		Label:     c.Label,
		StartLine: line,
		EndLine:   line,
		Comments:  b.takePending(),
	}
	b.stack = append(b.stack, &blockContext{block: blk})
}

// pop closes the innermost frame and appends it to its parent.
func (b *treeBuilder) pop(endLine int) {
	frame := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	frame.block.EndLine = endLine
	parent := b.top()
	parent.block.Children = append(parent.block.Children, frame.block)
	if frame.block.EndLine > parent.block.EndLine {
		parent.block.EndLine = frame.block.EndLine
	}
}

// close pops the innermost frame only when its kind matches one of the
// expected opener kinds; a mismatched closer is skipped so that an "end if"
// can never terminate a "do" frame.
func (b *treeBuilder) close(line int, kinds ...LogicBlockKind) {
	if len(b.stack) == 0 || !kindIn(b.top().block.Kind, kinds) {
		return
	}
	b.pop(line)
}

// sibling replaces the innermost frame with a follow-on arm (else / else if)
// at the same nesting level. The replaced frame becomes a child of the
// parent; the new arm takes its place on the stack.
func (b *treeBuilder) sibling(kind LogicBlockKind, c Classification, line int, expect ...LogicBlockKind) {
	if len(b.stack) == 0 || !kindIn(b.top().block.Kind, expect) {
		return
	}
	b.pop(line - 1)
	b.push(kind, c, line)
}

// caseArm opens a CASE frame inside a SELECT, closing any previous arm first.
func (b *treeBuilder) caseArm(c Classification, line int) {
	if len(b.stack) == 0 {
		return
	}
	if b.top().block.Kind == LogicCase {
		b.pop(line - 1)
	}
	if b.top().block.Kind != LogicSelect {
		return
	}
	b.push(LogicCase, c, line)
}

// statement appends a plain statement to the innermost frame, grouping
// consecutive statements into a trailing LogicStatements child.
func (b *treeBuilder) statement(text string, line int) {
	parent := b.top().block
	if line > parent.EndLine {
		parent.EndLine = line
	}
	n := len(parent.Children)
	pending := b.takePending()
	if n > 0 && parent.Children[n-1].Kind == LogicStatements && len(pending) == 0 {
		leaf := parent.Children[n-1]
		leaf.Statements = append(leaf.Statements, Statement{Text: text, Line: line})
		leaf.EndLine = line
		return
	}
	parent.Children = append(parent.Children, &LogicBlock{
		Kind:       LogicStatements,
		StartLine:  line,
		EndLine:    line,
		Statements: []Statement{{Text: text, Line: line}},
		Comments:   pending,
	})
}

// forceClose drains all still-open frames in LIFO order so the tree is
// always complete, even for truncated input.
func (b *treeBuilder) forceClose() {
	for len(b.stack) > 0 {
		frame := b.stack[len(b.stack)-1]
		b.pop(frame.block.EndLine)
	}
}

func kindIn(k LogicBlockKind, kinds []LogicBlockKind) bool {
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}
