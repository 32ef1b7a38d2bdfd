package flow

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrBudgetExceeded is returned when graph construction for a single
// procedure runs past its wall-clock budget. It is an expected outcome for
// pathological input, not a failure of the batch.
var ErrBudgetExceeded = errors.New("construction budget exceeded")

// DefaultExcerptWidth is the label width for batched statement blocks.
const DefaultExcerptWidth = 50

// Procedure is the unit of analysis: an isolated procedure body plus its
// declared signature. Boundary detection is the caller's responsibility
// (see package fortran).
type Procedure struct {
	Name  string       `json:"name"`
	Kind  string       `json:"kind"` // "subroutine" or "function"
	Args  []string     `json:"args,omitempty"`
	Lines []SourceLine `json:"-"`
}

// Options tunes graph construction. The zero value means no deadline and the
// default excerpt width.
type Options struct {
	Budget       time.Duration // Per-procedure wall-clock budget (0 = none)
	ExcerptWidth int           // Statement block label width (0 = default)
}

// controlFrame tracks one open construct during graph construction. decision
// is the condition / loop header / select block; follow is the join block
// control converges on after the construct.
type controlFrame struct {
	kind     LogicBlockKind
	decision *BasicBlock
	follow   *BasicBlock
	hasElse  bool
}

type graphBuilder struct {
	graph    *Graph
	current  *BasicBlock
	exit     *BasicBlock
	stack    []controlFrame
	deadline time.Time
	excerpt  int
}

// BuildGraph constructs the control flow graph for one procedure. It never
// fails on malformed input; the only error is ErrBudgetExceeded, and in that
// case no partial graph is returned.
func BuildGraph(proc Procedure, opts Options) (*Graph, error) {
	width := opts.ExcerptWidth
	if width <= 0 {
		width = DefaultExcerptWidth
	}
	b := &graphBuilder{
		graph:   NewGraph(proc.Name, proc.Kind, proc.Args),
		excerpt: width,
	}
	if opts.Budget > 0 {
		b.deadline = time.Now().Add(opts.Budget)
	}

	entry := b.graph.NewBlock(BlockEntry, entryLabel(proc))
	b.graph.EntryID = entry.ID
	b.exit = b.graph.NewBlock(BlockExit, "Return")
	b.graph.ExitID = b.exit.ID
	b.current = entry

	for _, line := range proc.Lines {
		if !b.deadline.IsZero() && time.Now().After(b.deadline) {
			return nil, ErrBudgetExceeded
		}
		if line.Class != LineStatement {
			continue
		}
		b.consume(line)
	}

	// Force-close any unterminated constructs so control still converges.
	for len(b.stack) > 0 {
		b.closeTop()
	}
	if b.current.ID != b.exit.ID {
		b.graph.AddEdge(b.current.ID, b.exit.ID, "")
	}
	b.prune()
	return b.graph, nil
}

func entryLabel(proc Procedure) string {
	if len(proc.Args) == 0 {
		return proc.Name
	}
	return fmt.Sprintf("%s(%s)", proc.Name, strings.Join(proc.Args, ", "))
}

func (b *graphBuilder) consume(line SourceLine) {
	c := ClassifyStatement(line.Trimmed)
	switch c.Kind {
	case KindIfOpen:
		b.openIf(c, line)
	case KindElseIf:
		b.elseIf(c, line)
	case KindElse:
		b.elseArm(line)
	case KindIfClose:
		b.closeIf()
	case KindDoOpen:
		b.openDo(c, line)
	case KindDoClose:
		b.closeDo()
	case KindSelectOpen:
		b.openSelect(c, line)
	case KindCaseArm, KindCaseDefault:
		b.caseArm(c, line)
	case KindSelectClose:
		b.closeSelect()
	case KindSingleIf:
		b.singleIf(c, line)
	case KindUse:
		b.useStatement(line)
	case KindDeclaration:
		// Declarations carry no control flow.
	default:
		if c.Kind.IsKeyword() {
			b.keyword(c, line)
			return
		}
		b.statement(line)
	}
}

func (b *graphBuilder) top(kind LogicBlockKind) *controlFrame {
	if len(b.stack) == 0 {
		return nil
	}
	f := &b.stack[len(b.stack)-1]
	if f.kind != kind {
		return nil
	}
	return f
}

func (b *graphBuilder) pop() controlFrame {
	f := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return f
}

func (b *graphBuilder) newStatementBlock(label string, line int) *BasicBlock {
	blk := b.graph.NewBlock(BlockStatement, label)
	blk.StartLine = line
	blk.EndLine = line
	return blk
}

func (b *graphBuilder) openIf(c Classification, line SourceLine) {
	cond := b.graph.NewBlock(BlockIfCondition, fmt.Sprintf("IF (%s)", c.Condition))
	cond.Condition = c.Condition
	cond.StartLine = line.Number
	cond.EndLine = line.Number
	b.graph.AddEdge(b.current.ID, cond.ID, "")

	then := b.newStatementBlock("THEN", line.Number)
	b.graph.AddEdge(cond.ID, then.ID, EdgeTrue)

	follow := b.newStatementBlock("After IF", line.Number)
	b.stack = append(b.stack, controlFrame{kind: LogicIf, decision: cond, follow: follow})
	b.current = then
}

func (b *graphBuilder) elseIf(c Classification, line SourceLine) {
	f := b.top(LogicIf)
	if f == nil {
		return
	}
	b.graph.AddEdge(b.current.ID, f.follow.ID, "")

	cond := b.graph.NewBlock(BlockIfCondition, fmt.Sprintf("ELSE IF (%s)", c.Condition))
	cond.Condition = c.Condition
	cond.StartLine = line.Number
	cond.EndLine = line.Number
	b.graph.AddEdge(f.decision.ID, cond.ID, EdgeFalse)

	body := b.newStatementBlock("ELSE IF body", line.Number)
	b.graph.AddEdge(cond.ID, body.ID, EdgeTrue)

	f.decision = cond
	b.current = body
}

func (b *graphBuilder) elseArm(line SourceLine) {
	f := b.top(LogicIf)
	if f == nil {
		return
	}
	b.graph.AddEdge(b.current.ID, f.follow.ID, "")

	blk := b.newStatementBlock("ELSE", line.Number)
	b.graph.AddEdge(f.decision.ID, blk.ID, EdgeFalse)
	f.hasElse = true
	b.current = blk
}

func (b *graphBuilder) closeIf() {
	if b.top(LogicIf) == nil {
		return
	}
	f := b.pop()
	b.graph.AddEdge(b.current.ID, f.follow.ID, "")
	if !f.hasElse {
		b.graph.AddEdge(f.decision.ID, f.follow.ID, EdgeFalse)
	}
	b.current = f.follow
}

func (b *graphBuilder) openDo(c Classification, line SourceLine) {
	label := "DO"
	if c.Condition != "" {
		label = "DO " + c.Condition
	}
	header := b.graph.NewBlock(BlockDoLoop, label)
	header.Condition = c.Condition
	header.StartLine = line.Number
	header.EndLine = line.Number
	b.graph.AddEdge(b.current.ID, header.ID, "")

	body := b.newStatementBlock("Loop body", line.Number)
	b.graph.AddEdge(header.ID, body.ID, EdgeLoop)

	follow := b.newStatementBlock("After loop", line.Number)
	b.graph.AddEdge(header.ID, follow.ID, EdgeLoopExit)

	b.stack = append(b.stack, controlFrame{kind: LogicDo, decision: header, follow: follow})
	b.current = body
}

func (b *graphBuilder) closeDo() {
	if b.top(LogicDo) == nil {
		return
	}
	f := b.pop()
	// Back-edge from the last block of the body, not the first.
	b.graph.AddEdge(b.current.ID, f.decision.ID, "")
	b.current = f.follow
}

func (b *graphBuilder) openSelect(c Classification, line SourceLine) {
	sel := b.graph.NewBlock(BlockSelectCase, fmt.Sprintf("SELECT CASE (%s)", c.Condition))
	sel.Condition = c.Condition
	sel.StartLine = line.Number
	sel.EndLine = line.Number
	b.graph.AddEdge(b.current.ID, sel.ID, "")

	follow := b.newStatementBlock("After SELECT", line.Number)
	b.stack = append(b.stack, controlFrame{kind: LogicSelect, decision: sel, follow: follow})
	b.current = sel
}

func (b *graphBuilder) caseArm(c Classification, line SourceLine) {
	f := b.top(LogicSelect)
	if f == nil {
		return
	}
	// The previous arm converges on the join block.
	if b.current.ID != f.decision.ID {
		b.graph.AddEdge(b.current.ID, f.follow.ID, "")
	}

	label := fmt.Sprintf("CASE (%s)", c.Condition)
	edgeLabel := c.Condition
	if c.Kind == KindCaseDefault {
		label = "CASE DEFAULT"
		edgeLabel = "default"
	}
	arm := b.graph.NewBlock(BlockCase, label)
	arm.Condition = c.Condition
	arm.StartLine = line.Number
	arm.EndLine = line.Number
	b.graph.AddEdge(f.decision.ID, arm.ID, edgeLabel)
	b.current = arm
}

func (b *graphBuilder) closeSelect() {
	if b.top(LogicSelect) == nil {
		return
	}
	f := b.pop()
	b.graph.AddEdge(b.current.ID, f.follow.ID, "")
	b.current = f.follow
}

// singleIf handles the one-line "if (c) stmt" form, which opens and closes
// on the same physical line. The guarded statement keeps keyword isolation:
// a guarded RETURN still routes to the canonical exit.
func (b *graphBuilder) singleIf(c Classification, line SourceLine) {
	cond := b.graph.NewBlock(BlockIfCondition, fmt.Sprintf("IF (%s)", c.Condition))
	cond.Condition = c.Condition
	cond.StartLine = line.Number
	cond.EndLine = line.Number
	b.graph.AddEdge(b.current.ID, cond.ID, "")

	body := ClassifyStatement(c.Body)
	stmt := b.graph.NewBlock(kindForKeyword(body.Kind), b.clip(c.Body))
	stmt.Statements = []string{c.Body}
	stmt.StartLine = line.Number
	stmt.EndLine = line.Number
	b.graph.AddEdge(cond.ID, stmt.ID, EdgeTrue)

	follow := b.newStatementBlock("Continue", line.Number)
	b.graph.AddEdge(cond.ID, follow.ID, EdgeFalse)
	if body.Kind.IsEarlyExit() {
		b.graph.AddEdge(stmt.ID, b.exit.ID, "")
	} else {
		b.graph.AddEdge(stmt.ID, follow.ID, "")
	}
	b.current = follow
}

// useStatement batches leading USE statements into a dedicated block right
// after entry; a USE appearing mid-body degrades to a plain statement.
func (b *graphBuilder) useStatement(line SourceLine) {
	switch b.current.Kind {
	case BlockUse:
		b.append(b.current, line)
	case BlockEntry:
		blk := b.graph.NewBlock(BlockUse, b.clip(line.Trimmed))
		blk.StartLine = line.Number
		blk.EndLine = line.Number
		blk.Statements = []string{line.Trimmed}
		b.graph.AddEdge(b.current.ID, blk.ID, "")
		b.current = blk
	default:
		b.statement(line)
	}
}

// keyword emits a dedicated block for call, I/O, memory and early-exit
// statements so they are never merged with surrounding plain statements.
func (b *graphBuilder) keyword(c Classification, line SourceLine) {
	blk := b.graph.NewBlock(kindForKeyword(c.Kind), b.clip(line.Trimmed))
	blk.Statements = []string{line.Trimmed}
	blk.StartLine = line.Number
	blk.EndLine = line.Number
	b.graph.AddEdge(b.current.ID, blk.ID, "")

	if c.Kind.IsEarlyExit() {
		b.graph.AddEdge(blk.ID, b.exit.ID, "")
		// Anything after an early exit is unreachable; it parses into a
		// fresh block that the pruning pass drops when it stays empty.
		b.current = b.newStatementBlock("After "+strings.ToUpper(string(c.Kind)), line.Number)
		return
	}
	b.current = blk
}

// statement appends a plain statement, batching consecutive statements into
// the current block when it is a statement block.
func (b *graphBuilder) statement(line SourceLine) {
	if b.current.Kind == BlockStatement {
		b.append(b.current, line)
		return
	}
	blk := b.newStatementBlock(b.clip(line.Trimmed), line.Number)
	blk.Statements = []string{line.Trimmed}
	b.graph.AddEdge(b.current.ID, blk.ID, "")
	b.current = blk
}

func (b *graphBuilder) append(blk *BasicBlock, line SourceLine) {
	if len(blk.Statements) == 0 {
		blk.Label = b.clip(line.Trimmed)
		blk.StartLine = line.Number
	}
	blk.Statements = append(blk.Statements, line.Trimmed)
	blk.EndLine = line.Number
}

// clip shortens a statement to the excerpt width for use as a block label.
func (b *graphBuilder) clip(s string) string {
	r := []rune(s)
	if len(r) <= b.excerpt {
		return s
	}
	return string(r[:b.excerpt]) + "..."
}

// closeTop force-closes the innermost construct at end of input.
func (b *graphBuilder) closeTop() {
	switch b.stack[len(b.stack)-1].kind {
	case LogicIf:
		b.closeIf()
	case LogicDo:
		b.closeDo()
	default:
		b.closeSelect()
	}
}

// prune drops blocks unreachable from the entry. Dead code after early
// exits and placeholder join blocks that never gained a predecessor are
// excluded from the graph rather than violating the single-entry invariant.
func (b *graphBuilder) prune() {
	for {
		removed := false
		for _, blk := range b.graph.Blocks {
			if blk.ID == b.graph.EntryID {
				continue
			}
			if len(blk.Predecessors) == 0 {
				b.graph.removeBlock(blk.ID)
				removed = true
				break
			}
		}
		if !removed {
			return
		}
	}
}

func kindForKeyword(k ConstructKind) BlockKind {
	switch k {
	case KindCall:
		return BlockCallKeyword
	case KindIOOpen:
		return BlockIOOpen
	case KindIORead:
		return BlockIORead
	case KindIOWrite:
		return BlockIOWrite
	case KindIOClose:
		return BlockIOClose
	case KindIORewind:
		return BlockIORewind
	case KindIOInquire:
		return BlockIOInquire
	case KindIOPrint:
		return BlockIOPrint
	case KindAllocate, KindDeallocate:
		return BlockMemory
	case KindReturn:
		return BlockReturn
	case KindExit, KindCycle:
		return BlockExitKeyword
	default:
		return BlockStatement
	}
}
