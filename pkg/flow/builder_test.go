package flow

import (
	"reflect"
	"testing"
	"time"
)

func testProc(src string) Procedure {
	return Procedure{Name: "test_proc", Kind: "subroutine", Args: []string{"x"}, Lines: Lines(src)}
}

func build(t *testing.T, src string) *Graph {
	t.Helper()
	g, err := BuildGraph(testProc(src), Options{})
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("invalid graph: %v", err)
	}
	return g
}

func blocksOfKind(g *Graph, kind BlockKind) []*BasicBlock {
	var out []*BasicBlock
	for _, b := range g.Blocks {
		if b.Kind == kind {
			out = append(out, b)
		}
	}
	return out
}

func edgeLabel(g *Graph, from, to int) (string, bool) {
	for _, e := range g.Edges {
		if e.From == from && e.To == to {
			return e.Label, true
		}
	}
	return "", false
}

func TestEmptyBodyIsEntryExitGraph(t *testing.T) {
	g := build(t, "")
	if len(g.Blocks) != 2 {
		t.Fatalf("blocks = %d, want entry and exit only", len(g.Blocks))
	}
	if _, ok := edgeLabel(g, g.EntryID, g.ExitID); !ok {
		t.Fatal("missing entry->exit edge")
	}
}

func TestEntryLabelCarriesSignature(t *testing.T) {
	g := build(t, "y = 1")
	entry := g.Block(g.EntryID)
	if entry.Label != "test_proc(x)" {
		t.Errorf("entry label = %q", entry.Label)
	}
}

func TestSimpleConditional(t *testing.T) {
	g := build(t, `if (x > 0) then
y = 1
else
y = 2
end if`)

	conds := blocksOfKind(g, BlockIfCondition)
	if len(conds) != 1 {
		t.Fatalf("if-condition blocks = %d, want 1", len(conds))
	}
	cond := conds[0]
	if cond.Condition != "x > 0" {
		t.Errorf("condition = %q", cond.Condition)
	}
	if len(cond.Successors) != 2 {
		t.Fatalf("condition successors = %d, want 2", len(cond.Successors))
	}

	var trueTarget, falseTarget *BasicBlock
	for _, succ := range cond.Successors {
		label, _ := edgeLabel(g, cond.ID, succ)
		switch label {
		case EdgeTrue:
			trueTarget = g.Block(succ)
		case EdgeFalse:
			falseTarget = g.Block(succ)
		}
	}
	if trueTarget == nil || falseTarget == nil {
		t.Fatal("condition must have one T and one F edge")
	}
	if len(trueTarget.Statements) != 1 || trueTarget.Statements[0] != "y = 1" {
		t.Errorf("T branch statements = %v", trueTarget.Statements)
	}
	if len(falseTarget.Statements) != 1 || falseTarget.Statements[0] != "y = 2" {
		t.Errorf("F branch statements = %v", falseTarget.Statements)
	}

	// Both branches converge on one join block.
	if len(trueTarget.Successors) != 1 || len(falseTarget.Successors) != 1 {
		t.Fatal("branches must each have one successor")
	}
	if trueTarget.Successors[0] != falseTarget.Successors[0] {
		t.Error("branches do not converge on a join block")
	}
	join := g.Block(trueTarget.Successors[0])
	if join.Successors[0] != g.ExitID {
		t.Error("join block must lead to exit")
	}
}

func TestConditionalWithoutElse(t *testing.T) {
	g := build(t, `if (x > 0) then
y = 1
end if
z = 2`)

	cond := blocksOfKind(g, BlockIfCondition)[0]
	falseSeen := false
	for _, succ := range cond.Successors {
		if label, _ := edgeLabel(g, cond.ID, succ); label == EdgeFalse {
			falseSeen = true
			// The false edge falls through to the block after the construct.
			join := g.Block(succ)
			if len(join.Statements) == 0 || join.Statements[0] != "z = 2" {
				t.Errorf("false edge target statements = %v, want fall-through to z = 2", join.Statements)
			}
		}
	}
	if !falseSeen {
		t.Fatal("condition without else must still carry an F edge")
	}
}

func TestLoopBackEdgePlacement(t *testing.T) {
	g := build(t, `do i = 1, n
s = s + i
end do`)

	loops := blocksOfKind(g, BlockDoLoop)
	if len(loops) != 1 {
		t.Fatalf("do-loop blocks = %d, want 1", len(loops))
	}
	header := loops[0]
	if header.Condition != "i = 1, n" {
		t.Errorf("loop control = %q", header.Condition)
	}

	var body *BasicBlock
	exitSeen := false
	for _, succ := range header.Successors {
		switch label, _ := edgeLabel(g, header.ID, succ); label {
		case EdgeLoop:
			body = g.Block(succ)
		case EdgeLoopExit:
			exitSeen = true
		}
	}
	if body == nil || !exitSeen {
		t.Fatal("loop header must have a loop edge and an exit edge")
	}
	if len(body.Statements) != 1 || body.Statements[0] != "s = s + i" {
		t.Errorf("body statements = %v", body.Statements)
	}
	if _, ok := edgeLabel(g, body.ID, header.ID); !ok {
		t.Error("missing back-edge from body to loop header")
	}
}

func TestLoopBackEdgeFromLastBodyBlock(t *testing.T) {
	g := build(t, `do i = 1, n
a = 1
call work(a)
b = 2
end do`)

	header := blocksOfKind(g, BlockDoLoop)[0]
	// The back-edge source must be the block holding the final statement,
	// not the body's first block.
	var backSrc *BasicBlock
	for _, pred := range header.Predecessors {
		b := g.Block(pred)
		if b.Kind == BlockStatement {
			backSrc = b
		}
	}
	if backSrc == nil {
		t.Fatal("no statement-block back-edge into the loop header")
	}
	if len(backSrc.Statements) != 1 || backSrc.Statements[0] != "b = 2" {
		t.Errorf("back-edge source statements = %v, want the last body statement", backSrc.Statements)
	}
}

func TestSelectCase(t *testing.T) {
	g := build(t, `select case (x)
case (1)
a = 1
case default
a = 0
end select`)

	sels := blocksOfKind(g, BlockSelectCase)
	if len(sels) != 1 {
		t.Fatalf("select blocks = %d, want 1", len(sels))
	}
	sel := sels[0]
	if len(sel.Successors) != 2 {
		t.Fatalf("select successors = %d, want 2 arms", len(sel.Successors))
	}

	labels := map[string]bool{}
	for _, succ := range sel.Successors {
		label, _ := edgeLabel(g, sel.ID, succ)
		labels[label] = true
	}
	if !labels["1"] || !labels["default"] {
		t.Fatalf("arm edge labels = %v, want \"1\" and \"default\"", labels)
	}

	// Each arm leads to its own statement block, and both join before exit.
	joins := map[int]bool{}
	for _, arm := range blocksOfKind(g, BlockCase) {
		if len(arm.Successors) != 1 {
			t.Fatalf("case arm successors = %d, want 1", len(arm.Successors))
		}
		stmt := g.Block(arm.Successors[0])
		if stmt.Kind != BlockStatement || len(stmt.Statements) != 1 {
			t.Fatalf("arm body = %+v, want one statement block", stmt)
		}
		joins[stmt.Successors[0]] = true
	}
	if len(joins) != 1 {
		t.Fatalf("arms join at %d distinct blocks, want 1", len(joins))
	}
}

func TestReturnRoutesToExit(t *testing.T) {
	g := build(t, `a = 1
return
b = 2`)

	rets := blocksOfKind(g, BlockReturn)
	if len(rets) != 1 {
		t.Fatalf("return blocks = %d, want 1", len(rets))
	}
	ret := rets[0]
	if len(ret.Successors) != 1 || ret.Successors[0] != g.ExitID {
		t.Fatalf("return successors = %v, want direct edge to exit", ret.Successors)
	}
	// The unreachable trailing statement is excluded from the graph.
	for _, b := range g.Blocks {
		for _, s := range b.Statements {
			if s == "b = 2" {
				t.Error("unreachable statement after return must be pruned")
			}
		}
	}
}

func TestKeywordIsolation(t *testing.T) {
	g := build(t, `a = 1
call compute(a)
b = 2`)

	stmts := blocksOfKind(g, BlockStatement)
	calls := blocksOfKind(g, BlockCallKeyword)
	if len(calls) != 1 {
		t.Fatalf("call blocks = %d, want 1", len(calls))
	}
	if len(stmts) != 2 {
		t.Fatalf("statement blocks = %d, want 2 (call must not be batched)", len(stmts))
	}
	call := calls[0]
	if stmts[0].Successors[0] != call.ID || call.Successors[0] != stmts[1].ID {
		t.Error("expected statement -> call -> statement chain")
	}
}

func TestIOAndMemoryKeywordKinds(t *testing.T) {
	g := build(t, `open(unit=10, file='x.dat')
read(10, *) x
allocate(hru(10))
write(*, *) x
deallocate(hru)
close(10)`)

	wantKinds := []BlockKind{
		BlockIOOpen, BlockIORead, BlockMemory, BlockIOWrite, BlockMemory, BlockIOClose,
	}
	for _, kind := range wantKinds {
		if len(blocksOfKind(g, kind)) == 0 {
			t.Errorf("missing block of kind %q", kind)
		}
	}
	if len(blocksOfKind(g, BlockMemory)) != 2 {
		t.Errorf("memory blocks = %d, want 2", len(blocksOfKind(g, BlockMemory)))
	}
}

func TestStatementBatching(t *testing.T) {
	g := build(t, `a = 1
b = 2
c = 3`)

	stmts := blocksOfKind(g, BlockStatement)
	if len(stmts) != 1 {
		t.Fatalf("statement blocks = %d, want 1 batched block", len(stmts))
	}
	if len(stmts[0].Statements) != 3 {
		t.Errorf("batched statements = %d, want 3", len(stmts[0].Statements))
	}
	if stmts[0].Label != "a = 1" {
		t.Errorf("batched block label = %q, want excerpt of first statement", stmts[0].Label)
	}
	if stmts[0].StartLine != 1 || stmts[0].EndLine != 3 {
		t.Errorf("batched block range = %d..%d", stmts[0].StartLine, stmts[0].EndLine)
	}
}

func TestSingleLineIf(t *testing.T) {
	g := build(t, `if (x > 0) y = 1
z = 2`)

	cond := blocksOfKind(g, BlockIfCondition)[0]
	if cond.Condition != "x > 0" {
		t.Errorf("condition = %q", cond.Condition)
	}
	if len(cond.Successors) != 2 {
		t.Fatalf("inline if successors = %d, want guarded statement and fall-through", len(cond.Successors))
	}
}

func TestSingleLineIfReturn(t *testing.T) {
	g := build(t, `if (x < 0) return
y = 1`)

	rets := blocksOfKind(g, BlockReturn)
	if len(rets) != 1 {
		t.Fatalf("return blocks = %d, want 1", len(rets))
	}
	if rets[0].Successors[0] != g.ExitID {
		t.Error("guarded return must route to the canonical exit")
	}
}

func TestUnterminatedInput(t *testing.T) {
	g := build(t, `if (x > 0) then
y = 1`)

	// build already validates: entry present, exit reachable, no panic.
	if len(blocksOfKind(g, BlockIfCondition)) != 1 {
		t.Error("force-closed conditional missing from graph")
	}
}

func TestMismatchedCloserTolerated(t *testing.T) {
	g := build(t, `do i = 1, n
s = s + i
end if
end do`)

	if len(blocksOfKind(g, BlockDoLoop)) != 1 {
		t.Error("do loop lost to a stray end if")
	}
}

func TestUseBlockAfterEntry(t *testing.T) {
	g := build(t, `use basin_module
use time_module
x = 1`)

	uses := blocksOfKind(g, BlockUse)
	if len(uses) != 1 {
		t.Fatalf("use blocks = %d, want 1", len(uses))
	}
	if len(uses[0].Statements) != 2 {
		t.Errorf("use statements = %d, want both batched", len(uses[0].Statements))
	}
	if uses[0].Predecessors[0] != g.EntryID {
		t.Error("use block must follow entry")
	}
}

func TestDeterminism(t *testing.T) {
	src := `use basin_module
if (x > 0) then
  do i = 1, n
    call work(i)
  end do
else
  select case (mode)
  case (1)
    y = 1
  case default
    y = 0
  end select
end if
return`

	first, err := BuildGraph(testProc(src), Options{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := BuildGraph(testProc(src), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first.Edges, second.Edges) {
		t.Error("edge lists differ between identical runs")
	}
	if len(first.Blocks) != len(second.Blocks) {
		t.Fatalf("block counts differ: %d vs %d", len(first.Blocks), len(second.Blocks))
	}
	for i := range first.Blocks {
		a, b := first.Blocks[i], second.Blocks[i]
		if a.ID != b.ID || a.Kind != b.Kind || a.Label != b.Label {
			t.Errorf("block %d differs: %+v vs %+v", i, a, b)
		}
	}
}

func TestSingleEntryInvariant(t *testing.T) {
	sources := []string{
		"",
		"y = 1",
		"if (x > 0) then\ny = 1\nend if",
		"do i = 1, n\nif (x > 0) then\nreturn\nend if\nend do",
		"select case (x)\ncase (1)\nexit\nend select",
		"if (x > 0) then\ny = 1", // truncated
	}
	for _, src := range sources {
		g := build(t, src)
		noPreds := 0
		for _, b := range g.Blocks {
			if len(b.Predecessors) == 0 {
				noPreds++
			}
		}
		if noPreds != 1 {
			t.Errorf("source %q: %d blocks without predecessors, want exactly the entry", src, noPreds)
		}
	}
}

func TestBudgetExceeded(t *testing.T) {
	var src string
	for i := 0; i < 5000; i++ {
		src += "x = x + 1\n"
	}
	proc := testProc(src)

	_, err := BuildGraph(proc, Options{Budget: time.Nanosecond})
	if err != ErrBudgetExceeded {
		t.Fatalf("err = %v, want ErrBudgetExceeded", err)
	}

	res := Analyze(proc, Options{Budget: time.Nanosecond})
	if !res.Unavailable {
		t.Fatal("result must be flagged unavailable on budget overrun")
	}
	if res.Graph != nil {
		t.Fatal("no partial graph may leak out of a timed-out build")
	}
	if res.Outline == nil {
		t.Error("outline must still be produced when the graph times out")
	}
}

func TestAnalyzeEmptyIsAvailable(t *testing.T) {
	res := Analyze(testProc(""), Options{})
	if res.Unavailable {
		t.Fatal("empty body is a valid graph, not an unavailable result")
	}
	if res.Graph == nil || len(res.Graph.Blocks) != 2 {
		t.Fatalf("empty body graph = %+v, want entry+exit", res.Graph)
	}
}
