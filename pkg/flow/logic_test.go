package flow

import "testing"

func tree(src string) *LogicBlock {
	return BuildLogicTree(Lines(src))
}

func TestNestedDistinctKinds(t *testing.T) {
	root := tree(`do i = 1, n
  if (x > 0) then
    select case (mode)
      case (1)
        y = 1
    end select
  end if
end do`)

	if len(root.Children) != 1 {
		t.Fatalf("expected 1 top-level child, got %d", len(root.Children))
	}
	do := root.Children[0]
	if do.Kind != LogicDo || do.Condition != "i = 1, n" {
		t.Fatalf("top child = %q (%q), want do loop", do.Kind, do.Condition)
	}
	if len(do.Children) != 1 || do.Children[0].Kind != LogicIf {
		t.Fatalf("do child = %+v, want single if", do.Children)
	}
	sel := do.Children[0].Children[0]
	if sel.Kind != LogicSelect || sel.Condition != "mode" {
		t.Fatalf("if child = %q (%q), want select", sel.Kind, sel.Condition)
	}
	if len(sel.Children) != 1 || sel.Children[0].Kind != LogicCase {
		t.Fatalf("select children = %+v, want one case", sel.Children)
	}
	arm := sel.Children[0]
	if len(arm.Children) != 1 || arm.Children[0].Kind != LogicStatements {
		t.Fatalf("case children = %+v, want statements leaf", arm.Children)
	}
}

func TestNestedSameKind(t *testing.T) {
	root := tree(`do i = 1, n
  do j = 1, m
    s = s + 1
  end do
  t = t + 1
end do`)

	outer := root.Children[0]
	if outer.Kind != LogicDo || outer.Condition != "i = 1, n" {
		t.Fatalf("outer = %q (%q)", outer.Kind, outer.Condition)
	}
	if len(outer.Children) != 2 {
		t.Fatalf("outer children = %d, want inner do + trailing statements", len(outer.Children))
	}
	inner := outer.Children[0]
	if inner.Kind != LogicDo || inner.Condition != "j = 1, m" {
		t.Fatalf("inner = %q (%q)", inner.Kind, inner.Condition)
	}
	if outer.Children[1].Kind != LogicStatements {
		t.Fatalf("trailing child = %q, want statements", outer.Children[1].Kind)
	}
}

func TestMismatchedCloserIsSkipped(t *testing.T) {
	// "end if" must not close the open do frame.
	root := tree(`do i = 1, n
  s = s + i
end if
end do`)

	if len(root.Children) != 1 {
		t.Fatalf("children = %d, want 1", len(root.Children))
	}
	do := root.Children[0]
	if do.Kind != LogicDo {
		t.Fatalf("child = %q, want do", do.Kind)
	}
	if do.EndLine != 4 {
		t.Errorf("do EndLine = %d, want 4 (closed by end do, not end if)", do.EndLine)
	}
}

func TestForceCloseAtEOF(t *testing.T) {
	root := tree(`if (x > 0) then
  y = 1`)

	if root == nil {
		t.Fatal("tree is nil")
	}
	if len(root.Children) != 1 || root.Children[0].Kind != LogicIf {
		t.Fatalf("children = %+v, want force-closed if", root.Children)
	}
	body := root.Children[0].Children
	if len(body) != 1 || body[0].Kind != LogicStatements {
		t.Fatalf("if body = %+v, want statements leaf", body)
	}
}

func TestElseArmsBecomeSiblings(t *testing.T) {
	root := tree(`if (x > 0) then
  y = 1
else if (x < 0) then
  y = -1
else
  y = 0
end if`)

	kinds := make([]LogicBlockKind, 0, len(root.Children))
	for _, c := range root.Children {
		kinds = append(kinds, c.Kind)
	}
	want := []LogicBlockKind{LogicIf, LogicElseIf, LogicElse}
	if len(kinds) != len(want) {
		t.Fatalf("children kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("children kinds = %v, want %v", kinds, want)
		}
	}
	if root.Children[1].Condition != "x < 0" {
		t.Errorf("elseif condition = %q", root.Children[1].Condition)
	}
}

func TestDocCommentsAttachToNextItem(t *testing.T) {
	root := tree(`!! Loop over all units.
!! Accumulates the running total.
do i = 1, n
  s = s + i
end do`)

	do := root.Children[0]
	if len(do.Comments) != 2 {
		t.Fatalf("comments = %d, want 2", len(do.Comments))
	}
	if do.Comments[0].Text != "Loop over all units." || do.Comments[0].Line != 1 {
		t.Errorf("first comment = %+v", do.Comments[0])
	}
	if do.Comments[1].Text != "Accumulates the running total." || do.Comments[1].Line != 2 {
		t.Errorf("second comment = %+v", do.Comments[1])
	}
}

func TestDocCommentsAttachToStatements(t *testing.T) {
	root := tree(`x = 1
!! The important assignment.
y = 2`)

	if len(root.Children) != 2 {
		t.Fatalf("children = %d, want 2 (comment splits the statement run)", len(root.Children))
	}
	second := root.Children[1]
	if len(second.Comments) != 1 || second.Comments[0].Text != "The important assignment." {
		t.Fatalf("second leaf comments = %+v", second.Comments)
	}
}

func TestPlainCommentsDiscarded(t *testing.T) {
	root := tree(`x = 1
! ordinary comment
y = 2`)

	if len(root.Children) != 1 {
		t.Fatalf("children = %d, want 1 (plain comment must not split the run)", len(root.Children))
	}
	leaf := root.Children[0]
	if len(leaf.Statements) != 2 {
		t.Fatalf("statements = %d, want 2", len(leaf.Statements))
	}
}

func TestDeclarationsExcluded(t *testing.T) {
	root := tree(`use basin_module
implicit none
integer :: i
x = 1`)

	if len(root.Children) != 1 {
		t.Fatalf("children = %d, want 1", len(root.Children))
	}
	leaf := root.Children[0]
	if len(leaf.Statements) != 1 || leaf.Statements[0].Text != "x = 1" {
		t.Fatalf("statements = %+v, want only the assignment", leaf.Statements)
	}
}

func TestStatementLineNumbers(t *testing.T) {
	root := tree(`a = 1

b = 2`)
	leaf := root.Children[0]
	if leaf.Statements[0].Line != 1 || leaf.Statements[1].Line != 3 {
		t.Errorf("statement lines = %d, %d; want 1, 3", leaf.Statements[0].Line, leaf.Statements[1].Line)
	}
	if leaf.StartLine != 1 || leaf.EndLine != 3 {
		t.Errorf("leaf range = %d..%d, want 1..3", leaf.StartLine, leaf.EndLine)
	}
}

func TestEmptyInput(t *testing.T) {
	root := tree("")
	if root == nil {
		t.Fatal("tree is nil")
	}
	if len(root.Children) != 0 {
		t.Fatalf("children = %d, want 0", len(root.Children))
	}
}
