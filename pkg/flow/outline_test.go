package flow

import "testing"

func TestOutlineHeaders(t *testing.T) {
	nodes := BuildOutline(tree(`!! Entry guard.
if (x > 0) then
  y = 1
else
  y = 2
end if
do i = 1, n
  s = s + i
end do
select case (mode)
case (1)
  a = 1
case default
  a = 0
end select`))

	headers := make([]string, 0, len(nodes))
	for _, n := range nodes {
		headers = append(headers, n.Header)
	}
	want := []string{
		"if (x > 0) then",
		"else",
		"do i = 1, n",
		"select case (mode)",
	}
	if len(headers) != len(want) {
		t.Fatalf("headers = %v, want %v", headers, want)
	}
	for i := range want {
		if headers[i] != want[i] {
			t.Errorf("header[%d] = %q, want %q", i, headers[i], want[i])
		}
	}

	if len(nodes[0].Comments) != 1 || nodes[0].Comments[0].Text != "Entry guard." {
		t.Errorf("if node comments = %+v", nodes[0].Comments)
	}

	sel := nodes[3]
	if len(sel.Children) != 2 {
		t.Fatalf("select children = %d, want 2 case arms", len(sel.Children))
	}
	if sel.Children[0].Header != "case (1)" || sel.Children[1].Header != "case default" {
		t.Errorf("case headers = %q, %q", sel.Children[0].Header, sel.Children[1].Header)
	}
}

func TestOutlineLineRanges(t *testing.T) {
	nodes := BuildOutline(tree(`do i = 1, n
  s = s + i
end do`))

	if len(nodes) != 1 {
		t.Fatalf("nodes = %d, want 1", len(nodes))
	}
	if nodes[0].StartLine != 1 || nodes[0].EndLine != 3 {
		t.Errorf("do range = %d..%d, want 1..3", nodes[0].StartLine, nodes[0].EndLine)
	}
}

func TestOutlineStatementLeaves(t *testing.T) {
	nodes := BuildOutline(tree(`x = 1
y = 2`))
	if len(nodes) != 1 || nodes[0].Kind != LogicStatements {
		t.Fatalf("nodes = %+v, want one statements leaf", nodes)
	}
	if nodes[0].Header != "2 statements" {
		t.Errorf("leaf header = %q", nodes[0].Header)
	}
}

func TestOutlineNilTree(t *testing.T) {
	if got := BuildOutline(nil); got != nil {
		t.Errorf("BuildOutline(nil) = %v, want nil", got)
	}
}
