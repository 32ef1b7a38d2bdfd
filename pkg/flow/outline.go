package flow

import "fmt"

// OutlineNode is a presentation-ready view of one LogicBlock: a header line,
// source range for jump-to-source links, attached doc comments, and nested
// children. It carries no graph information, so it can be produced even when
// graph construction timed out.
type OutlineNode struct {
	Kind      LogicBlockKind `json:"kind"`
	Header    string         `json:"header"`
	StartLine int            `json:"start_line"`
	EndLine   int            `json:"end_line"`
	Comments  []DocComment   `json:"comments,omitempty"`
	Children  []OutlineNode  `json:"children,omitempty"`
}

// BuildOutline transforms a logic tree into outline nodes. It is a pure
// read-only transform; the tree is not modified.
func BuildOutline(root *LogicBlock) []OutlineNode {
	if root == nil {
		return nil
	}
	nodes := make([]OutlineNode, 0, len(root.Children))
	for _, child := range root.Children {
		nodes = append(nodes, outlineNode(child))
	}
	return nodes
}

func outlineNode(b *LogicBlock) OutlineNode {
	n := OutlineNode{
		Kind:      b.Kind,
		Header:    headerText(b),
		StartLine: b.StartLine,
		EndLine:   b.EndLine,
		Comments:  b.Comments,
	}
	for _, child := range b.Children {
		n.Children = append(n.Children, outlineNode(child))
	}
	return n
}

func headerText(b *LogicBlock) string {
	switch b.Kind {
	case LogicIf:
		return fmt.Sprintf("if (%s) then", b.Condition)
	case LogicElseIf:
		return fmt.Sprintf("else if (%s) then", b.Condition)
	case LogicElse:
		return "else"
	case LogicDo:
		if b.Condition == "" {
			return "do"
		}
		return fmt.Sprintf("do %s", b.Condition)
	case LogicSelect:
		return fmt.Sprintf("select case (%s)", b.Condition)
	case LogicCase:
		if b.Condition == "DEFAULT" {
			return "case default"
		}
		return fmt.Sprintf("case (%s)", b.Condition)
	case LogicStatements:
		if len(b.Statements) == 1 {
			return b.Statements[0].Text
		}
		return fmt.Sprintf("%d statements", len(b.Statements))
	default:
		return string(b.Kind)
	}
}
