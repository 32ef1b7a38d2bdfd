package flow

import "fmt"

// BlockKind represents the type of a basic block in the control flow graph.
type BlockKind string

const (
	BlockEntry       BlockKind = "entry"
	BlockExit        BlockKind = "exit"
	BlockReturn      BlockKind = "return"
	BlockUse         BlockKind = "use"
	BlockStatement   BlockKind = "statement"
	BlockIfCondition BlockKind = "if_condition"
	BlockDoLoop      BlockKind = "do_loop"
	BlockSelectCase  BlockKind = "select_case"
	BlockCase        BlockKind = "case"
	BlockIOOpen      BlockKind = "keyword_io_open"
	BlockIORead      BlockKind = "keyword_io_read"
	BlockIOWrite     BlockKind = "keyword_io_write"
	BlockIOClose     BlockKind = "keyword_io_close"
	BlockIORewind    BlockKind = "keyword_io_rewind"
	BlockIOInquire   BlockKind = "keyword_io_inquire"
	BlockIOPrint     BlockKind = "keyword_io_print"
	BlockMemory      BlockKind = "keyword_memory"
	BlockExitKeyword BlockKind = "keyword_exit"
	BlockCallKeyword BlockKind = "keyword_call"
)

// BlockKinds enumerates every kind a graph can contain. Presentation
// mappings (shape/color legends) must be total over this list.
func BlockKinds() []BlockKind {
	return []BlockKind{
		BlockEntry, BlockExit, BlockReturn, BlockUse, BlockStatement,
		BlockIfCondition, BlockDoLoop, BlockSelectCase, BlockCase,
		BlockIOOpen, BlockIORead, BlockIOWrite, BlockIOClose,
		BlockIORewind, BlockIOInquire, BlockIOPrint,
		BlockMemory, BlockExitKeyword, BlockCallKeyword,
	}
}

// Edge labels for branch and loop edges.
const (
	EdgeTrue     = "T"
	EdgeFalse    = "F"
	EdgeLoop     = "loop"
	EdgeLoopExit = "exit"
)

// BasicBlock is a node in the control flow graph: a maximal straight-line
// statement sequence, or a decision/keyword node. IDs are assigned
// monotonically in visit order and are stable for a given input.
type BasicBlock struct {
	ID           int       `json:"id"`
	Kind         BlockKind `json:"kind"`
	Label        string    `json:"label"`
	Condition    string    `json:"condition,omitempty"`
	Statements   []string  `json:"statements,omitempty"`
	StartLine    int       `json:"start_line,omitempty"`
	EndLine      int       `json:"end_line,omitempty"`
	Successors   []int     `json:"successors"`
	Predecessors []int     `json:"predecessors"`
}

// Edge is a directed, optionally labeled relation between two blocks.
type Edge struct {
	From  int    `json:"from"`
	To    int    `json:"to"`
	Label string `json:"label,omitempty"`
}

// Graph is the control flow graph for exactly one procedure. It owns its
// blocks; blocks are never shared across graphs.
type Graph struct {
	Procedure string        `json:"procedure"`
	Kind      string        `json:"procedure_kind"`
	Args      []string      `json:"args,omitempty"`
	Blocks    []*BasicBlock `json:"blocks"`
	Edges     []Edge        `json:"edges"`
	EntryID   int           `json:"entry_id"`
	ExitID    int           `json:"exit_id"`

	index  map[int]*BasicBlock
	nextID int
}

// NewGraph creates an empty graph for the named procedure.
func NewGraph(procedure, kind string, args []string) *Graph {
	return &Graph{
		Procedure: procedure,
		Kind:      kind,
		Args:      args,
		index:     make(map[int]*BasicBlock),
	}
}

// NewBlock creates a block with the next sequential ID and adds it to the
// graph.
func (g *Graph) NewBlock(kind BlockKind, label string) *BasicBlock {
	b := &BasicBlock{
		ID:           g.nextID,
		Kind:         kind,
		Label:        label,
		Successors:   []int{},
		Predecessors: []int{},
	}
	g.nextID++
	g.Blocks = append(g.Blocks, b)
	g.index[b.ID] = b
	return b
}

// Block returns the block with the given ID, or nil.
func (g *Graph) Block(id int) *BasicBlock {
	return g.index[id]
}

// AddEdge adds a directed edge between two existing blocks. Adjacency is a
// set: an edge between a pair already connected is dropped regardless of
// label, matching the deduplicating successor lists the graph is rendered
// from.
func (g *Graph) AddEdge(from, to int, label string) {
	src, ok := g.index[from]
	if !ok {
		return
	}
	dst, ok := g.index[to]
	if !ok {
		return
	}
	for _, s := range src.Successors {
		if s == to {
			return
		}
	}
	src.Successors = append(src.Successors, to)
	dst.Predecessors = append(dst.Predecessors, from)
	g.Edges = append(g.Edges, Edge{From: from, To: to, Label: label})
}

// removeBlock detaches a block and its edges from the graph. Used only by
// the builder's pruning pass.
func (g *Graph) removeBlock(id int) {
	b, ok := g.index[id]
	if !ok {
		return
	}
	for _, succ := range b.Successors {
		if t := g.index[succ]; t != nil {
			t.Predecessors = removeID(t.Predecessors, id)
		}
	}
	for _, pred := range b.Predecessors {
		if s := g.index[pred]; s != nil {
			s.Successors = removeID(s.Successors, id)
		}
	}
	edges := g.Edges[:0]
	for _, e := range g.Edges {
		if e.From != id && e.To != id {
			edges = append(edges, e)
		}
	}
	g.Edges = edges
	delete(g.index, id)
	for i, blk := range g.Blocks {
		if blk.ID == id {
			g.Blocks = append(g.Blocks[:i], g.Blocks[i+1:]...)
			break
		}
	}
}

func removeID(ids []int, id int) []int {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Validate checks the graph invariants: exactly one entry with no incoming
// edges, the exit reachable from the entry, every non-entry block reachable
// through at least one predecessor, and every edge endpoint present.
func (g *Graph) Validate() error {
	if len(g.Blocks) == 0 {
		return fmt.Errorf("graph has no blocks")
	}
	entries := 0
	for _, b := range g.Blocks {
		if len(b.Predecessors) == 0 {
			entries++
			if b.ID != g.EntryID {
				return fmt.Errorf("block %d has no predecessors but is not the entry", b.ID)
			}
		}
	}
	if entries != 1 {
		return fmt.Errorf("expected exactly one entry block, found %d", entries)
	}
	for _, e := range g.Edges {
		if g.index[e.From] == nil || g.index[e.To] == nil {
			return fmt.Errorf("edge %d->%d references a missing block", e.From, e.To)
		}
	}
	if !g.reachable(g.EntryID, g.ExitID) {
		return fmt.Errorf("exit block %d not reachable from entry %d", g.ExitID, g.EntryID)
	}
	return nil
}

func (g *Graph) reachable(from, to int) bool {
	seen := make(map[int]bool)
	work := []int{from}
	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]
		if id == to {
			return true
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		if b := g.index[id]; b != nil {
			work = append(work, b.Successors...)
		}
	}
	return false
}

// Reindex restores the internal lookup state after deserialization.
func (g *Graph) Reindex() {
	g.index = make(map[int]*BasicBlock, len(g.Blocks))
	for _, b := range g.Blocks {
		g.index[b.ID] = b
		if b.ID >= g.nextID {
			g.nextID = b.ID + 1
		}
	}
}
