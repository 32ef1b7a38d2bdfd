package flow

// Result is everything the pipeline produces for one procedure. A timed-out
// graph leaves Graph nil with Unavailable set; the outline and allocation
// summary are still computed since they do not depend on graph construction.
// An empty procedure body is a valid two-block entry/exit graph, not an
// unavailable result.
type Result struct {
	Procedure   string              `json:"procedure"`
	Kind        string              `json:"kind"`
	Graph       *Graph              `json:"graph,omitempty"`
	Outline     []OutlineNode       `json:"outline,omitempty"`
	Allocations []AllocationSummary `json:"allocations,omitempty"`
	Unavailable bool                `json:"unavailable,omitempty"`
	Reason      string              `json:"reason,omitempty"`
}

// Analyze runs the full pipeline for one procedure: logic tree, outline,
// allocation summary, and control flow graph. It never fails; a budget
// overrun is reported through the Unavailable flag on the result.
func Analyze(proc Procedure, opts Options) Result {
	res := Result{
		Procedure:   proc.Name,
		Kind:        proc.Kind,
		Outline:     BuildOutline(BuildLogicTree(proc.Lines)),
		Allocations: TrackAllocations(proc.Lines),
	}

	graph, err := BuildGraph(proc, opts)
	if err != nil {
		res.Unavailable = true
		res.Reason = err.Error()
		return res
	}
	res.Graph = graph
	return res
}
