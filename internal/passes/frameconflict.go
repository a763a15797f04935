package passes

import (
	"fmt"

	"nanoc/internal/confgraph"
	"nanoc/internal/ir"
)

// ---------------------
// ----- functions -----
// ---------------------

// UncoverFrameConflict implements spec.md §4.1: given Locals(vars, tail),
// it returns Locals(vars, FrameConflict(graph, tail)) plus the call-site
// map assign-new-frame (§4.7) needs. Grounded on the teacher's backward
// liveness walk in src/ir/lir/live.go, generalized from a flat instruction
// list to the recursive Tail/Effect/Pred grammar.
func UncoverFrameConflict(n ir.Node) (ir.Node, CallSites) {
	locals, ok := n.(*ir.Locals)
	if !ok {
		panic(fmt.Sprintf("passes: UncoverFrameConflict expects *ir.Locals, got %T", n))
	}
	graph := confgraph.New()
	for _, v := range locals.Vars {
		graph.AddVertex(v)
	}
	sites := uncoverLiveness(locals.Tail, graph, frameEdgeFilter)
	return &ir.Locals{
		Vars: locals.Vars,
		Tail: &ir.FrameConflict{Graph: graph, Tail: locals.Tail},
	}, sites
}
