package passes

import (
	"fmt"

	"nanoc/internal/confgraph"
	"nanoc/internal/ir"
)

// ---------------------
// ----- functions -----
// ---------------------

// UncoverRegisterConflict implements spec.md §4.4: same shape as
// uncover-frame-conflict, but register vertices participate and frame-vars
// are excluded. Runs after finalize-frame-locations, so any variable
// already given a frame location now appears as a plain frame-var symbol
// and is invisible to this graph.
func UncoverRegisterConflict(n ir.Node) ir.Node {
	var locals *ir.Locals
	var ulocals *ir.Ulocals
	switch v := n.(type) {
	case *ir.Locals:
		locals = v
	case *ir.Ulocals:
		ulocals = v
		inner, ok := v.Tail.(*ir.Locals)
		if !ok {
			panic(fmt.Sprintf("passes: UncoverRegisterConflict expects Ulocals to wrap Locals, got %T", v.Tail))
		}
		locals = inner
	default:
		panic(fmt.Sprintf("passes: UncoverRegisterConflict expects *ir.Locals or *ir.Ulocals, got %T", n))
	}

	graph := confgraph.New()
	for _, v := range locals.Vars {
		if !ir.IsFrameVar(v) {
			graph.AddVertex(v)
		}
	}
	if ulocals != nil {
		for _, v := range ulocals.Vars {
			graph.AddVertex(v)
		}
	}
	uncoverLiveness(locals.Tail, graph, registerEdgeFilter)

	locatedLocals := &ir.Locals{
		Vars: locals.Vars,
		Tail: &ir.RegisterConflict{Graph: graph, Tail: locals.Tail},
	}
	if ulocals != nil {
		return &ir.Ulocals{Vars: ulocals.Vars, Tail: locatedLocals}
	}
	return locatedLocals
}
