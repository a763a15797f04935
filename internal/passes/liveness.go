// Package passes implements every nanopass between the reader and the
// assembly printer: frame-conflict analysis, frame/new-frame assignment,
// instruction selection, register-conflict analysis, register allocation,
// the fixed-point spill-retry driver, and the final lowering to basic
// blocks and a flat instruction list.
package passes

import (
	"fmt"

	"nanoc/internal/confgraph"
	"nanoc/internal/ir"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// liveSet is a backward-liveness working set of variable/register names.
type liveSet map[string]bool

// edgeFilter decides whether an interference edge between two live names
// should be recorded in the conflict graph being built. Uncover-frame-
// conflict and uncover-register-conflict each supply their own (spec.md
// §4.1 vs §4.4).
type edgeFilter func(u, v string) bool

// CallSites maps each non-tail-call Set node to the set of variable names
// live across it — computed once by uncover-frame-conflict (§4.1) and
// consumed by assign-new-frame (§4.7). Keying by node pointer rather than
// position sidesteps having to replay traversal order between passes.
type CallSites map[*ir.Set][]string

// ---------------------
// ----- functions -----
// ---------------------

func (s liveSet) clone() liveSet {
	c := make(liveSet, len(s))
	for k := range s {
		c[k] = true
	}
	return c
}

func (s liveSet) names() []string {
	res := make([]string, 0, len(s))
	for k := range s {
		res = append(res, k)
	}
	return res
}

// frameEdgeFilter implements spec.md §4.1: an edge is kept unless both
// endpoints are physical registers.
func frameEdgeFilter(u, v string) bool {
	return !(ir.IsRegister(u) && ir.IsRegister(v))
}

// registerEdgeFilter implements spec.md §4.4: frame-vars are excluded
// entirely from the register-conflict graph.
func registerEdgeFilter(u, v string) bool {
	return !ir.IsFrameVar(u) && !ir.IsFrameVar(v)
}

// uncoverLiveness performs the single backward pass over a lambda's tail,
// recording interference edges filtered by filter, and returns the call
// site map discovered along the way. The tree is never mutated.
func uncoverLiveness(tail ir.Node, graph *confgraph.Graph, filter edgeFilter) CallSites {
	sites := make(CallSites)
	walkLiveness(tail, liveSet{}, graph, filter, sites)
	return sites
}

// walkLiveness is the single recursive backward-liveness function shared
// by Tail, Effect, and Pred contexts: spec.md §4.1 describes one algorithm
// across all three ("Begin is processed right-to-left", "If(c,t,e) ...",
// "For each effect Set(x, rhs) ..."), so one dispatch suffices here instead
// of three near-duplicate walkers.
func walkLiveness(n ir.Node, liveOut liveSet, graph *confgraph.Graph, filter edgeFilter, sites CallSites) liveSet {
	if n == nil {
		return liveOut
	}
	switch v := n.(type) {
	case *ir.Symbol:
		live := liveOut.clone()
		live[v.Name] = true
		return live
	case *ir.Label, *ir.Int64, *ir.Bool, *ir.Nop, *ir.TruePred, *ir.FalsePred, *ir.Nil:
		return liveOut.clone()
	case *ir.Relop:
		return useAll(liveOut, v.Arg1, v.Arg2)
	case *ir.Prim2:
		return useAll(liveOut, v.Arg1, v.Arg2)
	case *ir.Prim1:
		return useAll(liveOut, v.Arg)
	case *ir.Funcall:
		live := liveOut.clone()
		addUses(live, v.Target)
		for _, a := range v.Args {
			addUses(live, a)
		}
		return live
	case *ir.Begin:
		live := liveOut
		for i := len(v.Effects) - 1; i >= 0; i-- {
			live = walkLiveness(v.Effects[i], live, graph, filter, sites)
		}
		return live.clone()
	case *ir.If:
		thenIn := walkLiveness(v.Then, liveOut, graph, filter, sites)
		elseIn := walkLiveness(v.Else, liveOut, graph, filter, sites)
		condOut := union(thenIn, elseIn)
		return walkLiveness(v.Cond, condOut, graph, filter, sites)
	case *ir.If1:
		thenIn := walkLiveness(v.Then, liveOut, graph, filter, sites)
		condOut := union(thenIn, liveOut)
		return walkLiveness(v.Cond, condOut, graph, filter, sites)
	case *ir.Set:
		return walkSet(v, liveOut, graph, filter, sites)
	case *ir.ReturnPoint:
		// Transparent to liveness: whatever is live after a return point is
		// exactly what must survive the call it wraps (spec.md §4.7).
		return walkLiveness(v.Body, liveOut, graph, filter, sites)
	case *ir.CallLive:
		return walkLiveness(v.Tail, liveOut, graph, filter, sites)
	default:
		panic(fmt.Sprintf("passes: uncoverLiveness encountered unexpected node %T", n))
	}
}

// walkSet implements spec.md §4.1's Set rule: x conflicts with every other
// member of live-out, and live-in is (live-out \ {x}) U free(rhs). When rhs
// is a non-tail call, the (live-out \ {x}) set is exactly the call-live set
// (spec.md §4.7), recorded in sites for assign-new-frame.
func walkSet(s *ir.Set, liveOut liveSet, graph *confgraph.Graph, filter edgeFilter, sites CallSites) liveSet {
	x := ir.Name(s.Lhs)
	live := liveOut.clone()
	delete(live, x)

	for v := range live {
		if filter(x, v) {
			graph.AddEdge(x, v)
		}
	}
	graph.AddVertex(x)

	if call, ok := s.Rhs.(*ir.Funcall); ok {
		sites[s] = live.names()
		addUses(live, call.Target)
		for _, a := range call.Args {
			addUses(live, a)
		}
		return live
	}

	return useAll(live, s.Rhs)
}

// useAll returns liveOut with the variable names referenced by each triv in
// args added, without creating any conflict edges (pure use).
func useAll(liveOut liveSet, args ...ir.Node) liveSet {
	live := liveOut.clone()
	for _, a := range args {
		addUses(live, a)
	}
	return live
}

// addUses adds the names referenced by a single triv/operand node to live.
func addUses(live liveSet, n ir.Node) {
	switch v := n.(type) {
	case *ir.Symbol:
		live[v.Name] = true
	case *ir.Prim2:
		addUses(live, v.Arg1)
		addUses(live, v.Arg2)
	case *ir.Prim1:
		addUses(live, v.Arg)
	case nil, *ir.Label, *ir.Int64, *ir.Bool, *ir.Nil:
		// No variable reference.
	default:
		panic(fmt.Sprintf("passes: addUses encountered unexpected operand node %T", n))
	}
}

func union(a, b liveSet) liveSet {
	res := a.clone()
	for k := range b {
		res[k] = true
	}
	return res
}
