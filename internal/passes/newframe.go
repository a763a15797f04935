package passes

import (
	"sort"

	"nanoc/internal/compileutil"
	"nanoc/internal/confgraph"
	"nanoc/internal/framevar"
	"nanoc/internal/ir"
	"nanoc/internal/regfile"
)

// ---------------------
// ----- functions -----
// ---------------------

// PreAssignCallLive collects every variable that is ever call-live at some
// site in sites and assigns them frame locations up front via AssignFrame,
// since a variable that must survive a non-tail call cannot be trusted to a
// register no caller-saves convention protects (spec.md §4.2's note that
// assign-frame is reused both "pre-emptively" for call-live variables and
// later for register spills).
func PreAssignCallLive(graph *confgraph.Graph, locate map[string]ir.Location, sites CallSites) {
	seen := make(map[string]bool)
	var all []string
	for _, vars := range sites {
		for _, v := range vars {
			if !seen[v] {
				seen[v] = true
				all = append(all, v)
			}
		}
	}
	sort.Strings(all)
	AssignFrame(graph, locate, all)
}

// AssignNewFrame implements spec.md §4.7: it rewrites every non-tail call
// (found via sites, recorded earlier by uncover-frame-conflict) into
// ReturnPoint(rp, CallLive(vars, Funcall(...))) form, moving arguments into
// the fixed argument registers and, for overflow arguments, into outgoing
// frame-vars starting at the lowest frame offset whose slots hold no
// variable call-live at that site. Tail
// calls are rewritten in place to move their arguments the same way, reusing
// offset 0 for any overflow since the incoming frame is being handed off
// whole (spec.md §4.7: "Tail calls reuse the incoming frame"). It returns
// the rewritten tail and the list of outgoing argument-slot frame-vars
// introduced per call site, in declaration order, for the NewFrames wrapper.
//
// Grounded on original_source/a11..a13's call-lowering (see DESIGN.md): the
// teacher itself has no tail/non-tail call distinction to generalize from.
func AssignNewFrame(tail ir.Node, graph *confgraph.Graph, locate map[string]ir.Location, sites CallSites, names *compileutil.NameGen) (ir.Node, [][]string) {
	var frames [][]string
	rewritten := rewriteCalls(tail, graph, locate, sites, names, true, &frames)
	return rewritten, frames
}

// rewriteCalls walks the tree, dispatching to rewriteTailCall for bare
// Funcall tails and to rewriteNonTailCall for Set(x, Funcall(...)) effects,
// leaving every other node shape untouched (identity on foreign subtrees,
// per spec.md §2).
func rewriteCalls(n ir.Node, graph *confgraph.Graph, locate map[string]ir.Location, sites CallSites, names *compileutil.NameGen, tailPos bool, frames *[][]string) ir.Node {
	switch v := n.(type) {
	case *ir.Funcall:
		if tailPos {
			return rewriteTailCall(v, graph, locate, names, frames)
		}
		return v
	case *ir.Begin:
		effects := make([]ir.Node, len(v.Effects))
		for i, e := range v.Effects {
			effects[i] = rewriteCalls(e, graph, locate, sites, names, tailPos && i == len(v.Effects)-1, frames)
		}
		return &ir.Begin{Effects: effects}
	case *ir.If:
		return &ir.If{
			Cond: v.Cond,
			Then: rewriteCalls(v.Then, graph, locate, sites, names, tailPos, frames),
			Else: rewriteCalls(v.Else, graph, locate, sites, names, tailPos, frames),
		}
	case *ir.If1:
		return &ir.If1{
			Cond: v.Cond,
			Then: rewriteCalls(v.Then, graph, locate, sites, names, false, frames),
		}
	case *ir.Set:
		if call, ok := v.Rhs.(*ir.Funcall); ok {
			if callLive, isCallSite := sites[v]; isCallSite {
				return rewriteNonTailCall(v, call, callLive, graph, locate, names, frames)
			}
		}
		return v
	default:
		return n
	}
}

// rewriteNonTailCall builds the
// Begin{ ReturnPoint(rp, Begin{moves..., CallLive(vars, Funcall)}), Set(x, rax) }
// sequence described by spec.md §4.7.
func rewriteNonTailCall(set *ir.Set, call *ir.Funcall, callLive []string, graph *confgraph.Graph, locate map[string]ir.Location, names *compileutil.NameGen, frames *[][]string) ir.Node {
	moves, argTrivs, outgoing := assignArgs(call.Args, callLive, graph, locate, false)
	if len(outgoing) > 0 {
		*frames = append(*frames, outgoing)
	}

	rp := names.ReturnPointLabel()
	body := &ir.Begin{Effects: append(moves, &ir.CallLive{
		Vars: callLive,
		Tail: &ir.Funcall{Target: call.Target, Args: argTrivs},
	})}

	return &ir.Begin{Effects: []ir.Node{
		&ir.ReturnPoint{Label: rp, Body: body},
		&ir.Set{Lhs: set.Lhs, Rhs: &ir.Symbol{Name: regfile.ReturnValueRegister}},
	}}
}

// rewriteTailCall moves a tail call's arguments into position, reusing
// frame offset 0 for any overflow (spec.md §4.7).
func rewriteTailCall(call *ir.Funcall, graph *confgraph.Graph, locate map[string]ir.Location, names *compileutil.NameGen, frames *[][]string) ir.Node {
	moves, argTrivs, outgoing := assignArgs(call.Args, nil, graph, locate, true)
	if len(outgoing) > 0 {
		*frames = append(*frames, outgoing)
	}
	newCall := &ir.Funcall{Target: call.Target, Args: argTrivs}
	if len(moves) == 0 {
		return newCall
	}
	return &ir.Begin{Effects: append(moves, newCall)}
}

// assignArgs places args into the fixed argument-register sequence, then
// into outgoing frame-vars for overflow arguments. For a non-tail call
// (tailCall == false) the smallest frame offset N is chosen such that
// fv_N..fv_{N+k-1} do not already hold any call-live variable (spec.md
// §4.7); for a tail call, offset 0 is always reused since the current
// frame is being handed off whole. It returns the move effects (register
// and frame-var assignments for each argument), the trivs the call should
// now reference, and the outgoing overflow frame-var names introduced.
func assignArgs(args []ir.Node, callLive []string, graph *confgraph.Graph, locate map[string]ir.Location, tailCall bool) ([]ir.Node, []ir.Node, []string) {
	var moves []ir.Node
	trivs := make([]ir.Node, len(args))
	var outgoing []string

	overflow := 0
	if len(args) > len(regfile.ArgumentRegisters) {
		overflow = len(args) - len(regfile.ArgumentRegisters)
	}

	var base int
	if overflow > 0 {
		if tailCall {
			base = 0
		} else {
			base = lowestFreeFrameOffset(overflow, callLive, graph, locate)
		}
	}

	for i, a := range args {
		if i < len(regfile.ArgumentRegisters) {
			reg := regfile.ArgumentRegisters[i]
			moves = append(moves, &ir.Set{Lhs: &ir.Symbol{Name: reg}, Rhs: a})
			trivs[i] = &ir.Symbol{Name: reg}
			continue
		}
		slot := framevar.Name(base + (i - len(regfile.ArgumentRegisters)))
		outgoing = append(outgoing, slot)
		moves = append(moves, &ir.Set{Lhs: &ir.Symbol{Name: slot}, Rhs: a})
		trivs[i] = &ir.Symbol{Name: slot}
	}
	return moves, trivs, outgoing
}

// lowestFreeFrameOffset finds the smallest N such that fv_N..fv_{N+k-1} do
// not, via graph, hold any variable in callLive (checked against locate,
// since call-live variables are frame-located by PreAssignCallLive before
// AssignNewFrame ever runs).
func lowestFreeFrameOffset(k int, callLive []string, graph *confgraph.Graph, locate map[string]ir.Location) int {
	occupied := make(map[string]bool, len(callLive))
	for _, v := range callLive {
		if loc, ok := locate[v]; ok && loc.Kind == ir.LocFrameVar {
			occupied[loc.Name] = true
		}
	}
	n := 0
	for {
		free := true
		for i := 0; i < k; i++ {
			if occupied[framevar.Name(n+i)] {
				free = false
				break
			}
		}
		if free {
			return n
		}
		n++
	}
}
