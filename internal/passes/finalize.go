package passes

import "nanoc/internal/ir"

// ---------------------
// ----- functions -----
// ---------------------

// FinalizeFrameLocations substitutes every variable Symbol named by a key
// in locate with a Symbol carrying its assigned frame-var name (spec.md
// §4.2's "extending Locate", consumed here rather than carried as a tree
// wrapper: this repository threads Locate as a plain map through the pass
// pipeline instead of re-wrapping the tree at every step). It is idempotent: a name already rewritten to "fvN" is never
// itself a key of locate, so re-running it on an already-substituted tree
// is a no-op, which the fixed-point driver (internal/passes/fixedpoint.go)
// relies on.
func FinalizeFrameLocations(n ir.Node, locate map[string]ir.Location) ir.Node {
	return substitute(n, locate, func(loc ir.Location) bool { return loc.Kind == ir.LocFrameVar })
}

// FinalizeRegisterLocations substitutes every variable Symbol named by a
// key in locate whose assigned location is a register (spec.md §4.5: once
// assign-registers succeeds with no remaining Spills, every color it chose
// must be written back into the tree before expose-basic-blocks runs).
func FinalizeRegisterLocations(n ir.Node, locate map[string]ir.Location) ir.Node {
	return substitute(n, locate, func(loc ir.Location) bool { return loc.Kind == ir.LocRegister })
}

func substitute(n ir.Node, locate map[string]ir.Location, include func(ir.Location) bool) ir.Node {
	switch v := n.(type) {
	case *ir.Symbol:
		if loc, ok := locate[v.Name]; ok && include(loc) {
			return &ir.Symbol{Name: loc.Name}
		}
		return v
	case *ir.Begin:
		effects := make([]ir.Node, len(v.Effects))
		for i, e := range v.Effects {
			effects[i] = substitute(e, locate, include)
		}
		return &ir.Begin{Effects: effects}
	case *ir.If:
		return &ir.If{
			Cond: substitute(v.Cond, locate, include),
			Then: substitute(v.Then, locate, include),
			Else: substitute(v.Else, locate, include),
		}
	case *ir.If1:
		return &ir.If1{
			Cond: substitute(v.Cond, locate, include),
			Then: substitute(v.Then, locate, include),
		}
	case *ir.Set:
		return &ir.Set{Lhs: substitute(v.Lhs, locate, include), Rhs: substitute(v.Rhs, locate, include)}
	case *ir.Prim1:
		return &ir.Prim1{Op: v.Op, Arg: substitute(v.Arg, locate, include)}
	case *ir.Prim2:
		return &ir.Prim2{Op: v.Op, Arg1: substitute(v.Arg1, locate, include), Arg2: substitute(v.Arg2, locate, include)}
	case *ir.Relop:
		return &ir.Relop{Op: v.Op, Arg1: substitute(v.Arg1, locate, include), Arg2: substitute(v.Arg2, locate, include)}
	case *ir.Funcall:
		args := make([]ir.Node, len(v.Args))
		for i, a := range v.Args {
			args[i] = substitute(a, locate, include)
		}
		return &ir.Funcall{Target: substitute(v.Target, locate, include), Args: args}
	case *ir.ReturnPoint:
		return &ir.ReturnPoint{Label: v.Label, Body: substitute(v.Body, locate, include)}
	case *ir.CallLive:
		return &ir.CallLive{Vars: v.Vars, Tail: substitute(v.Tail, locate, include)}
	default:
		return n
	}
}

// DiscardCallLive implements spec.md §4.7's cleanup step: once register
// allocation is finished, a CallLive wrapper has nothing left to say (the
// variables it named are now either frame-vars or registers, visible
// directly in the tree) and is removed. ReturnPoint is left in place: it
// still marks the label expose-basic-blocks (§4.8) must emit for the call
// to resume at.
func DiscardCallLive(n ir.Node) ir.Node {
	switch v := n.(type) {
	case *ir.CallLive:
		return DiscardCallLive(v.Tail)
	case *ir.Begin:
		effects := make([]ir.Node, len(v.Effects))
		for i, e := range v.Effects {
			effects[i] = DiscardCallLive(e)
		}
		return &ir.Begin{Effects: effects}
	case *ir.If:
		return &ir.If{Cond: v.Cond, Then: DiscardCallLive(v.Then), Else: DiscardCallLive(v.Else)}
	case *ir.If1:
		return &ir.If1{Cond: v.Cond, Then: DiscardCallLive(v.Then)}
	case *ir.ReturnPoint:
		return &ir.ReturnPoint{Label: v.Label, Body: DiscardCallLive(v.Body)}
	default:
		return n
	}
}

// FrameSize reports the number of frame-var slots referenced anywhere in
// n, i.e. one more than the highest-numbered fvN symbol it contains. The
// compile driver passes it to expose-basic-blocks, which sizes the
// FrameAdjust %rbp bump around each non-tail call with it (spec.md §6's positive-displacement calling convention: a caller
// raises its frame pointer by its own frame size before jumping into a
// callee, so the callee's fv0 lands just past the caller's last slot).
func FrameSize(n ir.Node) int {
	max := -1
	var walk func(ir.Node)
	walk = func(n ir.Node) {
		switch v := n.(type) {
		case *ir.Symbol:
			if ir.IsFrameVar(v.Name) {
				if idx := frameVarIndex(v.Name); idx > max {
					max = idx
				}
			}
		case *ir.Begin:
			for _, e := range v.Effects {
				walk(e)
			}
		case *ir.If:
			walk(v.Cond)
			walk(v.Then)
			walk(v.Else)
		case *ir.If1:
			walk(v.Cond)
			walk(v.Then)
		case *ir.Set:
			walk(v.Lhs)
			walk(v.Rhs)
		case *ir.Prim1:
			walk(v.Arg)
		case *ir.Prim2:
			walk(v.Arg1)
			walk(v.Arg2)
		case *ir.Relop:
			walk(v.Arg1)
			walk(v.Arg2)
		case *ir.Funcall:
			walk(v.Target)
			for _, a := range v.Args {
				walk(a)
			}
		case *ir.ReturnPoint:
			walk(v.Body)
		case *ir.CallLive:
			walk(v.Tail)
		}
	}
	walk(n)
	return max + 1
}

func frameVarIndex(name string) int {
	n := 0
	for _, r := range name[2:] {
		n = n*10 + int(r-'0')
	}
	return n
}
