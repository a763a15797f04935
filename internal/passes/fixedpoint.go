package passes

import (
	"sort"

	"nanoc/internal/compileutil"
	"nanoc/internal/framevar"
	"nanoc/internal/ir"
	"nanoc/internal/regfile"
)

// ---------------------
// ----- functions -----
// ---------------------

// CollectLocals gathers every variable assigned anywhere in tail. There is
// no separate uncover-locals pass and the reader records no locals
// declaration; RunLambda computes the locals here. Registers, frame-vars,
// and labels are never locals.
func CollectLocals(tail ir.Node) []string {
	seen := make(map[string]bool)
	var order []string
	var walk func(ir.Node)
	walk = func(n ir.Node) {
		switch v := n.(type) {
		case *ir.Set:
			if sym, ok := v.Lhs.(*ir.Symbol); ok && ir.IsVariable(sym.Name) && !seen[sym.Name] {
				seen[sym.Name] = true
				order = append(order, sym.Name)
			}
			walk(v.Rhs)
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
		}
	}
	walk(tail)
	sort.Strings(order)
	return order
}

// RunLambda implements spec.md §4.6, the "everybody-home?" fixed-point
// driver: it threads one lambda body through frame-conflict analysis,
// frame assignment, non-tail-call lowering, instruction selection, and
// register allocation, looping assign-frame/select-instructions/assign-
// registers again over any spilled variables until assign-registers
// reports none. Grounded on the teacher's worker-pool retry idiom (see
// internal/compileutil.ErrorCollector, adapted from src/util/perror.go) —
// here applied within a single lambda rather than across files.
func RunLambda(lambda *ir.Lambda, names *compileutil.NameGen) *ir.Lambda {
	body := lambda.Body
	if len(lambda.Params) > 0 {
		// Bind each parameter from where assignArgs leaves it: the argument
		// registers in order, then fv0 onward for the overflow.
		moves := make([]ir.Node, 0, len(lambda.Params)+1)
		for i, p := range lambda.Params {
			src := framevar.Name(i - len(regfile.ArgumentRegisters))
			if i < len(regfile.ArgumentRegisters) {
				src = regfile.ArgumentRegisters[i]
			}
			moves = append(moves, &ir.Set{Lhs: &ir.Symbol{Name: p}, Rhs: &ir.Symbol{Name: src}})
		}
		body = &ir.Begin{Effects: append(moves, body)}
	}
	allVars := CollectLocals(body)

	frameNode, sites := UncoverFrameConflict(&ir.Locals{Vars: allVars, Tail: body})
	frameLocals := frameNode.(*ir.Locals)
	frameGraph := frameLocals.Tail.(*ir.FrameConflict).Graph
	tail := frameLocals.Tail.(*ir.FrameConflict).Tail

	locate := make(map[string]ir.Location)
	PreAssignCallLive(frameGraph, locate, sites)

	tail, newFrames := AssignNewFrame(tail, frameGraph, locate, sites, names)

	located := make(map[string]bool, len(locate))
	for v := range locate {
		located[v] = true
	}

	for {
		tail = FinalizeFrameLocations(tail, locate)

		remaining := remainingVars(allVars, located)
		selected, ulocalsList := SelectInstructions(tail, names)
		tail = selected

		ulocalSet := make(map[string]bool, len(ulocalsList))
		for _, u := range ulocalsList {
			ulocalSet[u] = true
		}
		regVars := append(append([]string{}, remaining...), ulocalsList...)

		regNode := UncoverRegisterConflict(&ir.Locals{Vars: regVars, Tail: tail})
		regLocals := regNode.(*ir.Locals)
		regGraph := regLocals.Tail.(*ir.RegisterConflict).Graph
		tail = regLocals.Tail.(*ir.RegisterConflict).Tail

		colored, spills := AssignRegisters(regGraph, regVars, ulocalSet)
		for v, loc := range colored {
			locate[v] = loc
			located[v] = true
		}

		if len(spills) == 0 {
			break
		}
		AssignFrame(frameGraph, locate, spills)
		for _, v := range spills {
			located[v] = true
		}
	}

	tail = FinalizeRegisterLocations(tail, locate)
	tail = DiscardCallLive(tail)

	_ = newFrames // outgoing-frame sizing is recomputed from the final tree (see FrameSize); the per-site breakdown has no further consumer once register allocation is done.

	return &ir.Lambda{Label: lambda.Label, Params: lambda.Params, Body: tail}
}

func remainingVars(allVars []string, located map[string]bool) []string {
	var res []string
	for _, v := range allVars {
		if !located[v] {
			res = append(res, v)
		}
	}
	return res
}
