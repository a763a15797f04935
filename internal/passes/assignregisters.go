package passes

import (
	"fmt"
	"sort"

	"nanoc/internal/confgraph"
	"nanoc/internal/ir"
	"nanoc/internal/regfile"
)

// ---------------------
// ----- functions -----
// ---------------------

// AssignRegisters implements spec.md §4.5's Chaitin-style simplify/
// optimistic-spill graph coloring: vars (which may include pre-colored
// physical registers as neighbours, never as coloring targets) are pushed
// onto a stack one at a time, taking the lexicographically smallest
// remaining vertex of degree below K and optimistically pushing a spill
// candidate whenever nothing left has degree below K, then popped and colored
// against the ORIGINAL graph's neighbours. unspillable names the variables
// select-instructions introduced that must never end up in spills — if
// coloring exhausts every register for one of them, that is the over-
// constrained-register error spec.md §7 calls out as unrecoverable.
//
// Grounded directly on the teacher's backend/lir/regalloc.go node{val,
// neighbours, enabled, spill} simplify loop, generalized from a fixed
// physical register count to spec.md's named Allocatable set and from
// "spill on demand" to "optimistic spill, retry via the fixed-point driver"
// (internal/passes/fixedpoint.go).
func AssignRegisters(graph *confgraph.Graph, vars []string, unspillable map[string]bool) (map[string]ir.Location, []string) {
	work := graph.Clone()
	remaining := make(map[string]bool, len(vars))
	for _, v := range vars {
		remaining[v] = true
	}

	var stack []string
	var optimisticSpills map[string]bool = make(map[string]bool)

	for len(remaining) > 0 {
		v, ok := pickSimplifiable(work, remaining)
		if !ok {
			v, ok = pickSpillCandidate(work, remaining, unspillable)
			if !ok {
				// every remaining candidate is unspillable: coloring will
				// fail outright, but we still need a vertex to proceed so
				// the panic happens at color time with full context.
				v, _ = pickSpillCandidate(work, remaining, nil)
			}
			optimisticSpills[v] = true
		}
		stack = append(stack, v)
		work.RemoveVertex(v)
		delete(remaining, v)
	}

	locate := make(map[string]ir.Location)
	var spills []string
	for i := len(stack) - 1; i >= 0; i-- {
		v := stack[i]
		used := make(map[string]bool)
		for _, n := range graph.Neighbours(v) {
			if ir.IsRegister(n) {
				used[n] = true
				continue
			}
			if loc, ok := locate[n]; ok && loc.Kind == ir.LocRegister {
				used[loc.Name] = true
			}
		}
		color := ""
		for _, r := range regfile.Allocatable {
			if !used[r] {
				color = r
				break
			}
		}
		if color == "" {
			if unspillable[v] {
				panic(fmt.Sprintf("passes: AssignRegisters could not color unspillable variable %q: register set over-constrained", v))
			}
			spills = append(spills, v)
			continue
		}
		locate[v] = ir.Location{Kind: ir.LocRegister, Name: color}
	}
	sort.Strings(spills)
	return locate, spills
}

// pickSimplifiable returns a remaining variable with fewer than K
// neighbours still in work, lexicographically smallest on ties (spec.md
// §4.5: "On tie, lexicographic").
func pickSimplifiable(work *confgraph.Graph, remaining map[string]bool) (string, bool) {
	var names []string
	for v := range remaining {
		names = append(names, v)
	}
	sort.Strings(names)
	for _, v := range names {
		if work.Degree(v) < regfile.K {
			return v, true
		}
	}
	return "", false
}

// pickSpillCandidate chooses the maximum-degree remaining variable not
// marked unspillable (spec.md §4.5 step 4: "select one from Locals... with
// maximum degree"), lexicographically smallest on ties.
func pickSpillCandidate(work *confgraph.Graph, remaining map[string]bool, unspillable map[string]bool) (string, bool) {
	var names []string
	for v := range remaining {
		if unspillable != nil && unspillable[v] {
			continue
		}
		names = append(names, v)
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	best := names[0]
	bestDeg := work.Degree(best)
	for _, v := range names[1:] {
		if d := work.Degree(v); d > bestDeg {
			best, bestDeg = v, d
		}
	}
	return best, true
}
