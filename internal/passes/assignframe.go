package passes

import (
	"sort"

	"nanoc/internal/confgraph"
	"nanoc/internal/framevar"
	"nanoc/internal/ir"
)

// ---------------------
// ----- functions -----
// ---------------------

// AssignFrame implements spec.md §4.2: each variable in vars is assigned
// the lowest-numbered frame-var that does not conflict, via graph, with any
// variable already occupying that frame-var in locate. Variables are
// processed in decreasing-degree order (most-constrained first), ties
// broken lexicographically, and locate is extended in place. Grounded on
// the stack-based simplify-order idiom of the teacher's
// backend/lir/regalloc.go allocator loop, generalized from "pick any free
// register" to "pick the lowest-numbered free frame-var" — the frame is
// unbounded, so this never fails (spec.md §4.2 edge case).
func AssignFrame(graph *confgraph.Graph, locate map[string]ir.Location, vars []string) {
	order := make([]string, len(vars))
	copy(order, vars)
	sort.Slice(order, func(i, j int) bool {
		di, dj := graph.Degree(order[i]), graph.Degree(order[j])
		if di != dj {
			return di > dj
		}
		return order[i] < order[j]
	})

	for _, x := range order {
		n := 0
		for {
			candidate := framevar.Name(n)
			conflict := false
			for _, y := range graph.Neighbours(x) {
				if loc, ok := locate[y]; ok && loc.Kind == ir.LocFrameVar && loc.Name == candidate {
					conflict = true
					break
				}
			}
			if !conflict {
				break
			}
			n++
		}
		locate[x] = ir.Location{Kind: ir.LocFrameVar, Name: framevar.Name(n)}
	}
}
