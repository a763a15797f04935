// Package confgraph implements the undirected conflict graph shared by
// uncover-frame-conflict and uncover-register-conflict (spec.md §3: "Conflict
// graphs are undirected; edges {u,v} are stored symmetrically in an
// adjacency map"). It is grounded on the teacher's register-interference
// graph in backend/lir/regalloc.go and ir/lir/live.go, unified into one
// name-keyed representation since both passes share the same contract.
package confgraph

import "sort"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Graph is an adjacency-map conflict graph over vertex names.
type Graph struct {
	adj map[string]map[string]bool
}

// ---------------------
// ----- functions -----
// ---------------------

// New returns an empty conflict graph.
func New() *Graph {
	return &Graph{adj: make(map[string]map[string]bool)}
}

// AddVertex ensures v is present in the graph, even if it ends up with no
// edges (an isolated variable still needs a location).
func (g *Graph) AddVertex(v string) {
	if _, ok := g.adj[v]; !ok {
		g.adj[v] = make(map[string]bool)
	}
}

// AddEdge adds the undirected edge {u,v}. A self-edge is a no-op.
func (g *Graph) AddEdge(u, v string) {
	if u == v {
		g.AddVertex(u)
		return
	}
	g.AddVertex(u)
	g.AddVertex(v)
	g.adj[u][v] = true
	g.adj[v][u] = true
}

// Conflicts reports whether u and v interfere.
func (g *Graph) Conflicts(u, v string) bool {
	if nbrs, ok := g.adj[u]; ok {
		return nbrs[v]
	}
	return false
}

// ConflictsAny reports whether v conflicts with any vertex in vs.
func (g *Graph) ConflictsAny(v string, vs []string) bool {
	for _, u := range vs {
		if g.Conflicts(v, u) {
			return true
		}
	}
	return false
}

// Neighbours returns the sorted neighbour list of v (nil if v is absent or
// has no neighbours).
func (g *Graph) Neighbours(v string) []string {
	nbrs, ok := g.adj[v]
	if !ok || len(nbrs) == 0 {
		return nil
	}
	res := make([]string, 0, len(nbrs))
	for u := range nbrs {
		res = append(res, u)
	}
	sort.Strings(res)
	return res
}

// Degree returns the number of neighbours of v.
func (g *Graph) Degree(v string) int {
	return len(g.adj[v])
}

// Vertices returns all vertices in sorted order, the tie-break order
// spec.md §4.2/§4.5 require ("On tie, lexicographic").
func (g *Graph) Vertices() []string {
	res := make([]string, 0, len(g.adj))
	for v := range g.adj {
		res = append(res, v)
	}
	sort.Strings(res)
	return res
}

// RemoveVertex deletes v and all edges touching it. Used by the
// simplify/stack register and frame allocators to shrink a working copy
// of the graph without mutating the original.
func (g *Graph) RemoveVertex(v string) {
	for u := range g.adj[v] {
		delete(g.adj[u], v)
	}
	delete(g.adj, v)
}

// Clone returns a deep copy, so passes can destructively simplify a working
// copy while keeping the original graph available to later passes.
func (g *Graph) Clone() *Graph {
	c := New()
	for v, nbrs := range g.adj {
		c.AddVertex(v)
		for u := range nbrs {
			c.adj[v][u] = true
		}
	}
	return c
}

// String renders the graph as a sorted list of undirected edges, one per
// unordered pair, for deterministic debug output.
func (g *Graph) String() string {
	type edge struct{ u, v string }
	seen := make(map[edge]bool)
	edges := make([]edge, 0)
	for _, u := range g.Vertices() {
		for _, v := range g.Neighbours(u) {
			e := edge{u, v}
			if u > v {
				e = edge{v, u}
			}
			if !seen[e] {
				seen[e] = true
				edges = append(edges, e)
			}
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].u != edges[j].u {
			return edges[i].u < edges[j].u
		}
		return edges[i].v < edges[j].v
	})
	sb := "{"
	for i, e := range edges {
		if i > 0 {
			sb += ", "
		}
		sb += "(" + e.u + "," + e.v + ")"
	}
	return sb + "}"
}
