package passes

import (
	"testing"

	"nanoc/internal/confgraph"
	"nanoc/internal/ir"
)

// TestAssignFrameGivesConflictingVarsDistinctSlots verifies spec.md §4.2:
// two variables that conflict never land on the same frame-var.
func TestAssignFrameGivesConflictingVarsDistinctSlots(t *testing.T) {
	graph := confgraph.New()
	graph.AddEdge("a.1", "b.1")
	locate := map[string]ir.Location{}

	AssignFrame(graph, locate, []string{"a.1", "b.1"})

	if locate["a.1"].Name == locate["b.1"].Name {
		t.Fatalf("expected distinct frame-vars for conflicting a.1/b.1, both got %s", locate["a.1"].Name)
	}
}

// TestAssignFrameReusesSlotForNonConflictingVars verifies spec.md §4.2's
// lowest-numbered-free rule: two variables that never conflict can share
// fv0 rather than each claiming a fresh slot.
func TestAssignFrameReusesSlotForNonConflictingVars(t *testing.T) {
	graph := confgraph.New()
	graph.AddVertex("a.1")
	graph.AddVertex("b.1")
	locate := map[string]ir.Location{}

	AssignFrame(graph, locate, []string{"a.1", "b.1"})

	if locate["a.1"].Name != "fv0" || locate["b.1"].Name != "fv0" {
		t.Errorf("expected both non-conflicting vars to share fv0, got %s/%s", locate["a.1"].Name, locate["b.1"].Name)
	}
}

// TestAssignFrameSkipsSlotAlreadyTakenByPrecoloredNeighbour verifies a
// variable already placed in locate (e.g. by a previous AssignFrame call
// on a wider graph) still blocks its conflicting neighbours from reusing
// its slot.
func TestAssignFrameSkipsSlotAlreadyTakenByPrecoloredNeighbour(t *testing.T) {
	graph := confgraph.New()
	graph.AddEdge("a.1", "b.1")
	locate := map[string]ir.Location{
		"a.1": {Kind: ir.LocFrameVar, Name: "fv0"},
	}

	AssignFrame(graph, locate, []string{"b.1"})

	if locate["b.1"].Name == "fv0" {
		t.Errorf("expected b.1 to avoid the occupied fv0, got %s", locate["b.1"].Name)
	}
}
