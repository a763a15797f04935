package passes

import (
	"testing"

	"nanoc/internal/ir"
)

// TestFinalizeFrameLocationsRewritesOnlyFrameVarEntries verifies spec.md
// §4.2: substitution only touches names whose locate entry is a frame-var,
// leaving register-colored names untouched.
func TestFinalizeFrameLocationsRewritesOnlyFrameVarEntries(t *testing.T) {
	tail := &ir.Set{Lhs: &ir.Symbol{Name: "a.1"}, Rhs: &ir.Symbol{Name: "b.1"}}
	locate := map[string]ir.Location{
		"a.1": {Kind: ir.LocFrameVar, Name: "fv0"},
		"b.1": {Kind: ir.LocRegister, Name: "rbx"},
	}
	out := FinalizeFrameLocations(tail, locate).(*ir.Set)
	if ir.Name(out.Lhs) != "fv0" {
		t.Errorf("expected a.1 rewritten to fv0, got %s", ir.Name(out.Lhs))
	}
	if ir.Name(out.Rhs) != "b.1" {
		t.Errorf("expected b.1 left alone by the frame-var pass, got %s", ir.Name(out.Rhs))
	}
}

// TestFinalizeRegisterLocationsRewritesOnlyRegisterEntries mirrors the
// above for the register-coloring finalize step.
func TestFinalizeRegisterLocationsRewritesOnlyRegisterEntries(t *testing.T) {
	tail := &ir.Set{Lhs: &ir.Symbol{Name: "a.1"}, Rhs: &ir.Symbol{Name: "b.1"}}
	locate := map[string]ir.Location{
		"a.1": {Kind: ir.LocFrameVar, Name: "fv0"},
		"b.1": {Kind: ir.LocRegister, Name: "rbx"},
	}
	out := FinalizeRegisterLocations(tail, locate).(*ir.Set)
	if ir.Name(out.Lhs) != "a.1" {
		t.Errorf("expected a.1 left alone by the register pass, got %s", ir.Name(out.Lhs))
	}
	if ir.Name(out.Rhs) != "rbx" {
		t.Errorf("expected b.1 rewritten to rbx, got %s", ir.Name(out.Rhs))
	}
}

// TestDiscardCallLiveUnwrapsWithoutLosingReturnPoint verifies spec.md
// §4.7: CallLive disappears once register colors are final, but the
// enclosing ReturnPoint (still needed by expose-basic-blocks) survives.
func TestDiscardCallLiveUnwrapsWithoutLosingReturnPoint(t *testing.T) {
	inner := &ir.Funcall{Target: &ir.Label{Name: "f$1"}}
	n := &ir.ReturnPoint{
		Label: "Lrp$1",
		Body:  &ir.CallLive{Vars: []string{"x.1"}, Tail: inner},
	}
	out := DiscardCallLive(n).(*ir.ReturnPoint)
	if out.Label != "Lrp$1" {
		t.Errorf("expected the ReturnPoint label preserved, got %s", out.Label)
	}
	if out.Body != inner {
		t.Errorf("expected CallLive unwrapped down to the original call, got %#v", out.Body)
	}
}

// TestFrameSizeReportsOneMoreThanHighestSlot verifies spec.md §6's frame
// sizing rule: FrameSize is the highest referenced fvN index plus one.
func TestFrameSizeReportsOneMoreThanHighestSlot(t *testing.T) {
	tail := &ir.Begin{Effects: []ir.Node{
		&ir.Set{Lhs: &ir.Symbol{Name: "fv0"}, Rhs: &ir.Int64{Value: 1}},
		&ir.Set{Lhs: &ir.Symbol{Name: "fv2"}, Rhs: &ir.Symbol{Name: "fv0"}},
	}}
	if got := FrameSize(tail); got != 3 {
		t.Errorf("expected FrameSize 3 (fv2 + 1), got %d", got)
	}
}

// TestFrameSizeIsZeroWithNoFrameVars verifies the empty-frame boundary
// case: a lambda that never spills has FrameSize 0.
func TestFrameSizeIsZeroWithNoFrameVars(t *testing.T) {
	tail := &ir.Set{Lhs: &ir.Symbol{Name: "rax"}, Rhs: &ir.Int64{Value: 1}}
	if got := FrameSize(tail); got != 0 {
		t.Errorf("expected FrameSize 0 with no frame-vars referenced, got %d", got)
	}
}
