package passes

import (
	"testing"

	"nanoc/internal/compileutil"
	"nanoc/internal/ir"
)

// TestSelectInstructionsSwapsCommutativeOperand verifies spec.md §4.3's
// commutative-op rewrite: (set! x (+ t x)) becomes (set! x (+ x t)) with no
// extra move, since + is commutative.
func TestSelectInstructionsSwapsCommutativeOperand(t *testing.T) {
	names := compileutil.NewNameGen()
	in := &ir.Set{
		Lhs: &ir.Symbol{Name: "x.1"},
		Rhs: &ir.Prim2{Op: "+", Arg1: &ir.Symbol{Name: "t.1"}, Arg2: &ir.Symbol{Name: "x.1"}},
	}
	out, ulocals := SelectInstructions(in, names)
	if len(ulocals) != 0 {
		t.Fatalf("expected no unspillable temps for a commutative swap, got %v", ulocals)
	}
	set, ok := out.(*ir.Set)
	if !ok {
		t.Fatalf("expected a single Set, got %T", out)
	}
	p, ok := set.Rhs.(*ir.Prim2)
	if !ok {
		t.Fatalf("expected Rhs to remain a Prim2, got %T", set.Rhs)
	}
	if ir.Name(p.Arg1) != "x.1" || ir.Name(p.Arg2) != "t.1" {
		t.Errorf("expected (+ x.1 t.1), got (%s %s %s)", p.Op, ir.Name(p.Arg1), ir.Name(p.Arg2))
	}
}

// TestSelectInstructionsNonCommutativeStagesMove verifies a non-commutative
// op whose destination matches neither operand is staged via an explicit
// move into the destination first (spec.md §4.3).
func TestSelectInstructionsNonCommutativeStagesMove(t *testing.T) {
	names := compileutil.NewNameGen()
	in := &ir.Set{
		Lhs: &ir.Symbol{Name: "x.1"},
		Rhs: &ir.Prim2{Op: "-", Arg1: &ir.Symbol{Name: "a.1"}, Arg2: &ir.Symbol{Name: "b.1"}},
	}
	out, _ := SelectInstructions(in, names)
	begin, ok := out.(*ir.Begin)
	if !ok || len(begin.Effects) != 2 {
		t.Fatalf("expected a 2-effect Begin (move-in, op), got %#v", out)
	}
	move, ok := begin.Effects[0].(*ir.Set)
	if !ok || ir.Name(move.Lhs) != "x.1" || ir.Name(move.Rhs) != "a.1" {
		t.Fatalf("expected (set! x.1 a.1) first, got %#v", begin.Effects[0])
	}
	op, ok := begin.Effects[1].(*ir.Set)
	if !ok {
		t.Fatalf("expected a Set for the op, got %T", begin.Effects[1])
	}
	p := op.Rhs.(*ir.Prim2)
	if ir.Name(p.Arg1) != "x.1" || p.Op != "-" {
		t.Errorf("expected (- x.1 b.1) as the second effect, got (%s %s %s)", p.Op, ir.Name(p.Arg1), ir.Name(p.Arg2))
	}
}

// TestSelectInstructionsRoutesTwoMemoryOperandsThroughUnspillable verifies
// the "at most one memory operand" invariant (spec.md §3/§8): when both the
// destination and the non-destination operand are frame-vars, a fresh
// unspillable stages the second operand through a register.
func TestSelectInstructionsRoutesTwoMemoryOperandsThroughUnspillable(t *testing.T) {
	names := compileutil.NewNameGen()
	in := &ir.Set{
		Lhs: &ir.Symbol{Name: "fv0"},
		Rhs: &ir.Prim2{Op: "+", Arg1: &ir.Symbol{Name: "fv0"}, Arg2: &ir.Symbol{Name: "fv1"}},
	}
	out, ulocals := SelectInstructions(in, names)
	if len(ulocals) != 1 {
		t.Fatalf("expected exactly 1 unspillable temp, got %v", ulocals)
	}
	begin, ok := out.(*ir.Begin)
	if !ok || len(begin.Effects) != 2 {
		t.Fatalf("expected a 2-effect Begin (stage, op), got %#v", out)
	}
	stage := begin.Effects[0].(*ir.Set)
	if ir.Name(stage.Lhs) != ulocals[0] || ir.Name(stage.Rhs) != "fv1" {
		t.Fatalf("expected the stage to move fv1 into the unspillable, got %#v", stage)
	}
	op := begin.Effects[1].(*ir.Set)
	p := op.Rhs.(*ir.Prim2)
	if ir.Name(p.Arg2) != ulocals[0] {
		t.Errorf("expected the op's second operand to be the staged unspillable, got %s", ir.Name(p.Arg2))
	}
}

// TestSelectInstructionsRoutesImulWithFrameVarDestination verifies spec.md
// §4.3/§8's imulq boundary test: imulq has no memory-destination form at
// all, so a frame-var destination must be staged through a fresh
// unspillable register even when the other operand is not a frame-var.
func TestSelectInstructionsRoutesImulWithFrameVarDestination(t *testing.T) {
	names := compileutil.NewNameGen()
	in := &ir.Set{
		Lhs: &ir.Symbol{Name: "fv3"},
		Rhs: &ir.Prim2{Op: "*", Arg1: &ir.Symbol{Name: "fv3"}, Arg2: &ir.Int64{Value: 5}},
	}
	out, ulocals := SelectInstructions(in, names)
	if len(ulocals) != 1 {
		t.Fatalf("expected exactly 1 unspillable temp, got %v", ulocals)
	}
	begin, ok := out.(*ir.Begin)
	if !ok || len(begin.Effects) != 3 {
		t.Fatalf("expected a 3-effect Begin (stage, multiply, writeback), got %#v", out)
	}
	stage := begin.Effects[0].(*ir.Set)
	if ir.Name(stage.Lhs) != ulocals[0] || ir.Name(stage.Rhs) != "fv3" {
		t.Fatalf("expected the stage to move fv3 into the unspillable, got %#v", stage)
	}
	mul := begin.Effects[1].(*ir.Set)
	if ir.Name(mul.Lhs) != ulocals[0] {
		t.Fatalf("expected the multiply's destination to be the unspillable, got %#v", mul)
	}
	p := mul.Rhs.(*ir.Prim2)
	if p.Op != "*" || ir.Name(p.Arg1) != ulocals[0] {
		t.Errorf("expected (* %s 5), got (%s %s %v)", ulocals[0], p.Op, ir.Name(p.Arg1), p.Arg2)
	}
	writeback := begin.Effects[2].(*ir.Set)
	if ir.Name(writeback.Lhs) != "fv3" || ir.Name(writeback.Rhs) != ulocals[0] {
		t.Fatalf("expected the final writeback to move the unspillable back into fv3, got %#v", writeback)
	}
}

// TestSelectInstructionsMaterializesOversizedImmediate verifies spec.md
// §4.3's signed-32-bit immediate constraint: a literal outside that range
// is staged through a fresh unspillable rather than emitted directly.
func TestSelectInstructionsMaterializesOversizedImmediate(t *testing.T) {
	names := compileutil.NewNameGen()
	in := &ir.Set{Lhs: &ir.Symbol{Name: "x.1"}, Rhs: &ir.Int64{Value: 1 << 40}}
	out, ulocals := SelectInstructions(in, names)
	if len(ulocals) != 1 {
		t.Fatalf("expected exactly 1 unspillable temp, got %v", ulocals)
	}
	begin, ok := out.(*ir.Begin)
	if !ok || len(begin.Effects) != 2 {
		t.Fatalf("expected a 2-effect Begin (load immediate, move), got %#v", out)
	}
}

// TestSelectInstructionsLeavesSmallImmediateCanonical verifies an in-range
// immediate is left as a single Set (no unspillable introduced).
func TestSelectInstructionsLeavesSmallImmediateCanonical(t *testing.T) {
	names := compileutil.NewNameGen()
	in := &ir.Set{Lhs: &ir.Symbol{Name: "x.1"}, Rhs: &ir.Int64{Value: 42}}
	out, ulocals := SelectInstructions(in, names)
	if len(ulocals) != 0 {
		t.Fatalf("expected no unspillable temps for an in-range immediate, got %v", ulocals)
	}
	if _, ok := out.(*ir.Set); !ok {
		t.Fatalf("expected the Set to remain untouched, got %T", out)
	}
}

// TestSelectInstructionsInvertsRelopOnImmediateFirst verifies spec.md §9's
// inverted-relop table: an immediate in the first operand position is
// swapped to second, with the operator inverted.
func TestSelectInstructionsInvertsRelopOnImmediateFirst(t *testing.T) {
	names := compileutil.NewNameGen()
	in := &ir.Relop{Op: "<", Arg1: &ir.Int64{Value: 5}, Arg2: &ir.Symbol{Name: "x.1"}}
	out, ulocals := SelectInstructions(in, names)
	if len(ulocals) != 0 {
		t.Fatalf("expected no unspillable temps, got %v", ulocals)
	}
	r, ok := out.(*ir.Relop)
	if !ok {
		t.Fatalf("expected a Relop, got %T", out)
	}
	if r.Op != ">" || ir.Name(r.Arg1) != "x.1" {
		t.Errorf("expected (> x.1 5) after inversion, got (%s %s %v)", r.Op, ir.Name(r.Arg1), r.Arg2)
	}
}
