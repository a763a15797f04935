package passes

import (
	"testing"

	"nanoc/internal/ir"
)

// TestFlattenProgramOrdersEntryThenLambdas verifies spec.md §4.9's
// declaration order: entry blocks first, then each lambda's blocks in turn.
func TestFlattenProgramOrdersEntryThenLambdas(t *testing.T) {
	entry := []*ir.Block{{Label: "Lmain$0", Body: &ir.Goto{Label: "f$1"}}}
	lam := [][]*ir.Block{{{Label: "f$1", Body: &ir.Funcall{Target: &ir.Symbol{Name: "r15"}}}}}
	flat := FlattenProgram("Lmain$0", entry, lam)
	if len(flat.Blocks) != 2 || flat.Blocks[0].Label != "Lmain$0" || flat.Blocks[1].Label != "f$1" {
		t.Fatalf("expected [Lmain$0, f$1] in order, got %v", labelsOf(flat.Blocks))
	}
	if flat.Entry != "Lmain$0" {
		t.Errorf("expected Entry to be Lmain$0, got %s", flat.Entry)
	}
}

// TestFlattenProgramFlipsCJumpOnFallthrough verifies the jump-flip
// peephole: a CJump whose Then target is the immediately following block
// is negated and its Then/Else labels swapped.
func TestFlattenProgramFlipsCJumpOnFallthrough(t *testing.T) {
	entry := []*ir.Block{
		{
			Label: "L0",
			Body:  &ir.CJump{Op: "<", Arg1: &ir.Symbol{Name: "rax"}, Arg2: &ir.Int64{Value: 0}, Then: "L1", Else: "L2"},
		},
		{Label: "L1", Body: &ir.Funcall{Target: &ir.Symbol{Name: "r15"}}},
		{Label: "L2", Body: &ir.Funcall{Target: &ir.Symbol{Name: "r15"}}},
	}
	flat := FlattenProgram("L0", entry, nil)
	cj, ok := flat.Blocks[0].Body.(*ir.CJump)
	if !ok {
		t.Fatalf("expected L0's body to remain a CJump, got %T", flat.Blocks[0].Body)
	}
	if cj.Op != ">=" || cj.Then != "L2" || cj.Else != "L1" {
		t.Errorf("expected the negated >= with swapped targets, got %+v", cj)
	}
}

// TestFlattenProgramLeavesNonFallthroughCJumpAlone verifies a CJump whose
// Then branch is NOT the next block in program order is left untouched.
func TestFlattenProgramLeavesNonFallthroughCJumpAlone(t *testing.T) {
	entry := []*ir.Block{
		{
			Label: "L0",
			Body:  &ir.CJump{Op: "<", Arg1: &ir.Symbol{Name: "rax"}, Arg2: &ir.Int64{Value: 0}, Then: "L2", Else: "L1"},
		},
		{Label: "L1", Body: &ir.Funcall{Target: &ir.Symbol{Name: "r15"}}},
		{Label: "L2", Body: &ir.Funcall{Target: &ir.Symbol{Name: "r15"}}},
	}
	flat := FlattenProgram("L0", entry, nil)
	cj := flat.Blocks[0].Body.(*ir.CJump)
	if cj.Op != "<" || cj.Then != "L2" || cj.Else != "L1" {
		t.Errorf("expected the CJump unchanged, got %+v", cj)
	}
}

func labelsOf(blocks []*ir.Block) []string {
	labels := make([]string, len(blocks))
	for i, b := range blocks {
		labels[i] = b.Label
	}
	return labels
}
