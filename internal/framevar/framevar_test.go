package framevar

import (
	"testing"

	"nanoc/internal/ir"
)

func TestIndexAndNameRoundTrip(t *testing.T) {
	if got := Index("fv3"); got != 3 {
		t.Fatalf("Index(fv3) = %d, want 3", got)
	}
	if got := Name(3); got != "fv3" {
		t.Fatalf("Name(3) = %s, want fv3", got)
	}
}

func TestIndexPanicsOnNonFrameVar(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Index to panic on a non-frame-var name")
		}
	}()
	Index("rax")
}

func TestResolveComputesPositiveDisplacement(t *testing.T) {
	loc := Resolve("fv2")
	if loc.Kind != ir.LocDisp {
		t.Fatalf("expected LocDisp, got %v", loc.Kind)
	}
	if loc.Disp != 16 {
		t.Errorf("expected displacement 16 (8*2), got %d", loc.Disp)
	}
	if loc.Base != "rbp" {
		t.Errorf("expected the frame base register, got %s", loc.Base)
	}
}
