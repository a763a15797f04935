// Package framevar resolves symbolic frame-variable names (fvN) to concrete
// displacements off the frame base register, per spec.md §3/§4 and the
// positive-direction displacement convention recovered from
// original_source/a6/src/test.rs (see DESIGN.md).
package framevar

import (
	"fmt"
	"strconv"

	"nanoc/internal/ir"
	"nanoc/internal/regfile"
)

// ---------------------
// ----- Constants -----
// ---------------------

// slotSize is the machine word size in bytes; a frame-var fvN sits at
// displacement slotSize*N from the frame base (spec.md §3: "a displacement
// 8·n off the frame base").
const slotSize = 8

// ---------------------
// ----- functions -----
// ---------------------

// Index returns the numeric index N of frame-var name "fvN". It panics if
// name is not a well-formed frame-var, matching the teacher's convention
// that shape violations are fatal upstream bugs (spec.md §7).
func Index(name string) int {
	if !ir.IsFrameVar(name) {
		panic(fmt.Sprintf("framevar: %q is not a frame-var", name))
	}
	n, err := strconv.Atoi(name[2:])
	if err != nil {
		panic(fmt.Sprintf("framevar: %q has a malformed index: %s", name, err))
	}
	return n
}

// Name returns the frame-var name for index n, e.g. Name(3) -> "fv3".
func Name(n int) string {
	return fmt.Sprintf("fv%d", n)
}

// Resolve returns the final Location for frame-var name: a displacement off
// the frame base register.
func Resolve(name string) ir.Location {
	return ir.Location{
		Kind: ir.LocDisp,
		Base: regfile.FrameBaseRegister,
		Disp: slotSize * Index(name),
	}
}
