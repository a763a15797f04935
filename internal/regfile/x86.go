// Package regfile provides the x86-64 register set used by assign-registers
// and the assembly printer. Adapted from the teacher's target-agnostic
// backend/regfile.RegisterFile interface, narrowed to one concrete target
// since spec.md §6 fixes x86-64 under the System V calling convention
// variant this pipeline's runtime uses (r15 holds the return address, rbp
// the frame base).
package regfile

// ---------------------
// ----- Constants -----
// ---------------------

// All lists every physical register name in the fixed set spec.md §3
// names, in the teacher's declaration-order-matters convention (used as
// the tie-break order when two candidate registers are otherwise equal).
var All = []string{
	"rax", "rbx", "rcx", "rdx", "rsi", "rdi", "rbp", "rsp",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
}

// Reserved registers never participate in allocation: rbp is the frame
// base, rsp the stack pointer, r15 the return-address register supplied by
// the runtime (spec.md §6).
var Reserved = map[string]bool{
	"rbp": true,
	"rsp": true,
	"r15": true,
}

// Allocatable is All minus Reserved, in declaration order. len(Allocatable)
// is the K used by assign-registers' simplify/spill decision (spec.md §4.5
// step 1).
var Allocatable = func() []string {
	res := make([]string, 0, len(All))
	for _, r := range All {
		if !Reserved[r] {
			res = append(res, r)
		}
	}
	return res
}()

// K is the number of allocatable registers.
var K = len(Allocatable)

// ReturnAddressRegister is where the runtime leaves the address to jump to
// on final return (spec.md §6).
const ReturnAddressRegister = "r15"

// FrameBaseRegister is the frame base pointer.
const FrameBaseRegister = "rbp"

// ReturnValueRegister holds a callee's result after a non-tail call
// returns (spec.md §4.7: "reading return value afterward via Set(x, rax)").
const ReturnValueRegister = "rax"

// ArgumentRegisters is the fixed sequence incoming/outgoing call arguments
// pass through before overflowing to frame-vars (spec.md §6).
var ArgumentRegisters = []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}

// IsAllocatable reports whether name may be assigned by assign-registers.
func IsAllocatable(name string) bool {
	for _, r := range Allocatable {
		if r == name {
			return true
		}
	}
	return false
}
