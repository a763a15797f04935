package ir

import "strings"

// ---------------------
// ----- Constants -----
// ---------------------

// Registers lists the fixed physical register set named in spec.md §3.
var Registers = []string{
	"rax", "rbx", "rcx", "rdx", "rsi", "rdi", "rbp", "rsp",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
}

var registerSet = func() map[string]bool {
	m := make(map[string]bool, len(Registers))
	for _, r := range Registers {
		m[r] = true
	}
	return m
}()

// CommutativeOps names the Op2 operators select-instructions may swap
// operands on to reach canonical (Set d (Prim2 op d t)) form.
var CommutativeOps = map[string]bool{
	"+":      true,
	"*":      true,
	"logand": true,
	"logor":  true,
}

// InvertedRelop gives the relational operator produced when the two
// operands of a comparison are swapped, per spec.md §9's fixed table.
var InvertedRelop = map[string]string{
	"=":  "=",
	"<":  ">",
	">":  "<",
	"<=": ">=",
	">=": "<=",
}

// NegatedRelop gives the relational operator whose condition is the
// logical negation of the original, used by expose-basic-blocks and
// flatten-program to flip a branch when that enables fall-through.
var NegatedRelop = map[string]string{
	"=":  "!=",
	"<":  ">=",
	">":  "<=",
	"<=": ">",
	">=": "<",
}

// ---------------------
// ----- functions -----
// ---------------------

// IsRegister reports whether name is one of the fixed physical registers.
func IsRegister(name string) bool {
	return registerSet[name]
}

// IsLabel reports whether name is a label: any symbol containing '$'.
func IsLabel(name string) bool {
	return strings.Contains(name, "$")
}

// IsFrameVar reports whether name has the shape fvN for a non-negative
// integer N.
func IsFrameVar(name string) bool {
	if !strings.HasPrefix(name, "fv") || len(name) == 2 {
		return false
	}
	for _, r := range name[2:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsVariable reports whether name is neither a physical register, a
// frame-var, nor a label — i.e. it is a genuine allocation target.
func IsVariable(name string) bool {
	return !IsRegister(name) && !IsFrameVar(name) && !IsLabel(name)
}

// Name returns the textual name of any Triv-shaped node (Symbol or Label).
// It panics on any other node, matching the teacher's "shape error is a
// fatal upstream bug" convention (spec.md §7).
func Name(n Node) string {
	switch v := n.(type) {
	case *Symbol:
		return v.Name
	case *Label:
		return v.Name
	default:
		panic("ir: Name called on a non-Symbol/Label node")
	}
}
