package ir

import "fmt"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// ProgramError reports a shape violation discovered in a freshly-parsed
// Program before any pass runs — a user-facing source defect, not the
// internal "upstream pass bug" panics the later passes raise (spec.md §7
// keeps these categories distinct).
type ProgramError struct {
	Msg string
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf("ir: %s", e.Msg)
}

// ---------------------
// ----- functions -----
// ---------------------

// CheckProgram validates the one letrec-scoped invariant the reader cannot
// check label-by-label as it parses each binding in isolation: every label
// bound by letrec must be syntactically distinct. A duplicate would
// otherwise silently miscompile — flatten-program would emit two blocks
// under the same label, and whichever the assembler keeps wins, with no
// diagnostic anywhere in the pipeline.
//
// Grounded on the teacher's own duplicate-declaration checks (e.g.
// src/ir/lir/function.go's "duplicate declaration: parameter %s already
// defined for function %s" and the several map-based duplicate checks in
// src/ir/llvm/transform.go), generalized from parameter/identifier
// declarations to letrec-bound labels.
func CheckProgram(prog *Program) error {
	seen := make(map[string]bool, len(prog.Bindings))
	for _, lam := range prog.Bindings {
		if seen[lam.Label] {
			return &ProgramError{Msg: fmt.Sprintf("duplicate letrec label %q", lam.Label)}
		}
		seen[lam.Label] = true
	}
	return nil
}
