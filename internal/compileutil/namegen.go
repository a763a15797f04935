package compileutil

import (
	"fmt"
	"sync"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// NameGen generates fresh unspillable temporaries and basic-block labels.
// It is the only mutable state the passes share (spec.md §5); every
// compilation (internal/compiler.CompileWithThreads) and every test that
// needs reproducible output constructs its own NameGen, the counterpart of
// the teacher's util.NewLabel/util.CloseLabel pair being reset between
// independent compilations.
type NameGen struct {
	mu       sync.Mutex
	tempSeq  int
	labelSeq int
}

// ---------------------
// ----- functions -----
// ---------------------

// NewNameGen returns a fresh, zeroed NameGen.
func NewNameGen() *NameGen {
	return &NameGen{}
}

// Temp returns a fresh unspillable variable name, e.g. "t.0". It contains
// no '$', so ir.IsLabel does not classify it as a label (see
// internal/passes/selectinstr.go for why unspillable temporaries must
// remain ordinary variables to the allocator).
func (g *NameGen) Temp() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.tempSeq
	g.tempSeq++
	return fmt.Sprintf("t.%d", n)
}

// Label returns a fresh basic-block label of the given purpose prefix,
// e.g. Label("if-true") -> "Lif-true$3". Labels always contain '$' so
// ir.IsLabel recognizes them.
func (g *NameGen) Label(purpose string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.labelSeq
	g.labelSeq++
	return fmt.Sprintf("L%s$%d", purpose, n)
}

// ReturnPointLabel returns a fresh return-point label for a non-tail call.
func (g *NameGen) ReturnPointLabel() string {
	return g.Label("rp")
}
