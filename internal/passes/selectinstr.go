package passes

import (
	"math"

	"nanoc/internal/compileutil"
	"nanoc/internal/ir"
)

// ---------------------
// ----- functions -----
// ---------------------

// SelectInstructions implements spec.md §4.3: it rewrites every Set and
// Relop into the two-operand, at-most-one-memory-operand shape x86-64
// instructions require. Runs after finalize-frame-locations, so any
// variable name that is already a frame-var (ir.IsFrameVar) is a genuine
// memory operand; every other variable is still a register candidate and
// is left alone. It returns the rewritten tree and the fresh unspillable
// temporaries introduced (spec.md §4.3's Ulocals, which assign-registers
// must never spill — see internal/passes/assignregisters.go).
//
// Grounded on the teacher's operand-shaping in backend/arm/expressions.go
// and backend/riscv/expression.go (both canonicalize a source-language
// binary op into a target ISA's fixed two/three-operand instruction
// shape); this pass is re-run by the fixed-point driver (§4.6) each time a
// variable newly becomes frame-located, so it must be a no-op on anything
// already canonical.
func SelectInstructions(tail ir.Node, names *compileutil.NameGen) (ir.Node, []string) {
	var ulocals []string
	rewritten := selectWalk(tail, names, &ulocals)
	return rewritten, ulocals
}

func selectWalk(n ir.Node, names *compileutil.NameGen, ulocals *[]string) ir.Node {
	switch v := n.(type) {
	case *ir.Begin:
		effects := make([]ir.Node, len(v.Effects))
		for i, e := range v.Effects {
			effects[i] = selectWalk(e, names, ulocals)
		}
		return &ir.Begin{Effects: effects}
	case *ir.If:
		return &ir.If{
			Cond: selectWalk(v.Cond, names, ulocals),
			Then: selectWalk(v.Then, names, ulocals),
			Else: selectWalk(v.Else, names, ulocals),
		}
	case *ir.If1:
		return &ir.If1{
			Cond: selectWalk(v.Cond, names, ulocals),
			Then: selectWalk(v.Then, names, ulocals),
		}
	case *ir.ReturnPoint:
		return &ir.ReturnPoint{Label: v.Label, Body: selectWalk(v.Body, names, ulocals)}
	case *ir.CallLive:
		return &ir.CallLive{Vars: v.Vars, Tail: selectWalk(v.Tail, names, ulocals)}
	case *ir.Relop:
		return selectRelop(v, names, ulocals)
	case *ir.Set:
		return selectSet(v, names, ulocals)
	default:
		return n
	}
}

// selectSet canonicalizes one assignment. A Set whose Rhs is a Funcall,
// Label, Prim1, or already-canonical triv is left untouched: only
// arithmetic, moves, and immediates need reshaping.
func selectSet(s *ir.Set, names *compileutil.NameGen, ulocals *[]string) ir.Node {
	switch rhs := s.Rhs.(type) {
	case *ir.Prim2:
		return selectPrim2(s.Lhs, rhs, names, ulocals)
	case *ir.Int64:
		return selectImmediate(s.Lhs, rhs, names, ulocals)
	case *ir.Symbol:
		return selectMove(s.Lhs, rhs, names, ulocals)
	default:
		return s
	}
}

// selectPrim2 rewrites (set! x (op a b)) into the two-operand form x86
// binary instructions require: the destination must already hold one of
// the operands. If neither a nor b is already x, a is moved into x first
// (spec.md §4.3). Commutative operators may swap operands to avoid that
// extra move (spec.md §9's commutative-op table); a non-commutative
// operator whose second operand is x goes through a fresh unspillable.
func selectPrim2(lhs ir.Node, p *ir.Prim2, names *compileutil.NameGen, ulocals *[]string) ir.Node {
	x := ir.Name(lhs)
	if sym, ok := p.Arg1.(*ir.Symbol); ok && sym.Name == x {
		return finishBinop(lhs, p.Op, p.Arg2, names, ulocals)
	}
	if sym, ok := p.Arg2.(*ir.Symbol); ok && sym.Name == x {
		if ir.CommutativeOps[p.Op] {
			return finishBinop(lhs, p.Op, p.Arg1, names, ulocals)
		}
		// x is the second operand of a non-commutative op: moving a into x
		// first would overwrite it, so the result is built in a fresh
		// unspillable and then moved into x.
		u := &ir.Symbol{Name: names.Temp()}
		*ulocals = append(*ulocals, u.Name)
		return &ir.Begin{Effects: []ir.Node{
			&ir.Set{Lhs: u, Rhs: p.Arg1},
			&ir.Set{Lhs: u, Rhs: &ir.Prim2{Op: p.Op, Arg1: u, Arg2: p.Arg2}},
			&ir.Set{Lhs: lhs, Rhs: u},
		}}
	}
	moveIn := &ir.Set{Lhs: lhs, Rhs: p.Arg1}
	rest := finishBinop(lhs, p.Op, p.Arg2, names, ulocals)
	return &ir.Begin{Effects: []ir.Node{moveIn, rest}}
}

// finishBinop assumes lhs already holds the first operand and builds
// (set! x (op x other)), staging operands through a fresh unspillable
// register temp as needed. Two cases force staging: x and other would
// otherwise both be memory operands (spec.md §4.3's "at most one memory
// operand" invariant), or op is imulq, which has no memory-destination
// form at all regardless of other (spec.md §4.3: "imulq with memory
// destination: route via a fresh unspillable register" — a rule distinct
// from, and broader than, the two-memory-operand case; spec.md §8 names
// this case explicitly as a boundary test).
func finishBinop(lhs ir.Node, op string, other ir.Node, names *compileutil.NameGen, ulocals *[]string) ir.Node {
	x := ir.Name(lhs)
	if !ir.IsFrameVar(x) {
		return &ir.Set{Lhs: lhs, Rhs: &ir.Prim2{Op: op, Arg1: lhs, Arg2: other}}
	}
	otherIsFrameVar := false
	if sym, ok := other.(*ir.Symbol); ok && ir.IsFrameVar(sym.Name) {
		otherIsFrameVar = true
	}
	if op == "*" {
		u := names.Temp()
		*ulocals = append(*ulocals, u)
		stage := &ir.Set{Lhs: &ir.Symbol{Name: u}, Rhs: lhs}
		op2 := &ir.Set{Lhs: &ir.Symbol{Name: u}, Rhs: &ir.Prim2{Op: op, Arg1: &ir.Symbol{Name: u}, Arg2: other}}
		writeback := &ir.Set{Lhs: lhs, Rhs: &ir.Symbol{Name: u}}
		return &ir.Begin{Effects: []ir.Node{stage, op2, writeback}}
	}
	if otherIsFrameVar {
		u := names.Temp()
		*ulocals = append(*ulocals, u)
		stage := &ir.Set{Lhs: &ir.Symbol{Name: u}, Rhs: other}
		op2 := &ir.Set{Lhs: lhs, Rhs: &ir.Prim2{Op: op, Arg1: lhs, Arg2: &ir.Symbol{Name: u}}}
		return &ir.Begin{Effects: []ir.Node{stage, op2}}
	}
	return &ir.Set{Lhs: lhs, Rhs: &ir.Prim2{Op: op, Arg1: lhs, Arg2: other}}
}

// selectImmediate stages a 64-bit integer literal that does not fit a
// signed 32-bit immediate field through a fresh unspillable register, since
// x86-64 has no mov-64-bit-immediate-to-memory form (spec.md §4.3).
func selectImmediate(lhs ir.Node, imm *ir.Int64, names *compileutil.NameGen, ulocals *[]string) ir.Node {
	if fitsInt32(imm.Value) {
		return &ir.Set{Lhs: lhs, Rhs: imm}
	}
	u := names.Temp()
	*ulocals = append(*ulocals, u)
	return &ir.Begin{Effects: []ir.Node{
		&ir.Set{Lhs: &ir.Symbol{Name: u}, Rhs: imm},
		&ir.Set{Lhs: lhs, Rhs: &ir.Symbol{Name: u}},
	}}
}

// selectMove stages a frame-var-to-frame-var move through a fresh
// unspillable register temp, since x86-64 has no memory-to-memory mov.
func selectMove(lhs ir.Node, rhs *ir.Symbol, names *compileutil.NameGen, ulocals *[]string) ir.Node {
	x := ir.Name(lhs)
	if ir.IsFrameVar(x) && ir.IsFrameVar(rhs.Name) {
		u := names.Temp()
		*ulocals = append(*ulocals, u)
		return &ir.Begin{Effects: []ir.Node{
			&ir.Set{Lhs: &ir.Symbol{Name: u}, Rhs: rhs},
			&ir.Set{Lhs: lhs, Rhs: &ir.Symbol{Name: u}},
		}}
	}
	return &ir.Set{Lhs: lhs, Rhs: rhs}
}

// selectRelop normalizes a comparison for cmp's operand shape: an
// immediate first operand is swapped to second position (inverting the
// relational operator, spec.md §9's inverted-relop table), and a
// frame-var/frame-var pair is staged through a fresh unspillable register.
func selectRelop(r *ir.Relop, names *compileutil.NameGen, ulocals *[]string) ir.Node {
	op, a, b := r.Op, r.Arg1, r.Arg2
	if _, ok := a.(*ir.Int64); ok {
		if inv, ok2 := ir.InvertedRelop[op]; ok2 {
			op, a, b = inv, b, a
		}
	}
	var moves []ir.Node
	if symA, ok := a.(*ir.Symbol); ok && ir.IsFrameVar(symA.Name) {
		if symB, ok2 := b.(*ir.Symbol); ok2 && ir.IsFrameVar(symB.Name) {
			u := names.Temp()
			*ulocals = append(*ulocals, u)
			moves = append(moves, &ir.Set{Lhs: &ir.Symbol{Name: u}, Rhs: a})
			a = &ir.Symbol{Name: u}
		}
	}
	newRelop := &ir.Relop{Op: op, Arg1: a, Arg2: b}
	if len(moves) == 0 {
		return newRelop
	}
	return &ir.Begin{Effects: append(moves, newRelop)}
}

func fitsInt32(v int64) bool {
	return v >= math.MinInt32 && v <= math.MaxInt32
}
