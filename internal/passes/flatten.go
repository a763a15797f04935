package passes

import "nanoc/internal/ir"

// ---------------------
// ----- functions -----
// ---------------------

// FlattenProgram implements spec.md §4.9: it concatenates every lambda's
// basic blocks (entryBlocks first, so the runtime can jump straight to the
// program's main body) into one ordered list and applies the jump-flip
// peephole — a CJump whose Then branch is the immediately following block
// is rewritten, via ir.NegatedRelop, to test the opposite condition and
// swap its Then/Else labels, so the fall-through case needs no explicit
// jump once the assembly printer lays blocks out in order.
//
// Grounded on the teacher's src/ir/optimise.go peephole pass, generalized
// from its fixed set of tree-level rewrites to this grammar's block-level
// fallthrough rewrite.
func FlattenProgram(entryLabel string, entryBlocks []*ir.Block, lambdaBlocks [][]*ir.Block) *ir.FlatProgram {
	var all []*ir.Block
	all = append(all, entryBlocks...)
	for _, bs := range lambdaBlocks {
		all = append(all, bs...)
	}

	flattened := make([]*ir.Block, len(all))
	for i, b := range all {
		var next string
		if i+1 < len(all) {
			next = all[i+1].Label
		}
		flattened[i] = flipForFallthrough(b, next)
	}

	return &ir.FlatProgram{Entry: entryLabel, Blocks: flattened}
}

// flipForFallthrough rewrites b's trailing CJump, if its Then branch is
// exactly the next block in program order, into the logically negated
// comparison with Then/Else swapped, so Then becomes the branch that falls
// through and Else carries the (now unavoidable) explicit jump.
func flipForFallthrough(b *ir.Block, next string) *ir.Block {
	cjump, prefix, ok := trailingCJump(b.Body)
	if !ok || cjump.Then != next {
		return b
	}
	negated, ok := ir.NegatedRelop[cjump.Op]
	if !ok {
		return b
	}
	flipped := &ir.CJump{Op: negated, Arg1: cjump.Arg1, Arg2: cjump.Arg2, Then: cjump.Else, Else: cjump.Then}
	if len(prefix) == 0 {
		return &ir.Block{Label: b.Label, Body: flipped}
	}
	return &ir.Block{Label: b.Label, Body: &ir.Begin{Effects: append(append([]ir.Node{}, prefix...), flipped)}}
}

// trailingCJump reports the CJump at the end of b's body, and the effects
// preceding it, if the body ends in one.
func trailingCJump(body ir.Node) (*ir.CJump, []ir.Node, bool) {
	if begin, ok := body.(*ir.Begin); ok {
		if len(begin.Effects) == 0 {
			return nil, nil, false
		}
		last := begin.Effects[len(begin.Effects)-1]
		if cj, ok := last.(*ir.CJump); ok {
			return cj, begin.Effects[:len(begin.Effects)-1], true
		}
		return nil, nil, false
	}
	if cj, ok := body.(*ir.CJump); ok {
		return cj, nil, true
	}
	return nil, nil, false
}
