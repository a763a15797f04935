package passes

import (
	"fmt"

	"nanoc/internal/compileutil"
	"nanoc/internal/ir"
)

// ---------------------
// ----- functions -----
// ---------------------

// ExposeBasicBlocks implements spec.md §4.8: it lowers a lambda's fully
// located body (every variable now a register or frame-var symbol) into a
// list of labeled straight-line blocks, replacing nested If/If1 with
// explicit CJump/Goto control transfers and splitting a ReturnPoint's call
// into its own block so the resume label has somewhere to attach. The
// first block returned always carries lambda.Label, so callers can jump
// straight to it.
//
// Grounded on the teacher's basic-block construction in backend/arm/
// conditional.go and backend/riscv/conditional.go (both turn a structured
// if/while into label+branch pairs); generalized here from a statement
// list to this grammar's recursive Tail/Effect/Pred shape.
func ExposeBasicBlocks(lambda *ir.Lambda, frameSize int, names *compileutil.NameGen) []*ir.Block {
	var blocks []*ir.Block
	exposeTail(lambda.Label, lambda.Body, frameSize, names, &blocks)
	return blocks
}

// exposeTail builds the block(s) rooted at label for a Tail-shaped n,
// always emitting exactly one *ir.Block whose Label is label (plus
// whatever additional blocks its branches require).
func exposeTail(label string, n ir.Node, frameSize int, names *compileutil.NameGen, blocks *[]*ir.Block) {
	exposeEffects(label, flattenEffects(n), nil, frameSize, names, blocks)
}

// exposeEffects scans a flattened effect list looking for the first
// control-altering element (If1, ReturnPoint, or a trailing tail-shaped
// If/Funcall/Goto), finalizes the current block up to that point, and
// recurses for whatever follows. cont is the transfer to use if the list
// is exhausted without one being found (the continuation of an If1's
// then-branch); cont is nil in a genuine tail context, where the final
// element itself supplies the transfer.
func exposeEffects(label string, effects []ir.Node, cont ir.Node, frameSize int, names *compileutil.NameGen, blocks *[]*ir.Block) {
	var pending []ir.Node
	for i := 0; i < len(effects); i++ {
		switch v := effects[i].(type) {
		case *ir.If1:
			contLabel := names.Label("cont")
			thenLabel := names.Label("then")
			var predBlocks []*ir.Block
			transfer := exposePred(v.Cond, thenLabel, contLabel, names, &predBlocks)
			appendBlock(blocks, label, pending, transfer)
			*blocks = append(*blocks, predBlocks...)
			exposeEffects(thenLabel, flattenEffects(v.Then), &ir.Goto{Label: contLabel}, frameSize, names, blocks)
			exposeEffects(contLabel, effects[i+1:], cont, frameSize, names, blocks)
			return
		case *ir.ReturnPoint:
			bodyEffects := flattenEffects(v.Body)
			call, ok := bodyEffects[len(bodyEffects)-1].(*ir.Funcall)
			if !ok {
				panic(fmt.Sprintf("passes: expected ReturnPoint body to end in a call, got %T", bodyEffects[len(bodyEffects)-1]))
			}
			moves := bodyEffects[:len(bodyEffects)-1]
			prefix := append(append([]ir.Node{}, pending...), moves...)
			if frameSize > 0 {
				prefix = append(prefix, &ir.FrameAdjust{Delta: frameSize})
			}
			transfer := &ir.CallJump{ReturnLabel: v.Label, Target: call.Target, Args: call.Args}
			appendBlock(blocks, label, prefix, transfer)

			resumeEffects := effects[i+1:]
			if frameSize > 0 {
				resumeEffects = append([]ir.Node{&ir.FrameAdjust{Delta: -frameSize}}, resumeEffects...)
			}
			exposeEffects(v.Label, resumeEffects, cont, frameSize, names, blocks)
			return
		case *ir.If:
			thenLabel := names.Label("then")
			elseLabel := names.Label("else")
			var predBlocks []*ir.Block
			transfer := exposePred(v.Cond, thenLabel, elseLabel, names, &predBlocks)
			appendBlock(blocks, label, pending, transfer)
			*blocks = append(*blocks, predBlocks...)
			exposeTail(thenLabel, v.Then, frameSize, names, blocks)
			exposeTail(elseLabel, v.Else, frameSize, names, blocks)
			return
		case *ir.Funcall, *ir.Goto:
			appendBlock(blocks, label, pending, v)
			return
		default:
			pending = append(pending, v)
		}
	}
	if cont == nil {
		cont = &ir.Nop{}
	}
	appendBlock(blocks, label, pending, cont)
}

// exposePred turns a Pred-shaped node into the control transfer to use in
// a CJump/Goto position, spawning fresh blocks for a nested If the way
// exposeTail does for a tail-positioned one.
func exposePred(cond ir.Node, thenLabel, elseLabel string, names *compileutil.NameGen, blocks *[]*ir.Block) ir.Node {
	switch c := cond.(type) {
	case *ir.TruePred:
		return &ir.Goto{Label: thenLabel}
	case *ir.FalsePred:
		return &ir.Goto{Label: elseLabel}
	case *ir.Relop:
		return &ir.CJump{Op: c.Op, Arg1: c.Arg1, Arg2: c.Arg2, Then: thenLabel, Else: elseLabel}
	case *ir.Begin:
		effects := flattenEffects(c)
		last := effects[len(effects)-1]
		rest := effects[:len(effects)-1]
		transfer := exposePred(last, thenLabel, elseLabel, names, blocks)
		if len(rest) == 0 {
			return transfer
		}
		return &ir.Begin{Effects: append(append([]ir.Node{}, rest...), transfer)}
	case *ir.If:
		innerThen := names.Label("then")
		innerElse := names.Label("else")
		appendBlock(blocks, innerThen, nil, exposePred(c.Then, thenLabel, elseLabel, names, blocks))
		appendBlock(blocks, innerElse, nil, exposePred(c.Else, thenLabel, elseLabel, names, blocks))
		return exposePred(c.Cond, innerThen, innerElse, names, blocks)
	default:
		panic(fmt.Sprintf("passes: exposePred encountered a non-Pred node %T", cond))
	}
}

// flattenEffects inlines nested Begins into a single flat slice; anything
// else becomes a singleton slice holding itself.
func flattenEffects(n ir.Node) []ir.Node {
	if b, ok := n.(*ir.Begin); ok {
		var out []ir.Node
		for _, e := range b.Effects {
			out = append(out, flattenEffects(e)...)
		}
		return out
	}
	return []ir.Node{n}
}

// appendBlock finalizes one block: effects followed by transfer.
func appendBlock(blocks *[]*ir.Block, label string, effects []ir.Node, transfer ir.Node) {
	body := transfer
	if len(effects) > 0 {
		body = &ir.Begin{Effects: append(append([]ir.Node{}, effects...), transfer)}
	}
	*blocks = append(*blocks, &ir.Block{Label: label, Body: body})
}
