// Package asmprint renders a flattened program (internal/ir.FlatProgram)
// as AT&T-syntax x86-64 assembly text, using internal/compileutil.Writer
// for buffered emission. Grounded on the teacher's backend/arm/print.go
// and backend/riscv/print.go Writer-driven printers (spec.md §4.10), with
// their ARM/RISC-V mnemonics retargeted to x86-64 AT&T syntax.
package asmprint

import (
	"fmt"
	"strings"

	"nanoc/internal/compileutil"
	"nanoc/internal/framevar"
	"nanoc/internal/ir"
	"nanoc/internal/regfile"
)

// ---------------------
// ----- Constants -----
// ---------------------

// ccJump maps a Relop operator to the x86 conditional jump mnemonic that
// tests it, assuming signed integer comparison (spec.md §3: the language
// has one integer numeric tower).
var ccJump = map[string]string{
	"=":  "je",
	"!=": "jne",
	"<":  "jl",
	"<=": "jle",
	">":  "jg",
	">=": "jge",
}

// binMnemonic maps a Prim2 operator to its x86-64 two-operand mnemonic.
var binMnemonic = map[string]string{
	"+":      "addq",
	"-":      "subq",
	"*":      "imulq",
	"logand": "andq",
	"logor":  "orq",
	"sra":    "sarq",
	"sll":    "salq",
}

// ---------------------
// ----- functions -----
// ---------------------

// Print renders prog as complete AT&T assembly text, preceded by the fixed
// _scheme_entry trampoline spec.md §6 describes: _scheme_entry loads the
// address of scheme_exit into the return-address register and jumps to
// prog.Entry, and scheme_exit hands control back to the C caller via a
// plain ret.
func Print(prog *ir.FlatProgram) string {
	w := compileutil.NewWriter()
	w.WriteString("\t.text\n")
	w.WriteString("\t.globl _scheme_entry\n")
	w.Label("_scheme_entry")
	w.Ins2("leaq", "scheme_exit(%rip)", "%"+regfile.ReturnAddressRegister)
	w.Ins1("jmp", escapeLabel(prog.Entry))
	w.Label("scheme_exit")
	w.Ins0("ret")

	for i, b := range prog.Blocks {
		next := ""
		if i+1 < len(prog.Blocks) {
			next = prog.Blocks[i+1].Label
		}
		w.Label(escapeLabel(b.Label))
		printBody(w, b.Body, next)
	}
	return w.String()
}

func printBody(w *compileutil.Writer, n ir.Node, next string) {
	if b, ok := n.(*ir.Begin); ok {
		for i, e := range b.Effects {
			if i == len(b.Effects)-1 {
				printBody(w, e, next)
			} else {
				printEffect(w, e)
			}
		}
		return
	}
	switch v := n.(type) {
	case *ir.CJump:
		printCJump(w, v, next)
	case *ir.Goto:
		if v.Label != next {
			w.Ins1("jmp", escapeLabel(v.Label))
		}
	case *ir.CallJump:
		printCallJump(w, v)
	case *ir.Funcall:
		printFuncall(w, v)
	case *ir.Nop:
	default:
		printEffect(w, n)
	}
}

func printEffect(w *compileutil.Writer, n ir.Node) {
	switch v := n.(type) {
	case *ir.Set:
		printSet(w, v)
	case *ir.FrameAdjust:
		printFrameAdjust(w, v)
	case *ir.Nop:
	default:
		panic(fmt.Sprintf("asmprint: unsupported effect %T", n))
	}
}

func printSet(w *compileutil.Writer, s *ir.Set) {
	dst := operand(s.Lhs)
	switch rhs := s.Rhs.(type) {
	case *ir.Prim2:
		mnem, ok := binMnemonic[rhs.Op]
		if !ok {
			panic(fmt.Sprintf("asmprint: unknown binary operator %q", rhs.Op))
		}
		w.Ins2(mnem, operand(rhs.Arg2), operand(rhs.Arg1))
		if operand(rhs.Arg1) != dst {
			w.Ins2("movq", operand(rhs.Arg1), dst)
		}
	case *ir.Prim1:
		w.Ins2("movq", operand(rhs.Arg), dst)
	case *ir.Label:
		w.Ins2("leaq", escapeLabel(rhs.Name)+"(%rip)", dst)
	default:
		w.Ins2("movq", operand(rhs), dst)
	}
}

func printFrameAdjust(w *compileutil.Writer, f *ir.FrameAdjust) {
	delta := f.Delta * 8
	w.Ins2("leaq", fmt.Sprintf("%d(%%%s)", delta, regfile.FrameBaseRegister), "%"+regfile.FrameBaseRegister)
}

func printCJump(w *compileutil.Writer, c *ir.CJump, next string) {
	w.Ins2("cmpq", operand(c.Arg2), operand(c.Arg1))
	mnem, ok := ccJump[c.Op]
	if !ok {
		panic(fmt.Sprintf("asmprint: unknown relational operator %q", c.Op))
	}
	w.Ins1(mnem, escapeLabel(c.Then))
	if c.Else != next {
		w.Ins1("jmp", escapeLabel(c.Else))
	}
}

func printCallJump(w *compileutil.Writer, c *ir.CallJump) {
	w.Ins2("leaq", escapeLabel(c.ReturnLabel)+"(%rip)", "%"+regfile.ReturnAddressRegister)
	w.Ins1("jmp", callTarget(c.Target))
}

func printFuncall(w *compileutil.Writer, f *ir.Funcall) {
	w.Ins1("jmp", callTarget(f.Target))
}

// callTarget renders a call/jump target: a direct symbol for a Label, or
// an indirect jump through a register/frame-var for a Symbol (the case
// for the final "jump through the return-address register" tail call).
func callTarget(n ir.Node) string {
	switch v := n.(type) {
	case *ir.Label:
		return escapeLabel(v.Name)
	case *ir.Symbol:
		return "*" + operand(v)
	default:
		panic(fmt.Sprintf("asmprint: unsupported call target %T", n))
	}
}

// operand renders a Triv as an AT&T operand.
func operand(n ir.Node) string {
	switch v := n.(type) {
	case *ir.Symbol:
		if ir.IsRegister(v.Name) {
			return "%" + v.Name
		}
		if ir.IsFrameVar(v.Name) {
			return framevar.Resolve(v.Name).String()
		}
		panic(fmt.Sprintf("asmprint: variable %q was never assigned a location", v.Name))
	case *ir.Label:
		return "$" + escapeLabel(v.Name)
	case *ir.Int64:
		return fmt.Sprintf("$%d", v.Value)
	default:
		panic(fmt.Sprintf("asmprint: unsupported operand %T", n))
	}
}

var labelEscaper = strings.NewReplacer("-", "_", "?", "q")

// escapeLabel applies spec.md §4.10's fixed escaping so every scheme-level
// identifier is a legal assembler symbol.
func escapeLabel(name string) string {
	return labelEscaper.Replace(name)
}
