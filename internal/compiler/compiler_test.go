package compiler

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
)

// TestCompileSourceSimpleArithmetic exercises spec.md §8 scenario 1: a
// straight-line program with no lambdas that sets rax, adds to it, and
// tail-jumps back through r15. The final return value is moved into rax
// explicitly before the zero-argument (r15) tail call, this reader's
// surface-grammar resolution of spec.md §6's "final tail jumps to r15"
// convention (see DESIGN.md).
func TestCompileSourceSimpleArithmetic(t *testing.T) {
	src := `(letrec () (begin (set! rax 5) (set! rax (+ rax 10)) (r15)))`
	out, err := CompileSource(src)
	if err != nil {
		t.Fatalf("CompileSource returned error: %s", err)
	}
	if !strings.Contains(out, "movq\t$5, %rax\n") {
		t.Errorf("expected the literal move into %%rax, got:\n%s", out)
	}
	if !strings.Contains(out, "addq\t$10, %rax\n") {
		t.Errorf("expected an addq immediate into %%rax, got:\n%s", out)
	}
	if !strings.Contains(out, "jmp\t*%r15\n") {
		t.Errorf("expected the final indirect jump through %%r15, got:\n%s", out)
	}
}

// TestCompileSourceFactorial exercises spec.md §8 scenario 3: a
// self-recursive factorial whose recursive call sits in rhs position,
// forcing return-point lowering, compiles without error and produces a
// call through the non-tail calling convention.
func TestCompileSourceFactorial(t *testing.T) {
	src := `
		(letrec ([f$1 (lambda (x.1)
		                (if (= x.1 0)
		                    (begin (set! rax 1) (r15))
		                    (begin (set! n.1 (- x.1 1))
		                           (set! r.1 (f$1 n.1))
		                           (set! rax (* x.1 r.1))
		                           (r15))))])
		  (f$1 5))
	`
	out, err := CompileSource(src)
	if err != nil {
		t.Fatalf("CompileSource returned error: %s", err)
	}
	if !strings.Contains(out, "f$1:") {
		t.Errorf("expected a label for f$1, got:\n%s", out)
	}
	if !regexp.MustCompile(`leaq\t\S+\(%rip\), %r15`).MatchString(out) {
		t.Errorf("expected a return-address load for the non-tail recursive call, got:\n%s", out)
	}
	if !strings.Contains(out, "jmp\tf$1\n") {
		t.Errorf("expected a direct call-site jump into f$1, got:\n%s", out)
	}
	if !strings.Contains(out, "imulq") {
		t.Errorf("expected the multiplication to lower to imulq, got:\n%s", out)
	}
}

// TestCompileSourceManySimultaneousLiveVariables exercises spec.md §8
// scenario 6: enough simultaneously live variables to force the fixed-point
// spilling loop, and checks the result still obeys the two-operand /
// single-memory-operand invariant spec.md §8 names as a universal property.
func TestCompileSourceManySimultaneousLiveVariables(t *testing.T) {
	var b strings.Builder
	b.WriteString("(letrec () (begin ")
	n := 26
	for i := 0; i < n; i++ {
		b.WriteString("(set! v")
		b.WriteString(strconv.Itoa(i))
		b.WriteString(".1 ")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(") ")
	}
	b.WriteString("(set! acc.1 0) ")
	for i := 0; i < n; i++ {
		b.WriteString("(set! acc.1 (+ acc.1 v")
		b.WriteString(strconv.Itoa(i))
		b.WriteString(".1)) ")
	}
	b.WriteString("(set! rax acc.1) (r15)))")

	out, err := CompileSource(b.String())
	if err != nil {
		t.Fatalf("CompileSource returned error on a spill-heavy program: %s", err)
	}
	if !strings.Contains(out, "(%rbp)") {
		t.Errorf("expected at least one spilled variable to land in a frame-var (an N(%%rbp) operand), got:\n%s", out)
	}

	// Every instruction line should have at most one parenthesized
	// (memory/displacement) operand, per spec.md §3/§8's canonical-form
	// property.
	for _, line := range strings.Split(out, "\n") {
		if strings.Count(line, "(%") > 1 {
			t.Errorf("instruction line has more than one memory operand: %q", line)
		}
	}
}

// TestCompileSourceEmptyLetrec exercises spec.md §8's empty-letrec boundary
// test: no bindings, a trivial body.
func TestCompileSourceEmptyLetrec(t *testing.T) {
	out, err := CompileSource(`(letrec () (begin (set! rax 0) (r15)))`)
	if err != nil {
		t.Fatalf("CompileSource returned error: %s", err)
	}
	if !strings.Contains(out, ".globl _scheme_entry") {
		t.Errorf("expected the fixed assembly prologue, got:\n%s", out)
	}
}

// TestCompileSourceRejectsParseError exercises spec.md §7's parse-error
// surface: malformed input is reported, not panicked.
func TestCompileSourceRejectsParseError(t *testing.T) {
	_, err := CompileSource(`(letrec (`)
	if err == nil {
		t.Fatal("expected a parse error for unbalanced input")
	}
}

// TestCompileSourceManyArgumentsOverflowToFrameVars exercises spec.md §8's
// boundary test: a call with more arguments than argument registers forces
// frame-var parameters for the overflow.
func TestCompileSourceManyArgumentsOverflowToFrameVars(t *testing.T) {
	src := `
		(letrec ([f$1 (lambda (a.1 b.1 c.1 d.1 e.1 g.1 h.1)
		                (begin (set! rax a.1) (r15)))])
		  (f$1 1 2 3 4 5 6 7))
	`
	out, err := CompileSource(src)
	if err != nil {
		t.Fatalf("CompileSource returned error: %s", err)
	}
	if !strings.Contains(out, "0(%rbp)") {
		t.Errorf("expected the 7th argument to overflow into fv0 (0(%%rbp)), got:\n%s", out)
	}
}
