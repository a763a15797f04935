// Package ir defines the tagged tree that every nanopass consumes and
// produces. The grammar is restricted progressively by each pass; see
// internal/passes for the passes themselves.
package ir

import (
	"fmt"
	"sort"
	"strings"

	"nanoc/internal/confgraph"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Node is implemented by every variant in the tree. Passes type-switch on
// the concrete type; there is no single shared field set because the
// grammar is a genuine sum type, not a record with optional fields.
type Node interface {
	// String renders a debug form of the node and its children.
	String() string
	isNode()
}

// Program is the top-level letrec form: a set of mutually recursive
// procedures and a body tail to evaluate.
type Program struct {
	Bindings []*Lambda
	Body     Node // a Tail, possibly wrapped in Locals/Locate/etc.
}

// Lambda is a single named procedure: (label (lambda (params) body)).
type Lambda struct {
	Label  string
	Params []string
	Body   Node
}

// Locals names the variables in scope for a lambda body, prior to
// register/frame assignment.
type Locals struct {
	Vars []string
	Tail Node
}

// Ulocals names variables introduced by select-instructions that must
// never be spilled (see internal/passes/selectinstr.go).
type Ulocals struct {
	Vars []string
	Tail Node
}

// Spills names variables that assign-registers could not color.
type Spills struct {
	Vars []string
	Tail Node
}

// Locate carries the accumulated variable -> Location map.
type Locate struct {
	Env  map[string]Location
	Tail Node
}

// FrameConflict wraps a Tail with its frame-variable interference graph.
type FrameConflict struct {
	Graph *confgraph.Graph
	Tail  Node
}

// RegisterConflict wraps a Tail with its register interference graph.
type RegisterConflict struct {
	Graph *confgraph.Graph
	Tail  Node
}

// NewFrames lists, per non-tail call site in declaration order, the
// outgoing argument-slot frame-variables assigned to that site.
type NewFrames struct {
	Frames [][]string
	Tail   Node
}

// CallLive wraps a Tail with the variables live across the enclosing
// return point (must have been placed in frame locations).
type CallLive struct {
	Vars []string
	Tail Node
}

// ReturnPoint marks the label a non-tail call resumes at; Body is the
// call itself followed by the rest of the enclosing tail/effect sequence.
type ReturnPoint struct {
	Label string
	Body  Node
}

// Begin sequences effects, the last element a tail/effect/pred depending
// on context.
type Begin struct {
	Effects []Node
}

// If is a three-way conditional tail, effect, or predicate depending on
// where it appears; Cond is always a Pred-producing node.
type If struct {
	Cond Node
	Then Node
	Else Node
}

// If1 is a conditional effect with no else branch: (if Pred Effect).
type If1 struct {
	Cond Node
	Then Node
}

// Set assigns the value of Rhs to Lhs.
type Set struct {
	Lhs Node // a Triv (Symbol, Label, or Location once finalized).
	Rhs Node
}

// Prim1 is a unary primitive, currently used only for moves through an
// already-canonical triv; kept distinct from Set so select-instructions can
// pattern match cleanly.
type Prim1 struct {
	Op  string
	Arg Node
}

// Prim2 is a binary arithmetic/logical primitive: (Op2 Triv Triv).
type Prim2 struct {
	Op   string
	Arg1 Node
	Arg2 Node
}

// Relop is a relational comparison used inside a Pred: (Relop Triv Triv).
type Relop struct {
	Op   string
	Arg1 Node
	Arg2 Node
}

// TruePred and FalsePred are the two predicate literals (true)/(false).
type TruePred struct{}
type FalsePred struct{}

// Funcall is a call in either tail or rhs position: (Triv Triv*).
type Funcall struct {
	Target Node
	Args   []Node
}

// Nop is the empty effect.
type Nop struct{}

// Symbol is a variable, physical register name, or frame-var name; see
// IsRegister/IsFrameVar/IsVariable.
type Symbol struct {
	Name string
}

// Label is a symbol containing '$', syntactically distinguished during
// reading so passes never need to search text themselves.
type Label struct {
	Name string
}

// Int64 is an integer immediate.
type Int64 struct {
	Value int64
}

// Bool is a boolean literal.
type Bool struct {
	Value bool
}

// Pair is hoisted quoted-pair data, e.g. '(1 . 5).
type Pair struct {
	Car Node
	Cdr Node
}

// Nil is the empty list '().
type Nil struct{}

// Vector is hoisted quoted-vector data, e.g. '#(1 2 3). See SPEC_FULL.md
// §4 for why this repository resolves the quoted-vector Open Question in
// favor of supporting it.
type Vector struct {
	Elements []Node
}

// Goto is an unconditional control transfer to a block label, introduced
// by expose-basic-blocks (spec.md §4.8) in place of a Tail that simply
// falls into another labeled block.
type Goto struct {
	Label string
}

// CJump is a two-way control transfer driven by a condition code,
// introduced by expose-basic-blocks in place of an If whose branches are
// both Gotos. Flatten-program (§4.9) may drop either label when it is the
// immediately following block.
type CJump struct {
	Op         string
	Arg1, Arg2 Node
	Then, Else string
}

// Block is one labeled straight-line sequence ending in a Goto, CJump, or
// tail Funcall (a jump-with-arguments or the final indirect return).
type Block struct {
	Label string
	Body  Node
}

// FlatProgram is the fully flattened program: an entry label and the
// ordered list of blocks flatten-program (§4.9) produced, ready for the
// assembly printer.
type FlatProgram struct {
	Entry  string
	Blocks []*Block
}

// FrameAdjust bumps the frame-pointer register by Delta words (positive
// before a non-tail call to make room for the callee's own frame-vars
// above the caller's, negative to restore it once the call returns) — see
// spec.md §6's positive-displacement calling convention and
// internal/passes/exposeblocks.go.
type FrameAdjust struct {
	Delta int
}

// CallJump is a non-tail call's control transfer: it loads the address of
// ReturnLabel into the return-address register, then jumps to
// Target(Args...). The block labeled ReturnLabel resumes once the callee
// jumps back through that register.
type CallJump struct {
	ReturnLabel string
	Target      Node
	Args        []Node
}

// ---------------------
// ----- Location ------
// ---------------------

// LocKind discriminates the three physical location shapes a Location
// can take after assignment.
type LocKind int

const (
	LocRegister LocKind = iota
	LocFrameVar
	LocDisp
)

// Location is a final storage location: a register, a symbolic frame-var,
// or an explicit displacement off a base register.
type Location struct {
	Kind  LocKind
	Name  string // register name, or frame-var name ("fv3")
	Base  string // base register for LocDisp, e.g. "rbp"
	Disp  int    // byte displacement for LocDisp
}

func (l Location) String() string {
	switch l.Kind {
	case LocRegister:
		return l.Name
	case LocFrameVar:
		return l.Name
	case LocDisp:
		return fmt.Sprintf("%d(%%%s)", l.Disp, l.Base)
	default:
		panic(fmt.Sprintf("ir: malformed Location{Kind:%d Name:%q Base:%q Disp:%d}", int(l.Kind), l.Name, l.Base, l.Disp))
	}
}

func (Program) isNode()          {}
func (Lambda) isNode()           {}
func (Locals) isNode()           {}
func (Ulocals) isNode()          {}
func (Spills) isNode()           {}
func (Locate) isNode()           {}
func (FrameConflict) isNode()    {}
func (RegisterConflict) isNode() {}
func (NewFrames) isNode()        {}
func (CallLive) isNode()         {}
func (ReturnPoint) isNode()      {}
func (Begin) isNode()            {}
func (If) isNode()               {}
func (If1) isNode()              {}
func (Set) isNode()              {}
func (Prim1) isNode()            {}
func (Prim2) isNode()            {}
func (Relop) isNode()            {}
func (TruePred) isNode()         {}
func (FalsePred) isNode()        {}
func (Funcall) isNode()          {}
func (Nop) isNode()              {}
func (Symbol) isNode()           {}
func (Label) isNode()            {}
func (Int64) isNode()            {}
func (Bool) isNode()             {}
func (Pair) isNode()             {}
func (Nil) isNode()              {}
func (Vector) isNode()           {}
func (Goto) isNode()             {}
func (CJump) isNode()            {}
func (Block) isNode()            {}
func (FlatProgram) isNode()      {}
func (FrameAdjust) isNode()      {}
func (CallJump) isNode()         {}

// ---------------------
// ----- functions -----
// ---------------------

// String renders n and its children as a parenthesized debug form, in the
// teacher's "tagged type name + children" printing idiom, adapted from a
// fixed-depth indent-print to a single-line s-expression since this
// grammar's nodes carry heterogeneous child shapes rather than a uniform
// Children slice.
func (n *Program) String() string {
	sb := strings.Builder{}
	sb.WriteString("(letrec (")
	for i, b := range n.Bindings {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(b.String())
	}
	sb.WriteString(") ")
	sb.WriteString(nodeString(n.Body))
	sb.WriteString(")")
	return sb.String()
}

func (n *Lambda) String() string {
	return fmt.Sprintf("[%s (lambda (%s) %s)]", n.Label, strings.Join(n.Params, " "), nodeString(n.Body))
}

func (n *Locals) String() string {
	return fmt.Sprintf("(locals (%s) %s)", strings.Join(n.Vars, " "), nodeString(n.Tail))
}

func (n *Ulocals) String() string {
	return fmt.Sprintf("(ulocals (%s) %s)", strings.Join(n.Vars, " "), nodeString(n.Tail))
}

func (n *Spills) String() string {
	return fmt.Sprintf("(spills (%s) %s)", strings.Join(n.Vars, " "), nodeString(n.Tail))
}

func (n *Locate) String() string {
	keys := make([]string, 0, len(n.Env))
	for k := range n.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sb := strings.Builder{}
	sb.WriteString("(locate (")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(fmt.Sprintf("[%s %s]", k, n.Env[k].String()))
	}
	sb.WriteString(") ")
	sb.WriteString(nodeString(n.Tail))
	sb.WriteString(")")
	return sb.String()
}

func (n *FrameConflict) String() string {
	return fmt.Sprintf("(frame-conflict %s %s)", n.Graph.String(), nodeString(n.Tail))
}

func (n *RegisterConflict) String() string {
	return fmt.Sprintf("(register-conflict %s %s)", n.Graph.String(), nodeString(n.Tail))
}

func (n *NewFrames) String() string {
	sb := strings.Builder{}
	sb.WriteString("(new-frames (")
	for i, f := range n.Frames {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString("(" + strings.Join(f, " ") + ")")
	}
	sb.WriteString(") ")
	sb.WriteString(nodeString(n.Tail))
	sb.WriteString(")")
	return sb.String()
}

func (n *CallLive) String() string {
	return fmt.Sprintf("(call-live (%s) %s)", strings.Join(n.Vars, " "), nodeString(n.Tail))
}

func (n *ReturnPoint) String() string {
	return fmt.Sprintf("(return-point %s %s)", n.Label, nodeString(n.Body))
}

func (n *Begin) String() string {
	parts := make([]string, len(n.Effects))
	for i, e := range n.Effects {
		parts[i] = nodeString(e)
	}
	return "(begin " + strings.Join(parts, " ") + ")"
}

func (n *If) String() string {
	return fmt.Sprintf("(if %s %s %s)", nodeString(n.Cond), nodeString(n.Then), nodeString(n.Else))
}

func (n *If1) String() string {
	return fmt.Sprintf("(if %s %s)", nodeString(n.Cond), nodeString(n.Then))
}

func (n *Set) String() string {
	return fmt.Sprintf("(set! %s %s)", nodeString(n.Lhs), nodeString(n.Rhs))
}

func (n *Prim1) String() string {
	return fmt.Sprintf("(%s %s)", n.Op, nodeString(n.Arg))
}

func (n *Prim2) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Op, nodeString(n.Arg1), nodeString(n.Arg2))
}

func (n *Relop) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Op, nodeString(n.Arg1), nodeString(n.Arg2))
}

func (n *TruePred) String() string  { return "(true)" }
func (n *FalsePred) String() string { return "(false)" }

func (n *Funcall) String() string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = nodeString(a)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("(%s)", nodeString(n.Target))
	}
	return fmt.Sprintf("(%s %s)", nodeString(n.Target), strings.Join(parts, " "))
}

func (n *Nop) String() string { return "(nop)" }

func (n *Symbol) String() string { return n.Name }
func (n *Label) String() string  { return n.Name }
func (n *Int64) String() string  { return fmt.Sprintf("%d", n.Value) }
func (n *Bool) String() string {
	if n.Value {
		return "#t"
	}
	return "#f"
}
func (n *Pair) String() string { return fmt.Sprintf("(%s . %s)", nodeString(n.Car), nodeString(n.Cdr)) }
func (n *Nil) String() string  { return "()" }
func (n *Vector) String() string {
	parts := make([]string, len(n.Elements))
	for i, e := range n.Elements {
		parts[i] = nodeString(e)
	}
	return "#(" + strings.Join(parts, " ") + ")"
}

func (n *FrameAdjust) String() string { return fmt.Sprintf("(frame-adjust %d)", n.Delta) }

func (n *CallJump) String() string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = nodeString(a)
	}
	return fmt.Sprintf("(call-jump %s %s (%s))", n.ReturnLabel, nodeString(n.Target), strings.Join(parts, " "))
}

func (n *Goto) String() string { return fmt.Sprintf("(jump %s)", n.Label) }

func (n *CJump) String() string {
	return fmt.Sprintf("(if (%s %s %s) (jump %s) (jump %s))", n.Op, nodeString(n.Arg1), nodeString(n.Arg2), n.Then, n.Else)
}

func (n *Block) String() string {
	return fmt.Sprintf("[%s %s]", n.Label, nodeString(n.Body))
}

func (n *FlatProgram) String() string {
	parts := make([]string, len(n.Blocks))
	for i, b := range n.Blocks {
		parts[i] = b.String()
	}
	return fmt.Sprintf("(code %s %s)", n.Entry, strings.Join(parts, " "))
}

// nodeString renders a possibly-nil Node, matching the teacher's
// nil-safe String()/Print() guards in src/ir/nodetype.go.
func nodeString(n Node) string {
	if n == nil {
		return "---> NIL"
	}
	return n.String()
}
