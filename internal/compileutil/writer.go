package compileutil

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Writer buffers formatted assembly text. Adapted directly from the
// teacher's util.Writer, trimmed of the channel-based multi-writer fan-in
// (this pipeline's assembly printer runs single-threaded per spec.md §5,
// "no parallelism within a compile") down to a plain strings.Builder.
type Writer struct {
	sb strings.Builder
}

// ---------------------
// ----- functions -----
// ---------------------

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write appends a formatted line (the caller supplies its own newline).
func (w *Writer) Write(format string, args ...interface{}) {
	w.sb.WriteString(fmt.Sprintf(format, args...))
}

// WriteString appends s verbatim.
func (w *Writer) WriteString(s string) {
	w.sb.WriteString(s)
}

// Label writes a one-line label declaration.
func (w *Writer) Label(name string) {
	w.sb.WriteString(fmt.Sprintf("%s:\n", name))
}

// Ins0 writes a zero-operand instruction, e.g. "ret".
func (w *Writer) Ins0(op string) {
	w.sb.WriteString(fmt.Sprintf("\t%s\n", op))
}

// Ins1 writes a one-operand instruction.
func (w *Writer) Ins1(op, a string) {
	w.sb.WriteString(fmt.Sprintf("\t%s\t%s\n", op, a))
}

// Ins2 writes a two-operand instruction in AT&T order (source, dest).
func (w *Writer) Ins2(op, src, dst string) {
	w.sb.WriteString(fmt.Sprintf("\t%s\t%s, %s\n", op, src, dst))
}

// String returns the buffered text.
func (w *Writer) String() string {
	return w.sb.String()
}

// Flush writes the buffered text to out and clears the buffer.
func (w *Writer) Flush(out *bufio.Writer) error {
	if _, err := out.WriteString(w.sb.String()); err != nil {
		return err
	}
	w.sb.Reset()
	return out.Flush()
}

// WriteFile writes the buffered text to path, truncating or creating it,
// matching the teacher's main.go os.OpenFile flags exactly.
func (w *Writer) WriteFile(path string) (err error) {
	f, ferr := os.OpenFile(path, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
	if ferr != nil {
		return ferr
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	bw := bufio.NewWriter(f)
	return w.Flush(bw)
}
