// Package compileutil provides the ambient stack shared by every pass:
// parallel error collection, fresh-name/label generation, and buffered
// assembly output. All three are adapted directly from the teacher's
// src/util package (perror.go, label.go, io.go).
package compileutil

import "sync"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// ErrorCollector fans in errors reported by the worker goroutines that
// internal/compiler runs, one per lambda, around the fixed-point driver
// (passes.RunLambda). Adapted
// from the teacher's util.perror, trimmed to a plain mutex-guarded slice
// since this pipeline's fan-out is bounded by the lambda count and never
// needs perror's explicit stop channel.
type ErrorCollector struct {
	mu     sync.Mutex
	errors []error
}

// ---------------------
// ----- functions -----
// ---------------------

// NewErrorCollector returns an ErrorCollector ready to receive errors from
// n worker goroutines.
func NewErrorCollector(n int) *ErrorCollector {
	if n < 1 {
		n = 1
	}
	return &ErrorCollector{errors: make([]error, 0, n)}
}

// Append records err, ignoring nil.
func (c *ErrorCollector) Append(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, err)
}

// Len returns the number of collected errors.
func (c *ErrorCollector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errors)
}

// Errors returns a copy of the collected errors in report order.
func (c *ErrorCollector) Errors() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := make([]error, len(c.errors))
	copy(res, c.errors)
	return res
}
