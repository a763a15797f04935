// Package compiler orchestrates the full pipeline: parsing, per-lambda
// register allocation (run concurrently, one goroutine per lambda, fanned
// in through internal/compileutil.ErrorCollector exactly as the teacher's
// src/main.go drives its own per-function backend passes), basic-block
// exposure, program flattening, and assembly printing.
package compiler

import (
	"fmt"
	"sync"

	"nanoc/internal/asmprint"
	"nanoc/internal/compileutil"
	"nanoc/internal/ir"
	"nanoc/internal/passes"
	"nanoc/internal/reader"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// CompileError reports an internal invariant violation surfaced while
// compiling one lambda (an over-constrained register set, or any other
// "this tree shape should have been impossible" panic from the passes
// package). Spec.md §7 requires these be reported, not crash the process:
// Compile recovers the panic and wraps it here.
type CompileError struct {
	Label string
	Err   interface{}
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compiler: lambda %s: %v", e.Label, e.Err)
}

// ---------------------
// ----- functions -----
// ---------------------

// CompileSource parses src and compiles it to assembly text in one call.
// cmd/nanoc does not use it: it calls reader.Parse and CompileWithThreads
// separately so it can pass its -t thread count.
func CompileSource(src string) (string, error) {
	prog, err := reader.Parse(src)
	if err != nil {
		return "", err
	}
	return Compile(prog)
}

// Compile lowers prog all the way to AT&T assembly text, one goroutine per
// lambda. Equivalent to CompileWithThreads(prog, 0) (unbounded).
func Compile(prog *ir.Program) (string, error) {
	return CompileWithThreads(prog, 0)
}

// CompileWithThreads is Compile with the per-lambda goroutine fan-out
// capped at threads (spec.md §2/cmd/nanoc's -t flag, mirroring the
// teacher's util.Options.Threads-bounded worker pool in src/main.go);
// threads <= 0 means unbounded, one goroutine per lambda. Expose-basic-
// blocks, flatten-program, and the printer then run single-threaded over
// the results, since their output order matters and their input is
// already small relative to per-lambda allocation.
func CompileWithThreads(prog *ir.Program, threads int) (_ string, err error) {
	names := compileutil.NewNameGen()
	entryLabel := names.Label("main")

	units := make([]*ir.Lambda, 0, len(prog.Bindings)+1)
	units = append(units, &ir.Lambda{Label: entryLabel, Params: nil, Body: prog.Body})
	units = append(units, prog.Bindings...)

	compiled := make([]*ir.Lambda, len(units))
	collector := compileutil.NewErrorCollector(len(units))

	var sem chan struct{}
	if threads > 0 {
		sem = make(chan struct{}, threads)
	}

	var wg sync.WaitGroup
	wg.Add(len(units))
	for i, u := range units {
		go func(i int, u *ir.Lambda) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			defer func() {
				if r := recover(); r != nil {
					collector.Append(&CompileError{Label: u.Label, Err: r})
				}
			}()
			compiled[i] = passes.RunLambda(u, names)
		}(i, u)
	}
	wg.Wait()

	if collector.Len() > 0 {
		errs := collector.Errors()
		return "", errs[0]
	}

	entryLambda := compiled[0]
	entryBlocks := passes.ExposeBasicBlocks(entryLambda, passes.FrameSize(entryLambda.Body), names)

	lambdaBlocks := make([][]*ir.Block, 0, len(compiled)-1)
	for _, lam := range compiled[1:] {
		blocks := passes.ExposeBasicBlocks(lam, passes.FrameSize(lam.Body), names)
		lambdaBlocks = append(lambdaBlocks, blocks)
	}

	flat := passes.FlattenProgram(entryLabel, entryBlocks, lambdaBlocks)
	return asmprint.Print(flat), nil
}
