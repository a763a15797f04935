package main

import (
	"fmt"
	"os"

	"nanoc/internal/compiler"
	"nanoc/internal/reader"
)

// run drives the compiler end to end: read source, compile, write output.
// Mirrors the teacher's src/main.go run function, trimmed of the
// token-stream/LLVM/validate-tree branches that have no equivalent once
// the target is fixed to AT&T x86-64 text.
func run(opt Options) error {
	src, err := os.ReadFile(opt.Src)
	if err != nil {
		return fmt.Errorf("could not read source file: %s", err)
	}

	prog, err := reader.Parse(string(src))
	if err != nil {
		return fmt.Errorf("parse error: %s", err)
	}

	asm, err := compiler.CompileWithThreads(prog, opt.Threads)
	if err != nil {
		return fmt.Errorf("compile error: %s", err)
	}

	if opt.Verbose {
		fmt.Fprintf(os.Stderr, "nanoc: compiled %s (%d bytes of assembly)\n", opt.Src, len(asm))
	}

	if len(opt.Out) > 0 {
		if err := os.WriteFile(opt.Out, []byte(asm), 0644); err != nil {
			return fmt.Errorf("could not write output file: %s", err)
		}
		return nil
	}
	fmt.Print(asm)
	return nil
}

func main() {
	opt, err := ParseArgs()
	if err != nil {
		fmt.Printf("Command line argument error: %s\n", err)
		os.Exit(1)
	}
	if err := run(opt); err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
}
