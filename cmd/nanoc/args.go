package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Options holds the parsed command line. Trimmed from the teacher's
// util.Options down to the flags that still mean something once the
// target is fixed to AT&T x86-64 text (spec.md §6): no architecture,
// vendor, OS, or LLVM selection.
type Options struct {
	Src     string
	Out     string
	Threads int
	Verbose bool
}

// ---------------------
// ----- Constants -----
// ---------------------

const maxThreads = 64
const appVersion = "nanoc 1.0"

// ---------------------
// ----- functions -----
// ---------------------

// ParseArgs parses os.Args[1:], matching the teacher's util.ParseArgs flag
// loop almost directly.
func ParseArgs() (Options, error) {
	opt := Options{}
	args := os.Args[1:]
	if len(args) == 0 {
		return opt, fmt.Errorf("no source file given")
	}
	switch args[len(args)-1] {
	case "-h", "--h", "-help", "--help":
		printHelp()
		os.Exit(0)
	case "-v", "--v", "-version", "--version":
		fmt.Println(appVersion)
		os.Exit(0)
	}
	for i1 := 0; i1 < len(args)-1; i1++ {
		switch args[i1] {
		case "-h", "--h", "-help", "--help":
			printHelp()
			os.Exit(0)
		case "-o", "-t":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			if strings.HasPrefix(args[i1+1], "-") {
				return opt, fmt.Errorf("expected argument, got new flag %s", args[i1+1])
			}
			switch args[i1] {
			case "-o":
				opt.Out = args[i1+1]
			case "-t":
				t, err := strconv.Atoi(args[i1+1])
				if err != nil {
					return opt, fmt.Errorf("expected integer thread count, got: %s", args[i1+1])
				}
				if t < 1 || t > maxThreads {
					return opt, fmt.Errorf("thread count must be integer in range [1, %d]", maxThreads)
				}
				opt.Threads = t
			}
			i1++
		case "-v", "--v", "-version", "--version":
			fmt.Println(appVersion)
			os.Exit(0)
		case "-vb":
			opt.Verbose = true
		default:
			return opt, fmt.Errorf("unexpected flag: %s", args[i1])
		}
	}
	opt.Src = args[len(args)-1]
	if strings.HasPrefix(opt.Src, "-") {
		return opt, fmt.Errorf("expected path to source file, got flag %s", opt.Src)
	}
	return opt, nil
}

func printHelp() {
	w := tabwriter.NewWriter(os.Stdout, 6, 1, 1, 0, 0)
	_, _ = fmt.Fprintln(w, "-h, -help\tPrints this help message and exits.")
	_, _ = fmt.Fprintln(w, "-o\tPath and name of the output assembly file. Defaults to stdout.")
	_, _ = fmt.Fprintf(w, "-t\tNumber of lambdas to compile in parallel. Must be in range [1, %d].\n", maxThreads)
	_, _ = fmt.Fprintln(w, "-v, -version\tPrints the application version and exits.")
	_, _ = fmt.Fprintln(w, "-vb\tVerbose mode: print the size of the compiled assembly to stderr.")
	_ = w.Flush()
}
