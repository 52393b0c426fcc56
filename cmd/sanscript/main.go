// Command sanscript is the SanScript interpreter: no arguments starts
// a REPL, one argument interprets a file, and anything else is a
// usage error.
package main

import (
	"flag"
	"fmt"
	"os"

	"sanscript/internal/compiler"
	"sanscript/internal/disasm"
	"sanscript/internal/repl"
	"sanscript/internal/vm"
)

// debugLevel selects how much of the compile pipeline is dumped before
// running.
type debugLevel string

const (
	debugNone      debugLevel = "none"
	debugTokens    debugLevel = "tokens"
	debugBytecode  debugLevel = "bytecode"
	debugVerbose   debugLevel = "verbose"
)

func main() {
	debugFlag := flag.String("debug", string(debugNone), "dump level: none|tokens|bytecode|verbose")
	flag.Parse()
	debug := debugLevel(*debugFlag)
	args := flag.Args()

	switch len(args) {
	case 0:
		repl.Start()
	case 1:
		os.Exit(runFile(args[0], debug))
	default:
		fmt.Fprintln(os.Stderr, "Usage: sanscript [-debug none|tokens|bytecode|verbose] [path]")
		os.Exit(1)
	}
}

func runFile(path string, debug debugLevel) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not read file \"%s\": %v\n", path, err)
		os.Exit(1)
	}

	if debug == debugTokens || debug == debugVerbose {
		disasm.Tokens(os.Stdout, string(source))
	}

	fn, errs, ok := compiler.CompileWithErrors(string(source))
	if !ok {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		return 65
	}

	if debug == debugBytecode || debug == debugVerbose {
		disasm.Chunk(os.Stdout, fn.Chunk, "script")
	}

	sanVM := vm.New()
	vm.RegisterNatives(sanVM)
	if err := sanVM.Run(fn); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 70
	}
	return 0
}
