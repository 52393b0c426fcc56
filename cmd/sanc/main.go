// Command sanc compiles a SanScript source file to its serialized
// bytecode form. Usage: sanc <source> <destination>.
package main

import (
	"fmt"
	"os"

	"sanscript/internal/bytefmt"
	"sanscript/internal/compiler"
)

func main() {
	args := os.Args[1:]
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: sanc <source> <destination>")
		os.Exit(1)
	}

	source, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not read file \"%s\": %v\n", args[0], err)
		os.Exit(1)
	}

	fn, errs, ok := compiler.CompileWithErrors(string(source))
	if !ok {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		os.Exit(65)
	}

	if err := os.WriteFile(args[1], bytefmt.Serialize(fn), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Could not write file \"%s\": %v\n", args[1], err)
		os.Exit(1)
	}
}
