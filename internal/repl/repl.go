// internal/repl/repl.go
package repl

import (
	"bufio"
	"fmt"
	"os"

	"sanscript/internal/compiler"
	"sanscript/internal/vm"
)

// Start runs a line-by-line read-compile-run loop against stdin. Each
// line is compiled as its own top-level script and run against the
// same VM, so `let` bindings from earlier lines stay visible as
// globals across the session.
func Start() {
	fmt.Println("SanScript REPL | type 'exit' to quit")
	scanner := bufio.NewScanner(os.Stdin)

	sanVM := vm.New()
	vm.RegisterNatives(sanVM)

	for {
		fmt.Print(">>> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "exit" {
			break
		}

		fn, errs, ok := compiler.CompileWithErrors(line)
		if !ok {
			for _, e := range errs {
				fmt.Fprintln(os.Stderr, e.Error())
			}
			continue
		}

		if err := sanVM.Run(fn); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
		}
	}
}
