// Package disasm prints human-readable dumps of tokens and compiled
// chunks for the interpreter CLI's -debug flag.
package disasm

import (
	"fmt"
	"io"

	"sanscript/internal/bytecode"
	"sanscript/internal/lexer"
	"sanscript/internal/token"
	"sanscript/internal/value"
)

// Tokens scans source to EOF and writes one line per token to w, a
// standalone dump mode for debugging the scanner in isolation ahead of
// compilation.
func Tokens(w io.Writer, source string) {
	s := lexer.New(source)
	line := -1
	for {
		t := s.Next()
		if t.Line != line {
			fmt.Fprintf(w, "%4d ", t.Line)
			line = t.Line
		} else {
			fmt.Fprint(w, "   | ")
		}
		fmt.Fprintf(w, "%-16s '%s'\n", t.Kind, s.Lexeme(t))
		if t.Kind == token.EOF {
			break
		}
	}
}

// Chunk writes a disassembly of every instruction in c, labeled name,
// to w. Nested Function constants are dumped recursively after the
// instructions that reference them.
func Chunk(w io.Writer, c *bytecode.Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < c.Len(); offset++ {
		Instruction(w, c, offset)
	}
	for _, constant := range c.Constants {
		if v, ok := constant.(value.Value); ok && v.IsFunction() {
			Chunk(w, v.Fn.Chunk, v.Fn.Name)
		}
	}
}

// Instruction writes a single disassembled instruction at offset. A
// line number repeated from the previous instruction prints as "|"
// instead of being repeated.
func Instruction(w io.Writer, c *bytecode.Chunk, offset int) {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", c.Lines[offset])
	}

	ins := c.Code[offset]
	switch ins.Op {
	case bytecode.OpConstant, bytecode.OpDefineGlobal, bytecode.OpGetGlobal, bytecode.OpSetGlobal:
		v := c.Constants[ins.Operand]
		fmt.Fprintf(w, "%-18s %4d '%v'\n", ins.Op, ins.Operand, v)
	case bytecode.OpGetLocal, bytecode.OpSetLocal, bytecode.OpCall:
		fmt.Fprintf(w, "%-18s %4d\n", ins.Op, ins.Operand)
	case bytecode.OpJump, bytecode.OpJumpIfFalse, bytecode.OpJumpIfTrue:
		fmt.Fprintf(w, "%-18s %4d -> %d\n", ins.Op, ins.Operand, offset+1+ins.Operand)
	case bytecode.OpLoop:
		fmt.Fprintf(w, "%-18s %4d -> %d\n", ins.Op, ins.Operand, offset+1-ins.Operand)
	default:
		fmt.Fprintf(w, "%s\n", ins.Op)
	}
}
