package vm

import "sanscript/internal/value"

// frame is one call frame: the function being executed, the instruction
// pointer into its Chunk, and the base stack slot its locals start at
// (slot 0 of a frame is the callee value itself, per the compiler's
// reserved slot-0 convention).
type frame struct {
	fn        *value.Function
	ip        int
	stackBase int
}
