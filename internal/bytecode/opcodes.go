package bytecode

// OpCode identifies the operation an Instruction performs. Operands are
// fused into the Instruction value itself rather than encoded as a
// trailing byte stream, so decoding never walks past a variable-length
// operand and there is no risk of overflowing into the next instruction.
type OpCode int

const (
	OpReturn OpCode = iota
	OpConstant
	OpDefineGlobal
	OpGetGlobal
	OpSetGlobal
	OpGetLocal
	OpSetLocal
	OpNegate
	OpNot
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpTrue
	OpFalse
	OpNil
	OpEqual
	OpGreater
	OpLess
	OpPrint
	OpPop
	OpJumpIfFalse
	OpJumpIfTrue
	OpJump
	OpLoop
	OpCall
)

var opNames = map[OpCode]string{
	OpReturn:       "OP_RETURN",
	OpConstant:     "OP_CONSTANT",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpGetLocal:     "OP_GET_LOCAL",
	OpSetLocal:     "OP_SET_LOCAL",
	OpNegate:       "OP_NEGATE",
	OpNot:          "OP_NOT",
	OpAdd:          "OP_ADD",
	OpSubtract:     "OP_SUBTRACT",
	OpMultiply:     "OP_MULTIPLY",
	OpDivide:       "OP_DIVIDE",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpNil:          "OP_NIL",
	OpEqual:        "OP_EQUAL",
	OpGreater:      "OP_GREATER",
	OpLess:         "OP_LESS",
	OpPrint:        "OP_PRINT",
	OpPop:          "OP_POP",
	OpJumpIfFalse:  "OP_JUMP_IF_FALSE",
	OpJumpIfTrue:   "OP_JUMP_IF_TRUE",
	OpJump:         "OP_JUMP",
	OpLoop:         "OP_LOOP",
	OpCall:         "OP_CALL",
}

func (op OpCode) String() string {
	if n, ok := opNames[op]; ok {
		return n
	}
	return "OP_UNKNOWN"
}

// Instruction is one logical bytecode unit: an opcode plus its (optional)
// inline operand. Which meaning Operand carries — constant index, local
// slot, jump offset, or call argument count — depends on Op.
type Instruction struct {
	Op      OpCode
	Operand int
}
