// Package vm implements the stack-based virtual machine that executes
// the bytecode produced by internal/compiler: a frame stack, a value
// stack, a globals table, and the native-function host that exposes
// the domain-stack builtins (database, network, uuid) to SanScript
// programs through the ordinary Call opcode.
package vm

import (
	"fmt"

	"sanscript/internal/bytecode"
	"sanscript/internal/sanerr"
	"sanscript/internal/value"
)

// MaxFrames bounds call-stack depth; a script that recurses past it
// raises a runtime error rather than exhausting the Go stack.
const MaxFrames = 256

// VM holds all mutable interpreter state for one run. It is not safe
// for concurrent use; SanScript programs run single-threaded.
type VM struct {
	stack   []value.Value
	frames  []frame
	globals map[string]value.Value

	out func(string) // OpPrint sink; defaults to stdout in New.
}

// New returns a VM with an empty globals table. Native functions are
// registered separately via RegisterNatives.
func New() *VM {
	return &VM{
		globals: make(map[string]value.Value),
		out:     func(s string) { fmt.Println(s) },
	}
}

// SetOutput overrides where OpPrint writes, letting tests capture
// program output instead of going to stdout.
func (vm *VM) SetOutput(w func(string)) {
	vm.out = w
}

// Define installs a global by name, used both for native-function
// registration and for any future host-provided constant.
func (vm *VM) Define(name string, v value.Value) {
	vm.globals[name] = v
}

// Run interprets fn (typically the top-level script Function returned
// by compiler.Compile) to completion.
func (vm *VM) Run(fn *value.Function) error {
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]

	vm.push(value.Func(fn))
	if err := vm.call(fn, 0); err != nil {
		return err
	}
	return vm.run()
}

func (vm *VM) push(v value.Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() value.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

func (vm *VM) currentFrame() *frame {
	return &vm.frames[len(vm.frames)-1]
}

// call pushes a new frame for fn, validating arity. The arguments
// (argCount of them) must already be on the stack directly above the
// callee, per the Call opcode's calling convention.
func (vm *VM) call(fn *value.Function, argCount int) error {
	if argCount != fn.Arity {
		return vm.runtimeError("Expected %d arguments, but got %d.", fn.Arity, argCount)
	}
	// The script itself occupies frames[0]; MaxFrames bounds nested
	// (non-script) calls, so the 256th nested call succeeds and the
	// 257th is rejected.
	if len(vm.frames)-1 >= MaxFrames {
		return vm.runtimeError("Stack overflow detected")
	}
	vm.frames = append(vm.frames, frame{
		fn:        fn,
		ip:        0,
		stackBase: len(vm.stack) - argCount - 1,
	})
	return nil
}

// callValue dispatches a Call opcode's callee, which may be a
// user-defined Function (pushes a frame) or a Native (invoked
// immediately, no frame pushed), so native calls are syntactically and
// semantically indistinguishable from user calls at the call site.
func (vm *VM) callValue(callee value.Value, argCount int) error {
	switch callee.Type {
	case value.TypeFunction:
		return vm.call(callee.Fn, argCount)
	case value.TypeNative:
		native := callee.Native
		if argCount != native.Arity {
			return vm.runtimeError("Expected %d arguments, but got %d.", native.Arity, argCount)
		}
		args := make([]value.Value, argCount)
		copy(args, vm.stack[len(vm.stack)-argCount:])
		result, err := native.Fn(args)
		if err != nil {
			return vm.runtimeError("%s", err.Error())
		}
		vm.stack = vm.stack[:len(vm.stack)-argCount-1] // pop args + callee
		vm.push(result)
		return nil
	default:
		return vm.runtimeError("Can only call functions.")
	}
}

// run is the fetch-decode-dispatch loop. It returns when the outermost
// frame (the script) returns, or on the first runtime error.
func (vm *VM) run() error {
	for {
		f := vm.currentFrame()
		chunk := f.fn.Chunk
		if f.ip >= chunk.Len() {
			return nil
		}
		ins := chunk.Code[f.ip]
		line := chunk.Lines[f.ip]
		f.ip++

		switch ins.Op {
		case bytecode.OpConstant:
			vm.push(chunk.Constants[ins.Operand].(value.Value))

		case bytecode.OpNil:
			vm.push(value.Nil())
		case bytecode.OpTrue:
			vm.push(value.Bool(true))
		case bytecode.OpFalse:
			vm.push(value.Bool(false))

		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpGetLocal:
			vm.push(vm.stack[f.stackBase+ins.Operand])
		case bytecode.OpSetLocal:
			vm.stack[f.stackBase+ins.Operand] = vm.peek(0)

		case bytecode.OpDefineGlobal:
			name := chunk.Constants[ins.Operand].(value.Value).Str
			vm.globals[name] = vm.pop()
		case bytecode.OpGetGlobal:
			name := chunk.Constants[ins.Operand].(value.Value).Str
			v, ok := vm.globals[name]
			if !ok {
				return vm.runtimeErrorAt(line, "Undefined variable '%s'.", name)
			}
			vm.push(v)
		case bytecode.OpSetGlobal:
			// SanScript assignment is an expression: the assigned value
			// stays on the stack (it does not Pop), matching `let x;
			// print x = 5;` printing 5.
			name := chunk.Constants[ins.Operand].(value.Value).Str
			if _, ok := vm.globals[name]; !ok {
				return vm.runtimeErrorAt(line, "Undefined variable '%s'.", name)
			}
			vm.globals[name] = vm.peek(0)

		case bytecode.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))
		case bytecode.OpGreater:
			if err := vm.binaryNumberOp(line, func(a, b float64) value.Value { return value.Bool(a > b) }); err != nil {
				return err
			}
		case bytecode.OpLess:
			if err := vm.binaryNumberOp(line, func(a, b float64) value.Value { return value.Bool(a < b) }); err != nil {
				return err
			}

		case bytecode.OpAdd:
			b := vm.peek(0)
			a := vm.peek(1)
			switch {
			case a.IsNumber() && b.IsNumber():
				vm.pop()
				vm.pop()
				vm.push(value.Number(a.Number + b.Number))
			case a.IsString() && b.IsString():
				vm.pop()
				vm.pop()
				vm.push(value.String(a.Str + b.Str))
			default:
				return vm.runtimeErrorAt(line, "Operands must be numbers.")
			}
		case bytecode.OpSubtract:
			if err := vm.binaryNumberOp(line, func(a, b float64) value.Value { return value.Number(a - b) }); err != nil {
				return err
			}
		case bytecode.OpMultiply:
			if err := vm.binaryNumberOp(line, func(a, b float64) value.Value { return value.Number(a * b) }); err != nil {
				return err
			}
		case bytecode.OpDivide:
			if err := vm.binaryNumberOp(line, func(a, b float64) value.Value { return value.Number(a / b) }); err != nil {
				return err
			}

		case bytecode.OpNot:
			vm.push(value.Bool(vm.pop().IsFalsey()))
		case bytecode.OpNegate:
			v := vm.peek(0)
			if !v.IsNumber() {
				return vm.runtimeErrorAt(line, "Operand must be a number.")
			}
			vm.pop()
			vm.push(value.Number(-v.Number))

		case bytecode.OpPrint:
			vm.out(vm.pop().String())

		case bytecode.OpJump:
			f.ip += ins.Operand
		case bytecode.OpJumpIfFalse:
			if vm.peek(0).IsFalsey() {
				f.ip += ins.Operand
			}
		case bytecode.OpJumpIfTrue:
			if !vm.peek(0).IsFalsey() {
				f.ip += ins.Operand
			}
		case bytecode.OpLoop:
			f.ip -= ins.Operand

		case bytecode.OpCall:
			argCount := ins.Operand
			callee := vm.peek(argCount)
			if err := vm.callValue(callee, argCount); err != nil {
				return err
			}

		case bytecode.OpReturn:
			result := vm.pop()
			base := f.stackBase
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				return nil
			}
			vm.stack = vm.stack[:base]
			vm.push(result)

		default:
			return vm.runtimeErrorAt(line, "Unknown opcode.")
		}
	}
}

func (vm *VM) binaryNumberOp(line int, op func(a, b float64) value.Value) error {
	b := vm.peek(0)
	a := vm.peek(1)
	if !a.IsNumber() || !b.IsNumber() {
		return vm.runtimeErrorAt(line, "Operands must be numbers.")
	}
	vm.pop()
	vm.pop()
	vm.push(op(a.Number, b.Number))
	return nil
}

func (vm *VM) runtimeError(format string, args ...interface{}) error {
	line := 0
	if len(vm.frames) > 0 {
		f := vm.currentFrame()
		if f.ip-1 >= 0 && f.ip-1 < f.fn.Chunk.Len() {
			line = f.fn.Chunk.Lines[f.ip-1]
		}
	}
	return vm.runtimeErrorAt(line, format, args...)
}

// runtimeErrorAt builds a SanError whose Message carries the offending
// message followed by a "[line N] in <fn>" trailer for every frame on
// the stack, innermost first, then clears the stack so a REPL can keep
// going after a runtime error.
func (vm *VM) runtimeErrorAt(line int, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)

	trace := msg
	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := vm.frames[i]
		frameLine := line
		if i != len(vm.frames)-1 {
			if f.ip-1 >= 0 && f.ip-1 < f.fn.Chunk.Len() {
				frameLine = f.fn.Chunk.Lines[f.ip-1]
			}
		}
		name := f.fn.Name
		if name == "" {
			name = "script"
		}
		trace += fmt.Sprintf("\n[line %d] in %s", frameLine, name)
	}

	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]

	return &sanerr.SanError{Kind: sanerr.RuntimeError, Message: trace, Line: line}
}
