// Package bytefmt serializes and deserializes a compiled Function tree
// to a self-describing binary format for persisted bytecode. The format
// is hand-rolled length-prefixed, tag-discriminated binary rather than
// encoding/gob: an explicit wire format that is self-describing and
// does not depend on the exact Go struct layout of value.Function.
package bytefmt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"sanscript/internal/bytecode"
	"sanscript/internal/value"
)

// value tags for the constant-pool encoding.
const (
	tagNil byte = iota
	tagBool
	tagNumber
	tagString
	tagFunction
)

// Serialize encodes fn and its full nested-function tree.
func Serialize(fn *value.Function) []byte {
	var buf bytes.Buffer
	writeFunction(&buf, fn)
	return buf.Bytes()
}

// Deserialize decodes a FunctionObject previously produced by
// Serialize. It returns an error if the stream is truncated or carries
// an unrecognized tag, rather than panicking on malformed input.
func Deserialize(data []byte) (*value.Function, error) {
	r := bytes.NewReader(data)
	fn, err := readFunction(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("bytefmt: %d trailing bytes after function", r.Len())
	}
	return fn, nil
}

func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.BigEndian, uint32(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", fmt.Errorf("bytefmt: reading string length: %w", err)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("bytefmt: reading string bytes: %w", err)
	}
	return string(b), nil
}

func writeFunction(buf *bytes.Buffer, fn *value.Function) {
	writeString(buf, fn.Name)
	binary.Write(buf, binary.BigEndian, int32(fn.Arity))
	writeChunk(buf, fn.Chunk)
}

func readFunction(r *bytes.Reader) (*value.Function, error) {
	name, err := readString(r)
	if err != nil {
		return nil, err
	}
	var arity int32
	if err := binary.Read(r, binary.BigEndian, &arity); err != nil {
		return nil, fmt.Errorf("bytefmt: reading arity: %w", err)
	}
	chunk, err := readChunk(r)
	if err != nil {
		return nil, err
	}
	return &value.Function{Name: name, Arity: int(arity), Chunk: chunk}, nil
}

func writeChunk(buf *bytes.Buffer, c *bytecode.Chunk) {
	binary.Write(buf, binary.BigEndian, uint32(len(c.Code)))
	for _, ins := range c.Code {
		binary.Write(buf, binary.BigEndian, int32(ins.Op))
		binary.Write(buf, binary.BigEndian, int32(ins.Operand))
	}

	binary.Write(buf, binary.BigEndian, uint32(len(c.Constants)))
	for _, constant := range c.Constants {
		writeValue(buf, constant.(value.Value))
	}

	binary.Write(buf, binary.BigEndian, uint32(len(c.Lines)))
	for _, line := range c.Lines {
		binary.Write(buf, binary.BigEndian, int32(line))
	}
}

func readChunk(r *bytes.Reader) (*bytecode.Chunk, error) {
	c := bytecode.NewChunk()

	var codeLen uint32
	if err := binary.Read(r, binary.BigEndian, &codeLen); err != nil {
		return nil, fmt.Errorf("bytefmt: reading instruction count: %w", err)
	}
	c.Code = make([]bytecode.Instruction, codeLen)
	for i := range c.Code {
		var op, operand int32
		if err := binary.Read(r, binary.BigEndian, &op); err != nil {
			return nil, fmt.Errorf("bytefmt: reading opcode: %w", err)
		}
		if err := binary.Read(r, binary.BigEndian, &operand); err != nil {
			return nil, fmt.Errorf("bytefmt: reading operand: %w", err)
		}
		c.Code[i] = bytecode.Instruction{Op: bytecode.OpCode(op), Operand: int(operand)}
	}

	var constLen uint32
	if err := binary.Read(r, binary.BigEndian, &constLen); err != nil {
		return nil, fmt.Errorf("bytefmt: reading constant count: %w", err)
	}
	c.Constants = make([]interface{}, constLen)
	for i := range c.Constants {
		v, err := readValue(r)
		if err != nil {
			return nil, err
		}
		c.Constants[i] = v
	}

	var lineLen uint32
	if err := binary.Read(r, binary.BigEndian, &lineLen); err != nil {
		return nil, fmt.Errorf("bytefmt: reading line count: %w", err)
	}
	c.Lines = make([]int, lineLen)
	for i := range c.Lines {
		var line int32
		if err := binary.Read(r, binary.BigEndian, &line); err != nil {
			return nil, fmt.Errorf("bytefmt: reading line: %w", err)
		}
		c.Lines[i] = int(line)
	}

	return c, nil
}

func writeValue(buf *bytes.Buffer, v value.Value) {
	switch v.Type {
	case value.TypeNil:
		buf.WriteByte(tagNil)
	case value.TypeBool:
		buf.WriteByte(tagBool)
		if v.Bool {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case value.TypeNumber:
		buf.WriteByte(tagNumber)
		binary.Write(buf, binary.BigEndian, math.Float64bits(v.Number))
	case value.TypeString:
		buf.WriteByte(tagString)
		writeString(buf, v.Str)
	case value.TypeFunction:
		buf.WriteByte(tagFunction)
		writeFunction(buf, v.Fn)
	default:
		// Native values are host-side only and never reach the
		// constant pool; the compiler never emits one as a Constant.
		panic(fmt.Sprintf("bytefmt: cannot serialize value of type %v", v.Type))
	}
}

func readValue(r *bytes.Reader) (value.Value, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return value.Value{}, fmt.Errorf("bytefmt: reading value tag: %w", err)
	}
	switch tag {
	case tagNil:
		return value.Nil(), nil
	case tagBool:
		b, err := r.ReadByte()
		if err != nil {
			return value.Value{}, fmt.Errorf("bytefmt: reading bool: %w", err)
		}
		return value.Bool(b != 0), nil
	case tagNumber:
		var bits uint64
		if err := binary.Read(r, binary.BigEndian, &bits); err != nil {
			return value.Value{}, fmt.Errorf("bytefmt: reading number: %w", err)
		}
		return value.Number(math.Float64frombits(bits)), nil
	case tagString:
		s, err := readString(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.String(s), nil
	case tagFunction:
		fn, err := readFunction(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.Func(fn), nil
	default:
		return value.Value{}, fmt.Errorf("bytefmt: unknown value tag %d", tag)
	}
}

