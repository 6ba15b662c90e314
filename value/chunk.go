package value

import (
	"encoding/binary"
	"fmt"
)

// OpCode is a single-byte bytecode instruction tag.
type OpCode byte

const (
	OpConstant OpCode = iota
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpGetLocal
	OpSetLocal
	OpGetGlobal
	OpDefineGlobal
	OpSetGlobal
	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate
	OpPrint
	OpJump
	OpJumpIfFalse
	OpLoop
	OpCall
	OpReturn
)

// OpDef describes one opcode: its mnemonic and the byte width of each of
// its operands, in encoding order.
type OpDef struct {
	Name          string
	OperandWidths []int
}

var opDefs = map[OpCode]OpDef{
	OpConstant:     {"OP_CONSTANT", []int{1}},
	OpNil:          {"OP_NIL", nil},
	OpTrue:         {"OP_TRUE", nil},
	OpFalse:        {"OP_FALSE", nil},
	OpPop:          {"OP_POP", nil},
	OpGetLocal:     {"OP_GET_LOCAL", []int{1}},
	OpSetLocal:     {"OP_SET_LOCAL", []int{1}},
	OpGetGlobal:    {"OP_GET_GLOBAL", []int{1}},
	OpDefineGlobal: {"OP_DEFINE_GLOBAL", []int{1}},
	OpSetGlobal:    {"OP_SET_GLOBAL", []int{1}},
	OpEqual:        {"OP_EQUAL", nil},
	OpGreater:      {"OP_GREATER", nil},
	OpLess:         {"OP_LESS", nil},
	OpAdd:          {"OP_ADD", nil},
	OpSubtract:     {"OP_SUBTRACT", nil},
	OpMultiply:     {"OP_MULTIPLY", nil},
	OpDivide:       {"OP_DIVIDE", nil},
	OpNot:          {"OP_NOT", nil},
	OpNegate:       {"OP_NEGATE", nil},
	OpPrint:        {"OP_PRINT", nil},
	OpJump:         {"OP_JUMP", []int{2}},
	OpJumpIfFalse:  {"OP_JUMP_IF_FALSE", []int{2}},
	OpLoop:         {"OP_LOOP", []int{2}},
	OpCall:         {"OP_CALL", []int{1}},
	OpReturn:       {"OP_RETURN", nil},
}

// LookupOp returns the definition for op, or an error if op is unknown.
func LookupOp(op OpCode) (OpDef, error) {
	def, ok := opDefs[op]
	if !ok {
		return OpDef{}, fmt.Errorf("opcode %d undefined", op)
	}
	return def, nil
}

// AssembleInstruction builds the byte encoding of op and its operands.
// Multi-byte operands are written big-endian, matching the rest of the
// pack's bytecode encodings.
func AssembleInstruction(op OpCode, operands ...int) ([]byte, error) {
	def, err := LookupOp(op)
	if err != nil {
		return nil, err
	}

	length := 1
	for _, w := range def.OperandWidths {
		length += w
	}

	instr := make([]byte, length)
	instr[0] = byte(op)

	offset := 1
	for i, width := range def.OperandWidths {
		switch width {
		case 1:
			instr[offset] = byte(operands[i])
		case 2:
			binary.BigEndian.PutUint16(instr[offset:], uint16(operands[i]))
		}
		offset += width
	}
	return instr, nil
}

// Chunk is an append-only (during compilation) sequence of bytecode paired
// with its constant pool and a parallel per-byte line table.
type Chunk struct {
	Code      []byte
	Constants []Value
	Lines     []int
}

// NewChunk returns an empty Chunk.
func NewChunk() *Chunk {
	return &Chunk{}
}

// Write appends a single bytecode byte, recording the source line it came
// from. Lines always has the same length as Code.
func (c *Chunk) Write(b byte, line int) int {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
	return len(c.Code) - 1
}

// WriteInstruction appends a fully assembled instruction, one byte at a
// time, so the line table stays aligned with Code.
func (c *Chunk) WriteInstruction(instr []byte, line int) int {
	pos := len(c.Code)
	for _, b := range instr {
		c.Write(b, line)
	}
	return pos
}

// maxConstants is the largest constant-pool size a chunk may hold: indices
// are encoded as a single byte operand, so 256 constants (indices 0-255)
// is the hard ceiling.
const maxConstants = 256

// AddConstant appends v to the constant pool and returns its index.
// Fails once the pool would exceed 256 entries.
func (c *Chunk) AddConstant(v Value) (int, error) {
	if len(c.Constants) >= maxConstants {
		return 0, fmt.Errorf("Too many constants in one chunk.")
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1, nil
}
