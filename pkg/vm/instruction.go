package vm

import (
	"fmt"
	"strings"
)

// Instruction is one decoded instruction.
//
// Layout:
// ┌────────┬──────┬────────────┬──────────────────────────────┐
// │ opcode │ dst  │ descriptor │ operands (1 byte each)       │
// │ 8 bits │ 8 b  │   8 bits   │ register or constant index   │
// └────────┴──────┴────────────┴──────────────────────────────┘
//
// OpDone is a single byte with no fields.
type Instruction struct {
	Offset     int
	Op         Opcode
	Dst        uint8
	Descriptor uint8
	Operands   []Operand
}

// Len returns the encoded size in bytes.
func (i Instruction) Len() int {
	if i.Op == OpDone {
		return 1
	}
	return 3 + len(i.Operands)
}

// String renders the instruction in assembler syntax.
func (i Instruction) String() string {
	if i.Op == OpDone {
		return i.Op.String()
	}
	parts := make([]string, 0, 1+len(i.Operands))
	parts = append(parts, RegisterName(i.Dst))
	for _, o := range i.Operands {
		parts = append(parts, o.String())
	}
	return fmt.Sprintf("%-10s %s", i.Op, strings.Join(parts, ", "))
}

// Operand is a source operand: a register slot or a constant index.
type Operand struct {
	Kind  OperandKind
	Index uint8
}

// R returns register slot n.
func R(n int) Operand { return Operand{Kind: OperandRegister, Index: uint8(n)} }

// In returns the register slot of input n.
func In(n int) Operand { return Operand{Kind: OperandRegister, Index: InputRegister(n)} }

// Out returns the register slot of output n.
func Out(n int) Operand { return Operand{Kind: OperandRegister, Index: OutputRegister(n)} }

// C returns constant n.
func C(n int) Operand { return Operand{Kind: OperandConst, Index: uint8(n)} }

// String renders the operand as r<n>, i<n>, o<n> or c<n>.
func (o Operand) String() string {
	if o.Kind == OperandConst {
		return fmt.Sprintf("c%d", o.Index)
	}
	return RegisterName(o.Index)
}

// Descriptor computes the operand descriptor byte for srcs.
func Descriptor(srcs ...Operand) uint8 {
	var d uint8
	for i, o := range srcs {
		if o.Kind == OperandConst {
			d |= 1 << i
		}
	}
	return d
}

// Wired reports whether the dispatcher of the given arity handles desc.
func Wired(arity int, desc uint8) bool {
	switch arity {
	case 1:
		return desc == OperandsRRR || desc == OperandsCRR
	case 2:
		return desc <= OperandsCCR
	case 3:
		return desc <= OperandsCCC && desc != OperandsRRC
	default:
		return false
	}
}

// EncodeInstruction appends the encoding of op dst, srcs... to code.
func EncodeInstruction(code []byte, op Opcode, dst Operand, srcs ...Operand) []byte {
	code = append(code, byte(op), dst.Index, Descriptor(srcs...))
	for _, o := range srcs {
		code = append(code, o.Index)
	}
	return code
}

// Builder accumulates an instruction stream.
type Builder struct {
	code []byte
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Emit appends one instruction.
func (b *Builder) Emit(op Opcode, dst Operand, srcs ...Operand) *Builder {
	b.code = EncodeInstruction(b.code, op, dst, srcs...)
	return b
}

// Raw appends bytes verbatim.
func (b *Builder) Raw(bytes ...byte) *Builder {
	b.code = append(b.code, bytes...)
	return b
}

// Len returns the number of bytes emitted so far.
func (b *Builder) Len() int {
	return len(b.code)
}

// Bytes returns the stream terminated with OpDone.
func (b *Builder) Bytes() []byte {
	out := make([]byte, len(b.code), len(b.code)+1)
	copy(out, b.code)
	return append(out, byte(OpDone))
}

// Decode walks code statically and returns its instructions up to and
// including the terminator. No kernel is executed.
func Decode(code []byte) ([]Instruction, error) {
	var insts []Instruction
	pc := 0
	for {
		if pc >= len(code) {
			return insts, fmt.Errorf("%w: missing terminator after offset %d", ErrMalformedProgram, pc)
		}
		op := Opcode(code[pc])
		if op == OpDone {
			return append(insts, Instruction{Offset: pc, Op: OpDone}), nil
		}
		arity := op.Arity()
		if arity < 0 {
			return insts, fmt.Errorf("%w: 0x%02x at offset %d", ErrUnknownOpcode, uint8(op), pc)
		}
		if pc+3 > len(code) {
			return insts, fmt.Errorf("%w: truncated %s at offset %d", ErrMalformedProgram, op, pc)
		}
		inst := Instruction{Offset: pc, Op: op, Dst: code[pc+1], Descriptor: code[pc+2]}
		if !Wired(arity, inst.Descriptor) {
			return insts, fmt.Errorf("%w: %s descriptor 0x%02x at offset %d", ErrUnwiredDescriptor, op, inst.Descriptor, pc)
		}
		if pc+3+arity > len(code) {
			return insts, fmt.Errorf("%w: truncated %s operands at offset %d", ErrMalformedProgram, op, pc)
		}
		for i := 0; i < arity; i++ {
			kind := OperandRegister
			if inst.Descriptor&(1<<i) != 0 {
				kind = OperandConst
			}
			inst.Operands = append(inst.Operands, Operand{Kind: kind, Index: code[pc+3+i]})
		}
		insts = append(insts, inst)
		pc += inst.Len()
	}
}
