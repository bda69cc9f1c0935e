// Package asm assembles VVM text programs into bytecode.
//
// One instruction or directive per line, with ';' or '#' comments:
//
//	.const 1 5.0            ; c1 = splat(5)
//	.const 3 1, 2, 3, 4     ; c3 = (1, 2, 3, 4)
//	mul   r0, i0, i0        ; r<n> temp, i<n> input, o<n> output
//	add   r1, r0, c1
//	clamp o0, r0, c2, c3
//
// A terminating done is appended when the program does not end with one.
package asm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/akhildatla/vvm/pkg/vm"
)

// Error definitions
var (
	ErrUnknownMnemonic  = errors.New("unknown mnemonic")
	ErrOperandCount     = errors.New("wrong operand count")
	ErrBadOperand       = errors.New("bad operand")
	ErrDestinationConst = errors.New("destination must be a register")
	ErrConstIndex       = errors.New("bad constant index")
)

// Assemble assembles source code to a program.
func Assemble(source string) (*vm.Program, error) {
	parser := NewParser(source)
	asmProgram, err := parser.Parse()
	if err != nil {
		return nil, err
	}

	a := &Assembler{
		builder: vm.NewBuilder(),
		defined: make(map[int]int),
	}
	return a.assemble(asmProgram)
}

// Assembler encodes a parsed program.
type Assembler struct {
	builder   *vm.Builder
	constants []vm.Vector
	defined   map[int]int // constant index -> defining line
	inputs    int
	outputs   int
	lastDone  bool
}

func (a *Assembler) assemble(program *AsmProgram) (*vm.Program, error) {
	for _, dir := range program.Constants {
		if err := a.defineConstant(dir); err != nil {
			return nil, fmt.Errorf("line %d: %w", dir.Line, err)
		}
	}

	for _, inst := range program.Instructions {
		if err := a.assembleInstruction(inst); err != nil {
			return nil, fmt.Errorf("line %d: %w", inst.Line, err)
		}
	}

	code := a.builder.Bytes()
	if a.lastDone {
		// The final done was emitted explicitly; drop the one Bytes added.
		code = code[:len(code)-1]
	}

	return &vm.Program{
		Code:      code,
		Constants: a.constants,
		Inputs:    a.inputs,
		Outputs:   a.outputs,
	}, nil
}

func (a *Assembler) defineConstant(dir ConstDirective) error {
	if dir.Index < 0 || dir.Index >= vm.MaxConstants {
		return fmt.Errorf("%w: c%d (max %d)", ErrConstIndex, dir.Index, vm.MaxConstants-1)
	}
	if line, ok := a.defined[dir.Index]; ok {
		return fmt.Errorf("%w: c%d already defined on line %d", ErrConstIndex, dir.Index, line)
	}
	a.defined[dir.Index] = dir.Line

	var v vm.Vector
	if len(dir.Values) == 1 {
		v = vm.Splat(float32(dir.Values[0]))
	} else {
		for i, f := range dir.Values {
			v[i] = float32(f)
		}
	}

	for len(a.constants) <= dir.Index {
		a.constants = append(a.constants, vm.Vector{})
	}
	a.constants[dir.Index] = v
	return nil
}

func (a *Assembler) assembleInstruction(inst AsmInstruction) error {
	op, ok := vm.OpcodeFromString(strings.ToLower(inst.Mnemonic))
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMnemonic, inst.Mnemonic)
	}

	arity := op.Arity()
	if arity < 0 {
		return fmt.Errorf("%w: %s is not executable", ErrUnknownMnemonic, inst.Mnemonic)
	}

	if op == vm.OpDone {
		if len(inst.Operands) != 0 {
			return fmt.Errorf("%w: done takes no operands", ErrOperandCount)
		}
		a.builder.Raw(byte(vm.OpDone))
		a.lastDone = true
		return nil
	}

	if len(inst.Operands) != arity+1 {
		return fmt.Errorf("%w: %s expects %d operands, got %d", ErrOperandCount, op, arity+1, len(inst.Operands))
	}

	dst, err := a.operand(inst.Operands[0])
	if err != nil {
		return err
	}
	if dst.Kind == vm.OperandConst {
		return fmt.Errorf("%w: %s", ErrDestinationConst, inst.Operands[0].Text)
	}

	srcs := make([]vm.Operand, arity)
	for i, o := range inst.Operands[1:] {
		if srcs[i], err = a.operand(o); err != nil {
			return err
		}
	}

	if desc := vm.Descriptor(srcs...); !vm.Wired(arity, desc) {
		return fmt.Errorf("%w: %s with descriptor 0x%02x", vm.ErrUnwiredDescriptor, op, desc)
	}

	a.builder.Emit(op, dst, srcs...)
	a.lastDone = false
	return nil
}

// operand resolves a parsed operand to a register slot or constant index and
// records register usage.
func (a *Assembler) operand(o Operand) (vm.Operand, error) {
	switch o.Type {
	case OperandTemp:
		if o.Index >= vm.NumTempRegisters {
			return vm.Operand{}, fmt.Errorf("%w: %s (temps are r0-r%d)", ErrBadOperand, o.Text, vm.NumTempRegisters-1)
		}
		return vm.R(o.Index), nil

	case OperandInput:
		if o.Index >= vm.MaxInputRegisters {
			return vm.Operand{}, fmt.Errorf("%w: %s (inputs are i0-i%d)", ErrBadOperand, o.Text, vm.MaxInputRegisters-1)
		}
		a.inputs = max(a.inputs, o.Index+1)
		return vm.In(o.Index), nil

	case OperandOutput:
		if o.Index >= vm.MaxOutputRegisters {
			return vm.Operand{}, fmt.Errorf("%w: %s (outputs are o0-o%d)", ErrBadOperand, o.Text, vm.MaxOutputRegisters-1)
		}
		a.outputs = max(a.outputs, o.Index+1)
		return vm.Out(o.Index), nil

	case OperandConst:
		if _, ok := a.defined[o.Index]; !ok {
			return vm.Operand{}, fmt.Errorf("%w: %s is not defined", ErrConstIndex, o.Text)
		}
		return vm.C(o.Index), nil

	default:
		return vm.Operand{}, fmt.Errorf("%w: literal %s, use a .const", ErrBadOperand, o.Text)
	}
}
