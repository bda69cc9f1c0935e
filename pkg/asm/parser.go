package asm

import (
	"fmt"
	"strconv"
)

// OperandType represents the type of a parsed operand.
type OperandType uint8

const (
	OperandTemp OperandType = iota
	OperandInput
	OperandOutput
	OperandConst
	OperandNumber
)

// String returns a short description used in error messages.
func (t OperandType) String() string {
	switch t {
	case OperandTemp:
		return "temp register"
	case OperandInput:
		return "input register"
	case OperandOutput:
		return "output register"
	case OperandConst:
		return "constant"
	default:
		return "number"
	}
}

// Operand represents an instruction or directive operand.
type Operand struct {
	Type   OperandType
	Index  int     // For registers and constants
	Number float64 // For literals
	Text   string
}

// AsmInstruction represents a parsed assembly instruction.
type AsmInstruction struct {
	Mnemonic string
	Operands []Operand
	Line     int
}

// ConstDirective represents a parsed .const line.
type ConstDirective struct {
	Index  int
	Values []float64
	Line   int
}

// AsmProgram represents a parsed assembly program.
type AsmProgram struct {
	Instructions []AsmInstruction
	Constants    []ConstDirective
}

// Parser parses VVM assembly source code.
type Parser struct {
	tokens  []Token
	pos     int
	program *AsmProgram
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	lexer := NewLexer(input)
	tokens := lexer.Tokenize()
	return &Parser{
		tokens:  tokens,
		pos:     0,
		program: &AsmProgram{},
	}
}

// Parse parses the entire input and returns the program.
func (p *Parser) Parse() (*AsmProgram, error) {
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]

		switch tok.Type {
		case TokenEOF:
			return p.program, nil

		case TokenNewline:
			p.pos++

		case TokenIdent:
			inst, err := p.parseInstruction()
			if err != nil {
				return nil, err
			}
			p.program.Instructions = append(p.program.Instructions, inst)

		case TokenDirective:
			dir, err := p.parseDirective()
			if err != nil {
				return nil, err
			}
			p.program.Constants = append(p.program.Constants, dir)

		default:
			return nil, fmt.Errorf("line %d: %w: unexpected %s %q at start of line",
				tok.Line, ErrBadOperand, tok.Type, tok.Value)
		}
	}

	return p.program, nil
}

func (p *Parser) parseInstruction() (AsmInstruction, error) {
	inst := AsmInstruction{
		Mnemonic: p.tokens[p.pos].Value,
		Line:     p.tokens[p.pos].Line,
	}
	p.pos++ // Consume mnemonic

	operands, err := p.parseOperandList()
	if err != nil {
		return inst, err
	}
	inst.Operands = operands
	return inst, nil
}

func (p *Parser) parseDirective() (ConstDirective, error) {
	tok := p.tokens[p.pos]
	if tok.Value != ".const" {
		return ConstDirective{}, fmt.Errorf("line %d: %w: unknown directive %s", tok.Line, ErrUnknownMnemonic, tok.Value)
	}
	p.pos++

	operands, err := p.parseOperandList()
	if err != nil {
		return ConstDirective{}, err
	}
	if len(operands) != 2 && len(operands) != 5 {
		return ConstDirective{}, fmt.Errorf("line %d: %w: .const takes an index and 1 or 4 values, got %d operands",
			tok.Line, ErrOperandCount, len(operands))
	}

	dir := ConstDirective{Line: tok.Line}
	for i, op := range operands {
		if op.Type != OperandNumber {
			return ConstDirective{}, fmt.Errorf("line %d: %w: .const expects numbers, got %s", tok.Line, ErrBadOperand, op.Text)
		}
		if i == 0 {
			idx := int(op.Number)
			if float64(idx) != op.Number {
				return ConstDirective{}, fmt.Errorf("line %d: %w: %s", tok.Line, ErrConstIndex, op.Text)
			}
			dir.Index = idx
			continue
		}
		dir.Values = append(dir.Values, op.Number)
	}
	return dir, nil
}

// parseOperandList reads comma-separated operands up to the end of the line.
func (p *Parser) parseOperandList() ([]Operand, error) {
	var operands []Operand
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]

		if tok.Type == TokenNewline || tok.Type == TokenEOF {
			break
		}

		if tok.Type == TokenComma {
			p.pos++
			continue
		}

		operand, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
	}
	return operands, nil
}

func (p *Parser) parseOperand() (Operand, error) {
	tok := p.tokens[p.pos]

	var typ OperandType
	switch tok.Type {
	case TokenRegTemp:
		typ = OperandTemp
	case TokenRegInput:
		typ = OperandInput
	case TokenRegOutput:
		typ = OperandOutput
	case TokenConst:
		typ = OperandConst

	case TokenNumber:
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return Operand{}, fmt.Errorf("line %d: %w: invalid number %s", tok.Line, ErrBadOperand, tok.Value)
		}
		p.pos++
		return Operand{Type: OperandNumber, Number: f, Text: tok.Value}, nil

	default:
		return Operand{}, fmt.Errorf("line %d: %w: unexpected token %q", tok.Line, ErrBadOperand, tok.Value)
	}

	idx, err := strconv.Atoi(tok.Value[1:])
	if err != nil {
		return Operand{}, fmt.Errorf("line %d: %w: invalid index %s", tok.Line, ErrBadOperand, tok.Value)
	}
	p.pos++
	return Operand{Type: typ, Index: idx, Text: tok.Value}, nil
}
