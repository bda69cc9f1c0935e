package vm

// Operand descriptor patterns. Bit i set means source operand i is read from
// the constant table; the letters name operands left to right.
const (
	OperandsRRR uint8 = 0x00
	OperandsCRR uint8 = 0x01
	OperandsRCR uint8 = 0x02
	OperandsCCR uint8 = 0x03
	OperandsRRC uint8 = 0x04
	OperandsCRC uint8 = 0x05
	OperandsRCC uint8 = 0x06
	OperandsCCC uint8 = 0x07
)

// Context is the per-chunk execution state. It is created for one chunk and
// never shared.
type Context struct {
	Code      []byte
	PC        int // next byte to decode
	Registers *RegisterTable
	Constants []Vector
	NumLanes  int // lanes in the active chunk, at most VectorsPerChunk

	rng    Float32Source
	policy DescriptorPolicy
	insn   int // offset of the instruction being dispatched
}

// NewContext creates a context with its cursor at the start of code.
func NewContext(code []byte, registers *RegisterTable, constants []Vector, numLanes int) *Context {
	return &Context{
		Code:      code,
		Registers: registers,
		Constants: constants,
		NumLanes:  numLanes,
	}
}

// decodeOp consumes one opcode byte.
func (c *Context) decodeOp() Opcode {
	op := Opcode(c.Code[c.PC])
	c.PC++
	return op
}

// decodeRegister consumes a register index and returns the lanes it refers to.
func (c *Context) decodeRegister() []Vector {
	r := c.Registers[c.Code[c.PC]]
	c.PC++
	return r
}

// decodeConstant consumes a constant index and returns its broadcast value.
func (c *Context) decodeConstant() Vector {
	v := c.Constants[c.Code[c.PC]]
	c.PC++
	return v
}

// decodeOperandTypes consumes an operand descriptor byte.
func (c *Context) decodeOperandTypes() uint8 {
	d := c.Code[c.PC]
	c.PC++
	return d
}
