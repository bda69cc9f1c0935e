package vm

import "fmt"

// DescriptorPolicy selects what a dispatcher does with an operand descriptor
// that its arity does not wire.
type DescriptorPolicy uint8

const (
	// DescriptorLegacy skips the instruction: the destination keeps its
	// contents and no operand bytes are consumed.
	DescriptorLegacy DescriptorPolicy = iota
	// DescriptorStrict fails the invocation with ErrUnwiredDescriptor.
	DescriptorStrict
)

// String returns "legacy" or "strict".
func (p DescriptorPolicy) String() string {
	if p == DescriptorStrict {
		return "strict"
	}
	return "legacy"
}

// unwired applies the descriptor policy for an unmatched pattern.
func (c *Context) unwired(desc uint8) error {
	if c.policy == DescriptorStrict {
		return fmt.Errorf("%w: %s descriptor 0x%02x at offset %d",
			ErrUnwiredDescriptor, Opcode(c.Code[c.insn]), desc, c.insn)
	}
	return nil
}

// execUnary runs a one-operand kernel over the chunk.
func execUnary(c *Context, k UnaryKernel) error {
	dst := c.decodeRegister()
	desc := c.decodeOperandTypes()
	n := c.NumLanes

	switch desc {
	case OperandsRRR:
		a := c.decodeRegister()
		for i := 0; i < n; i++ {
			dst[i] = k(a[i])
		}
	case OperandsCRR:
		a := c.decodeConstant()
		for i := 0; i < n; i++ {
			dst[i] = k(a)
		}
	default:
		return c.unwired(desc)
	}
	return nil
}

// execBinary runs a two-operand kernel over the chunk.
func execBinary(c *Context, k BinaryKernel) error {
	dst := c.decodeRegister()
	desc := c.decodeOperandTypes()
	n := c.NumLanes

	switch desc {
	case OperandsRRR:
		a := c.decodeRegister()
		b := c.decodeRegister()
		for i := 0; i < n; i++ {
			dst[i] = k(a[i], b[i])
		}
	case OperandsCRR:
		a := c.decodeConstant()
		b := c.decodeRegister()
		for i := 0; i < n; i++ {
			dst[i] = k(a, b[i])
		}
	case OperandsRCR:
		a := c.decodeRegister()
		b := c.decodeConstant()
		for i := 0; i < n; i++ {
			dst[i] = k(a[i], b)
		}
	case OperandsCCR:
		a := c.decodeConstant()
		b := c.decodeConstant()
		for i := 0; i < n; i++ {
			dst[i] = k(a, b)
		}
	default:
		return c.unwired(desc)
	}
	return nil
}

// execTrinary runs a three-operand kernel over the chunk. Pattern RRC
// (only the third operand constant) is not wired.
func execTrinary(c *Context, k TrinaryKernel) error {
	dst := c.decodeRegister()
	desc := c.decodeOperandTypes()
	n := c.NumLanes

	switch desc {
	case OperandsRRR:
		a := c.decodeRegister()
		b := c.decodeRegister()
		d := c.decodeRegister()
		for i := 0; i < n; i++ {
			dst[i] = k(a[i], b[i], d[i])
		}
	case OperandsCRR:
		a := c.decodeConstant()
		b := c.decodeRegister()
		d := c.decodeRegister()
		for i := 0; i < n; i++ {
			dst[i] = k(a, b[i], d[i])
		}
	case OperandsRCR:
		a := c.decodeRegister()
		b := c.decodeConstant()
		d := c.decodeRegister()
		for i := 0; i < n; i++ {
			dst[i] = k(a[i], b, d[i])
		}
	case OperandsCCR:
		a := c.decodeConstant()
		b := c.decodeConstant()
		d := c.decodeRegister()
		for i := 0; i < n; i++ {
			dst[i] = k(a, b, d[i])
		}
	case OperandsCRC:
		a := c.decodeConstant()
		b := c.decodeRegister()
		d := c.decodeConstant()
		for i := 0; i < n; i++ {
			dst[i] = k(a, b[i], d)
		}
	case OperandsRCC:
		a := c.decodeRegister()
		b := c.decodeConstant()
		d := c.decodeConstant()
		for i := 0; i < n; i++ {
			dst[i] = k(a[i], b, d)
		}
	case OperandsCCC:
		a := c.decodeConstant()
		b := c.decodeConstant()
		d := c.decodeConstant()
		for i := 0; i < n; i++ {
			dst[i] = k(a, b, d)
		}
	default:
		return c.unwired(desc)
	}
	return nil
}

// random draws from the context's source so chunks never share a stream.
func (c *Context) random(a Vector) Vector {
	return Random(c.rng, a)
}

// dispatch executes one decoded opcode against the chunk.
func (c *Context) dispatch(op Opcode) error {
	switch op {
	// Arithmetic
	case OpAdd:
		return execBinary(c, Add)
	case OpSub:
		return execBinary(c, Sub)
	case OpMul:
		return execBinary(c, Mul)
	case OpMad:
		return execTrinary(c, Mad)
	case OpLerp:
		return execTrinary(c, Lerp)
	case OpRcp:
		return execUnary(c, Rcp)
	case OpRsq:
		return execUnary(c, Rsq)
	case OpSqrt:
		return execUnary(c, Sqrt)
	case OpNeg:
		return execUnary(c, Neg)
	case OpAbs:
		return execUnary(c, Abs)

	// Exponential
	case OpExp:
		return execUnary(c, Exp)
	case OpExp2:
		return execUnary(c, Exp2)
	case OpLog:
		return execUnary(c, Log)
	case OpLog2:
		return execUnary(c, Log2)

	// Trigonometric
	case OpSin:
		return execUnary(c, Sin)
	case OpCos:
		return execUnary(c, Cos)
	case OpTan:
		return execUnary(c, Tan)
	case OpAsin:
		return execUnary(c, Asin)
	case OpAcos:
		return execUnary(c, Acos)
	case OpAtan:
		return execUnary(c, Atan)
	case OpAtan2:
		return execBinary(c, Atan2)

	// Rounding
	case OpCeil:
		return execUnary(c, Ceil)
	case OpFloor:
		return execUnary(c, Floor)
	case OpFmod:
		return execBinary(c, Fmod)
	case OpFrac:
		return execUnary(c, Frac)
	case OpTrunc:
		return execUnary(c, Trunc)

	// Range
	case OpClamp:
		return execTrinary(c, Clamp)
	case OpMin:
		return execBinary(c, Min)
	case OpMax:
		return execBinary(c, Max)
	case OpPow:
		return execBinary(c, Pow)
	case OpSign:
		return execUnary(c, Sign)
	case OpStep:
		return execBinary(c, Step)

	// Geometry
	case OpDot:
		return execBinary(c, Dot)
	case OpCross:
		return execBinary(c, Cross)
	case OpNormalize:
		return execUnary(c, Normalize)
	case OpRandom:
		return execUnary(c, c.random)
	case OpLength:
		return execUnary(c, Length)

	default:
		return fmt.Errorf("%w: 0x%02x at offset %d", ErrUnknownOpcode, uint8(op), c.insn)
	}
}
