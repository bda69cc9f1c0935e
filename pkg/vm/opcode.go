package vm

// Opcode represents a VM instruction opcode.
type Opcode uint8

const (
	// ===== Control (0x00) =====
	OpDone Opcode = 0x00 // terminates the per-chunk decode loop

	// ===== Arithmetic =====
	OpAdd  Opcode = 0x01 // dst = a + b
	OpSub  Opcode = 0x02 // dst = a - b
	OpMul  Opcode = 0x03 // dst = a * b
	OpMad  Opcode = 0x04 // dst = a * b + c
	OpLerp Opcode = 0x05 // dst = a * (1 - t) + b * t
	OpRcp  Opcode = 0x06 // dst = 1 / a
	OpRsq  Opcode = 0x07 // dst = 1 / sqrt(a)
	OpSqrt Opcode = 0x08 // dst = sqrt(a)
	OpNeg  Opcode = 0x09 // dst = -a
	OpAbs  Opcode = 0x0A // dst = |a|

	// ===== Exponential =====
	OpExp  Opcode = 0x0B // dst = e^a
	OpExp2 Opcode = 0x0C // dst = 2^a
	OpLog  Opcode = 0x0D // dst = ln(a)
	OpLog2 Opcode = 0x0E // dst = log2(a)

	// ===== Trigonometric =====
	OpSin   Opcode = 0x0F // dst = splat(sin(a.x * pi))
	OpCos   Opcode = 0x10 // dst = cos(a)
	OpTan   Opcode = 0x11 // dst = tan(a)
	OpAsin  Opcode = 0x12 // dst = asin(a)
	OpAcos  Opcode = 0x13 // dst = acos(a)
	OpAtan  Opcode = 0x14 // dst = atan(a)
	OpAtan2 Opcode = 0x15 // dst = atan2(a, b)

	// ===== Rounding =====
	OpCeil  Opcode = 0x16 // dst = ceil(a)
	OpFloor Opcode = 0x17 // dst = floor(a)
	OpFmod  Opcode = 0x18 // dst = fmod(a, b)
	OpFrac  Opcode = 0x19 // dst = a - floor(a)
	OpTrunc Opcode = 0x1A // dst = trunc(a)

	// ===== Range =====
	OpClamp Opcode = 0x1B // dst = min(max(a, lo), hi)
	OpMin   Opcode = 0x1C // dst = min(a, b)
	OpMax   Opcode = 0x1D // dst = max(a, b)
	OpPow   Opcode = 0x1E // dst = a ^ b
	OpSign  Opcode = 0x1F // dst = sign(a)
	OpStep  Opcode = 0x20 // dst = b >= a ? 1 : 0

	// ===== Sampling =====
	OpTexLookup Opcode = 0x21 // reserved, not executable

	// ===== Geometry =====
	OpDot       Opcode = 0x22 // dst = splat(dot4(a, b))
	OpCross     Opcode = 0x23 // dst = cross(a, b)
	OpNormalize Opcode = 0x24 // dst = a / |a|
	OpRandom    Opcode = 0x25 // dst = rand4() * a
	OpLength    Opcode = 0x26 // dst = splat(|a|)

	// NumOpcodes is the number of defined opcodes.
	NumOpcodes = 0x27

	// OpInvalid marks the metadata sentinel entry.
	OpInvalid Opcode = 0xFF
)

var opcodeNames = [NumOpcodes]string{
	OpDone:      "done",
	OpAdd:       "add",
	OpSub:       "sub",
	OpMul:       "mul",
	OpMad:       "mad",
	OpLerp:      "lerp",
	OpRcp:       "rcp",
	OpRsq:       "rsq",
	OpSqrt:      "sqrt",
	OpNeg:       "neg",
	OpAbs:       "abs",
	OpExp:       "exp",
	OpExp2:      "exp2",
	OpLog:       "log",
	OpLog2:      "log2",
	OpSin:       "sin",
	OpCos:       "cos",
	OpTan:       "tan",
	OpAsin:      "asin",
	OpAcos:      "acos",
	OpAtan:      "atan",
	OpAtan2:     "atan2",
	OpCeil:      "ceil",
	OpFloor:     "floor",
	OpFmod:      "fmod",
	OpFrac:      "frac",
	OpTrunc:     "trunc",
	OpClamp:     "clamp",
	OpMin:       "min",
	OpMax:       "max",
	OpPow:       "pow",
	OpSign:      "sign",
	OpStep:      "step",
	OpTexLookup: "tex_lookup",
	OpDot:       "dot",
	OpCross:     "cross",
	OpNormalize: "normalize",
	OpRandom:    "random",
	OpLength:    "length",
}

var opcodesByName = func() map[string]Opcode {
	m := make(map[string]Opcode, NumOpcodes)
	for op, name := range opcodeNames {
		m[name] = Opcode(op)
	}
	return m
}()

// String returns the assembler mnemonic of an opcode.
func (o Opcode) String() string {
	if int(o) < len(opcodeNames) {
		return opcodeNames[o]
	}
	if o == OpInvalid {
		return "invalid"
	}
	return "unknown"
}

// OpcodeFromString returns the opcode for the given mnemonic.
func OpcodeFromString(s string) (Opcode, bool) {
	op, ok := opcodesByName[s]
	return op, ok
}

// Arity returns the number of source operands an opcode's kernel consumes.
// OpDone has arity 0; opcodes with no kernel report -1.
func (o Opcode) Arity() int {
	switch o {
	case OpDone:
		return 0
	case OpRcp, OpRsq, OpSqrt, OpNeg, OpAbs,
		OpExp, OpExp2, OpLog, OpLog2,
		OpSin, OpCos, OpTan, OpAsin, OpAcos, OpAtan,
		OpCeil, OpFloor, OpFrac, OpTrunc, OpSign,
		OpNormalize, OpRandom, OpLength:
		return 1
	case OpAdd, OpSub, OpMul, OpAtan2, OpFmod,
		OpMin, OpMax, OpPow, OpStep,
		OpDot, OpCross:
		return 2
	case OpMad, OpLerp, OpClamp:
		return 3
	default:
		return -1
	}
}
