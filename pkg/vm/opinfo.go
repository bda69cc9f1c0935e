package vm

import (
	"errors"
	"fmt"
	"strings"
)

// OpFlags describe static properties of an opcode table entry.
type OpFlags uint8

const (
	OpFlagNone        OpFlags = 0
	OpFlagImplemented OpFlags = 1 << 0 // the VM dispatches this opcode
	OpFlagCommutative OpFlags = 1 << 1 // the first two operands may be swapped
)

// String lists the set flags, e.g. "implemented|commutative".
func (f OpFlags) String() string {
	var parts []string
	if f&OpFlagImplemented != 0 {
		parts = append(parts, "implemented")
	}
	if f&OpFlagCommutative != 0 {
		parts = append(parts, "commutative")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// OperandKind is the expected source of an operand slot.
type OperandKind uint8

const (
	OperandRegister OperandKind = iota
	OperandConst
	OperandInvalid
)

// String returns "reg", "const" or "-".
func (k OperandKind) String() string {
	switch k {
	case OperandRegister:
		return "reg"
	case OperandConst:
		return "const"
	default:
		return "-"
	}
}

// OpInfo describes one entry of the opcode metadata table.
type OpInfo struct {
	Op       Opcode
	Flags    OpFlags
	Operands [3]OperandKind
	Name     string
}

// Implemented reports whether the entry is flagged as dispatched.
func (i OpInfo) Implemented() bool { return i.Flags&OpFlagImplemented != 0 }

// Commutative reports whether the entry is flagged commutative.
func (i OpInfo) Commutative() bool { return i.Flags&OpFlagCommutative != 0 }

var ErrOpInfoIndex = errors.New("opcode info index out of range")

const (
	reg = OperandRegister
	cst = OperandConst
	inv = OperandInvalid

	impl = OpFlagImplemented
	comm = OpFlagCommutative
	none = OpFlagNone
)

func opInfo(op Opcode, flags OpFlags, a, b, c OperandKind, name string) OpInfo {
	return OpInfo{Op: op, Flags: flags, Operands: [3]OperandKind{a, b, c}, Name: name}
}

// opInfoTable is tooling metadata only; dispatch never reads it. Several
// entries describe the same opcode under different static operand patterns.
var opInfoTable = [...]OpInfo{
	opInfo(OpDone, none, inv, inv, inv, "done"),

	opInfo(OpAdd, impl|comm, reg, reg, inv, "Add"),
	opInfo(OpAdd, none, reg, cst, inv, "addi"),

	opInfo(OpSub, impl, reg, reg, inv, "Sub"),
	opInfo(OpSub, none, reg, cst, inv, "subi"),

	opInfo(OpMul, impl|comm, reg, reg, inv, "Multiply"),
	opInfo(OpMul, none, reg, cst, inv, "muli"),

	opInfo(OpMad, impl|comm, reg, reg, reg, "Multiply-Add"),
	opInfo(OpMad, none, reg, reg, cst, "madrri"),
	opInfo(OpMad, none, reg, cst, reg, "madrir"),
	opInfo(OpMad, none, reg, cst, cst, "madrii"),
	opInfo(OpMad, none, cst, cst, reg, "madiir"),
	opInfo(OpMad, none, cst, cst, cst, "madiii"),

	opInfo(OpLerp, impl, reg, reg, reg, "Lerp"),
	opInfo(OpLerp, none, cst, reg, reg, "lerpirr"),
	opInfo(OpLerp, none, reg, cst, reg, "lerprir"),
	opInfo(OpLerp, none, reg, reg, cst, "lerprri"),
	opInfo(OpLerp, none, cst, cst, reg, "lerpiir"),

	opInfo(OpRcp, impl, reg, inv, inv, "Reciprocal"),
	opInfo(OpRsq, impl, reg, inv, inv, "Reciprocal Sqrt"),
	opInfo(OpSqrt, impl, reg, inv, inv, "Sqrt"),
	opInfo(OpNeg, impl, reg, inv, inv, "Negate"),
	opInfo(OpAbs, impl, reg, inv, inv, "Absolute"),
	opInfo(OpExp, impl, reg, inv, inv, "Exp"),
	opInfo(OpExp2, impl, reg, inv, inv, "Exp2"),
	opInfo(OpLog, impl, reg, inv, inv, "Log"),
	opInfo(OpLog2, impl, reg, inv, inv, "Log base 2"),
	opInfo(OpSin, impl, reg, inv, inv, "Sin"),
	opInfo(OpSin, none, cst, inv, inv, "sini"),
	opInfo(OpCos, impl, reg, inv, inv, "Cos"),
	opInfo(OpTan, impl, reg, inv, inv, "Tan"),
	opInfo(OpAsin, impl, reg, inv, inv, "Arcsin"),
	opInfo(OpAcos, impl, reg, inv, inv, "Arccos"),
	opInfo(OpAtan, impl, reg, inv, inv, "Arctan"),
	opInfo(OpAtan2, impl, reg, reg, inv, "Arctan2"),
	opInfo(OpCeil, impl, reg, inv, inv, "Round up"),
	opInfo(OpFloor, impl, reg, inv, inv, "Round down"),
	opInfo(OpFmod, impl, reg, reg, inv, "Modulo"),
	opInfo(OpFrac, impl, reg, inv, inv, "Fractional"),
	opInfo(OpTrunc, impl, reg, inv, inv, "Trunc"),

	opInfo(OpClamp, impl, reg, reg, reg, "Clamp"),
	opInfo(OpClamp, none, reg, cst, reg, "clampir"),
	opInfo(OpClamp, none, reg, reg, cst, "clampri"),
	opInfo(OpClamp, none, reg, cst, cst, "clampii"),

	opInfo(OpMin, impl, reg, reg, inv, "Min"),
	opInfo(OpMin, none, reg, cst, inv, "mini"),

	opInfo(OpMax, impl, reg, reg, inv, "Max"),
	opInfo(OpMax, none, reg, cst, inv, "maxi"),

	opInfo(OpPow, impl, reg, reg, inv, "Pow"),
	opInfo(OpPow, none, reg, cst, inv, "powi"),

	opInfo(OpSign, impl, reg, inv, inv, "Sign"),

	opInfo(OpStep, impl, reg, reg, inv, "Step"),
	opInfo(OpStep, none, reg, cst, inv, "stepi"),

	opInfo(OpTexLookup, none, inv, inv, inv, "tex1d"),

	opInfo(OpDot, impl, reg, reg, inv, "Dot Product"),
	opInfo(OpCross, impl|comm, reg, reg, inv, "Cross Product"),
	opInfo(OpCross, none, reg, cst, inv, "Cross Product with const"),

	opInfo(OpNormalize, impl, reg, inv, inv, "Normalize"),
	opInfo(OpRandom, impl, cst, inv, inv, "Random"),

	opInfo(OpLength, impl, reg, inv, inv, "Vector Length"),
	opInfo(OpLength, none, cst, inv, inv, "Vector Length (const)"),

	opInfo(OpInvalid, none, inv, inv, inv, "invalid"),
}

// canonicalInfo indexes the first table entry of every opcode.
var canonicalInfo = func() [NumOpcodes]int {
	var idx [NumOpcodes]int
	for i := range idx {
		idx[i] = -1
	}
	for i, info := range opInfoTable {
		if int(info.Op) < NumOpcodes && idx[info.Op] < 0 {
			idx[info.Op] = i
		}
	}
	return idx
}()

// NumOpInfos returns the number of metadata table entries, sentinel included.
func NumOpInfos() int {
	return len(opInfoTable)
}

// OpInfoAt returns table entry index. Out-of-range indices are clamped onto
// the trailing "invalid" sentinel rather than reported.
func OpInfoAt(index int) OpInfo {
	if index < 0 {
		index = 0
	}
	if index >= len(opInfoTable) {
		index = len(opInfoTable) - 1
	}
	return opInfoTable[index]
}

// LookupOpInfo is the checked form of OpInfoAt.
func LookupOpInfo(index int) (OpInfo, error) {
	if index < 0 || index >= len(opInfoTable) {
		return OpInfo{}, fmt.Errorf("%w: %d (table has %d entries)", ErrOpInfoIndex, index, len(opInfoTable))
	}
	return opInfoTable[index], nil
}

// InfoFor returns the canonical metadata entry of op.
func InfoFor(op Opcode) (OpInfo, bool) {
	if int(op) >= NumOpcodes || canonicalInfo[op] < 0 {
		return OpInfo{}, false
	}
	return opInfoTable[canonicalInfo[op]], true
}

// OpInfos returns a copy of the whole metadata table.
func OpInfos() []OpInfo {
	out := make([]OpInfo, len(opInfoTable))
	copy(out, opInfoTable[:])
	return out
}
