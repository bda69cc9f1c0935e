package vm

import "strconv"

const (
	ElementsPerVector = 4   // float32 lanes per Vector
	VectorsPerChunk   = 128 // vectors processed per chunk
	ChunkSize         = VectorsPerChunk * ElementsPerVector

	NumTempRegisters   = 8  // r0-r7: VM-owned temporaries
	MaxInputRegisters  = 32 // r8-r39: caller inputs
	MaxOutputRegisters = 32 // r40-r71: caller outputs
	MaxRegisters       = NumTempRegisters + MaxInputRegisters + MaxOutputRegisters

	FirstInputRegister  = NumTempRegisters
	FirstOutputRegister = FirstInputRegister + MaxInputRegisters

	MaxConstants = 256 // constant indices are one byte
)

// TempBank is the VM-owned storage behind the temporary registers.
type TempBank [NumTempRegisters][VectorsPerChunk]Vector

// reset zeroes every temporary so a chunk never observes another chunk's values.
func (b *TempBank) reset() {
	for i := range b {
		clear(b[i][:])
	}
}

// RegisterTable maps register slots to the lane slices they currently refer to.
// Temporary slots point into a TempBank for the lifetime of an invocation;
// input and output slots are rebased at the start of every chunk.
type RegisterTable [MaxRegisters][]Vector

// NewRegisterTable binds the temporary slots to bank and leaves all other slots unbound.
func NewRegisterTable(bank *TempBank) *RegisterTable {
	rt := &RegisterTable{}
	for i := range bank {
		rt[i] = bank[i][:]
	}
	return rt
}

// Rebind points the input and output slots at the lanes of the given chunk.
// Only slices are recomputed; nothing is allocated.
func (rt *RegisterTable) Rebind(inputs, outputs [][]Vector, chunk int) {
	base := chunk * VectorsPerChunk
	for i, in := range inputs {
		rt[FirstInputRegister+i] = in[base:]
	}
	for i, out := range outputs {
		rt[FirstOutputRegister+i] = out[base:]
	}
}

// InputRegister returns the register slot of input n.
func InputRegister(n int) uint8 {
	return uint8(FirstInputRegister + n)
}

// OutputRegister returns the register slot of output n.
func OutputRegister(n int) uint8 {
	return uint8(FirstOutputRegister + n)
}

// RegisterName renders a slot as r<n>, i<n> or o<n>.
func RegisterName(slot uint8) string {
	switch {
	case slot < FirstInputRegister:
		return "r" + strconv.Itoa(int(slot))
	case slot < FirstOutputRegister:
		return "i" + strconv.Itoa(int(slot)-FirstInputRegister)
	case slot < MaxRegisters:
		return "o" + strconv.Itoa(int(slot)-FirstOutputRegister)
	default:
		return "r" + strconv.Itoa(int(slot))
	}
}
