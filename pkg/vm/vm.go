// Package vm implements the vector virtual machine.
//
// The VM is a register-based bytecode interpreter that runs one linear
// instruction stream over a batch of independent lanes:
//   - 8 temporary registers (r0-r7) owned by the VM
//   - up to 32 input registers (r8-r39) and 32 output registers (r40-r71)
//     bound to caller lane arrays
//   - up to 256 broadcast constants
//
// Lanes are processed in chunks of VectorsPerChunk vectors with a fixed-size
// temporary bank, so any lane count runs in constant working storage.
//
// Basic usage:
//
//	err := vm.Exec(code, inputs, outputs, constants, numLanes)
//
// With options:
//
//	v := vm.NewVM(vm.WithDescriptorPolicy(vm.DescriptorStrict), vm.WithSeed(7))
//	err := v.Exec(code, inputs, outputs, constants, numLanes)
package vm

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"github.com/tliron/commonlog"
)

// Error definitions
var (
	ErrUnknownOpcode     = errors.New("unknown opcode")
	ErrUnwiredDescriptor = errors.New("unwired operand descriptor")
	ErrMalformedProgram  = errors.New("malformed program")
	ErrTooManyInputs     = errors.New("too many input registers")
	ErrTooManyOutputs    = errors.New("too many output registers")
	ErrTooManyConstants  = errors.New("too many constants")
	ErrInvalidLaneCount  = errors.New("invalid lane count")
	ErrShortLaneArray    = errors.New("lane array shorter than lane count")
)

// ExecutionStats contains metrics about VM execution for observability.
type ExecutionStats struct {
	Chunks          int            // Chunks executed
	Instructions    int64          // Instructions dispatched, summed over chunks
	LanesProcessed  int64          // Lanes covered by executed chunks
	ExecutionTimeNs int64          // Wall time of the last invocation
	OpCounts        map[string]int // Dispatch count per opcode mnemonic
}

// VM holds the execution policy shared by every invocation. A VM carries no
// per-invocation state and may be used from several goroutines at once.
type VM struct {
	policy DescriptorPolicy
	seed   uint64
	seeded bool
	log    commonlog.Logger

	statsEnabled bool
	statsMu      sync.Mutex
	stats        ExecutionStats
}

// Option configures a VM.
type Option func(*VM)

// WithDescriptorPolicy sets how unwired operand descriptors are handled.
func WithDescriptorPolicy(p DescriptorPolicy) Option {
	return func(v *VM) {
		v.policy = p
	}
}

// WithSeed makes the random kernel reproducible. Each chunk draws from its
// own stream keyed by (seed, chunk index).
func WithSeed(seed uint64) Option {
	return func(v *VM) {
		v.seed = seed
		v.seeded = true
	}
}

// WithStats enables execution statistics collection.
func WithStats() Option {
	return func(v *VM) {
		v.statsEnabled = true
	}
}

// WithLogger replaces the package logger.
func WithLogger(log commonlog.Logger) Option {
	return func(v *VM) {
		v.log = log
	}
}

// NewVM creates a new VM instance.
func NewVM(opts ...Option) *VM {
	v := &VM{
		log: commonlog.GetLogger("vvm.vm"),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.stats.OpCounts = make(map[string]int)
	return v
}

// Policy returns the configured descriptor policy.
func (vm *VM) Policy() DescriptorPolicy {
	return vm.policy
}

// Stats returns a snapshot of the statistics gathered since the VM was
// created. Returns nil if stats were not enabled via WithStats.
func (vm *VM) Stats() *ExecutionStats {
	if !vm.statsEnabled {
		return nil
	}
	vm.statsMu.Lock()
	defer vm.statsMu.Unlock()
	s := vm.stats
	s.OpCounts = make(map[string]int, len(vm.stats.OpCounts))
	for k, n := range vm.stats.OpCounts {
		s.OpCounts[k] = n
	}
	return &s
}

// Exec runs code with a default VM.
func Exec(code []byte, inputs, outputs [][]Vector, constants []Vector, numLanes int) error {
	return NewVM().Exec(code, inputs, outputs, constants, numLanes)
}

// Exec runs code over numLanes lanes. Input and output arrays must hold at
// least numLanes vectors each; outputs are written in place and inputs are
// never modified. The program must end with OpDone.
func (vm *VM) Exec(code []byte, inputs, outputs [][]Vector, constants []Vector, numLanes int) error {
	return vm.exec(context.Background(), code, inputs, outputs, constants, numLanes)
}

// exec runs the chunks in order on one temporary bank, checking ctx before
// each chunk.
func (vm *VM) exec(ctx context.Context, code []byte, inputs, outputs [][]Vector, constants []Vector, numLanes int) error {
	if err := checkShape(inputs, outputs, constants, numLanes); err != nil {
		return err
	}

	var startTime time.Time
	if vm.statsEnabled {
		startTime = time.Now()
	}

	bank := new(TempBank)
	registers := NewRegisterTable(bank)

	numChunks := (numLanes + VectorsPerChunk - 1) / VectorsPerChunk
	remaining := numLanes
	for chunk := 0; chunk < numChunks; chunk++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		registers.Rebind(inputs, outputs, chunk)

		// Bound the chunk before the counter moves; it goes negative after
		// a partial final chunk.
		lanes := min(remaining, VectorsPerChunk)
		remaining -= VectorsPerChunk

		if err := vm.runChunk(code, registers, bank, constants, chunk, lanes); err != nil {
			return err
		}
	}

	if vm.statsEnabled {
		vm.statsMu.Lock()
		vm.stats.ExecutionTimeNs = time.Since(startTime).Nanoseconds()
		vm.statsMu.Unlock()
	}
	return nil
}

// runChunk executes the whole program once over one chunk of lanes.
func (vm *VM) runChunk(code []byte, registers *RegisterTable, bank *TempBank, constants []Vector, chunk, lanes int) (err error) {
	bank.reset()

	c := NewContext(code, registers, constants, lanes)
	c.policy = vm.policy
	c.rng = vm.source(chunk)

	var counts [NumOpcodes]int64
	defer func() {
		if r := recover(); r != nil {
			re, ok := r.(runtime.Error)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("%w: %v (chunk %d, offset %d)", ErrMalformedProgram, re, chunk, c.insn)
		}
	}()

	for {
		c.insn = c.PC
		op := c.decodeOp()
		if op == OpDone {
			break
		}
		if err := c.dispatch(op); err != nil {
			if errors.Is(err, ErrUnknownOpcode) {
				vm.log.Criticalf("unknown op code 0x%02x at offset %d, chunk %d", uint8(op), c.insn, chunk)
			}
			return fmt.Errorf("chunk %d: %w", chunk, err)
		}
		counts[op]++
	}

	if vm.statsEnabled {
		vm.recordChunk(&counts, lanes)
	}
	return nil
}

// source returns the random stream for a chunk.
func (vm *VM) source(chunk int) Float32Source {
	if vm.seeded {
		return rand.New(rand.NewPCG(vm.seed, uint64(chunk)))
	}
	return globalSource{}
}

func (vm *VM) recordChunk(counts *[NumOpcodes]int64, lanes int) {
	vm.statsMu.Lock()
	defer vm.statsMu.Unlock()
	vm.stats.Chunks++
	vm.stats.LanesProcessed += int64(lanes)
	for op, n := range counts {
		if n == 0 {
			continue
		}
		vm.stats.Instructions += n
		vm.stats.OpCounts[Opcode(op).String()] += int(n)
	}
}

// globalSource draws from the process-wide generator, which is safe for
// concurrent use.
type globalSource struct{}

func (globalSource) Float32() float32 { return rand.Float32() }

// checkShape validates register counts and lane array lengths before any
// lane is touched.
func checkShape(inputs, outputs [][]Vector, constants []Vector, numLanes int) error {
	if numLanes < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLaneCount, numLanes)
	}
	if len(inputs) > MaxInputRegisters {
		return fmt.Errorf("%w: %d > %d", ErrTooManyInputs, len(inputs), MaxInputRegisters)
	}
	if len(outputs) > MaxOutputRegisters {
		return fmt.Errorf("%w: %d > %d", ErrTooManyOutputs, len(outputs), MaxOutputRegisters)
	}
	if len(constants) > MaxConstants {
		return fmt.Errorf("%w: %d > %d", ErrTooManyConstants, len(constants), MaxConstants)
	}
	for i, in := range inputs {
		if len(in) < numLanes {
			return fmt.Errorf("%w: input %d has %d lanes, need %d", ErrShortLaneArray, i, len(in), numLanes)
		}
	}
	for i, out := range outputs {
		if len(out) < numLanes {
			return fmt.Errorf("%w: output %d has %d lanes, need %d", ErrShortLaneArray, i, len(out), numLanes)
		}
	}
	return nil
}
