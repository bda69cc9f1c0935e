// Package embed provides the Go embedding API for vvm.
//
// A program runs over the rows of a DataFrame: input registers are gathered
// from named columns, and output registers come back as new columns.
//
// Basic usage:
//
//	program, err := asm.Assemble(`
//	    .const 0 2
//	    mul o0, i0, c0
//	`)
//
//	frame := dataframe.NewDataFrame(
//	    dataframe.NewSeriesFloat64("speed", nil, speeds...),
//	)
//
//	result, err := embed.Run(program, frame,
//	    embed.WithInputs([][]string{{"speed"}}),
//	    embed.WithOutputs([]embed.Output{{Name: "double", Components: 1}}),
//	)
package embed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	dataframe "github.com/rocketlaunchr/dataframe-go"
	"github.com/tliron/commonlog"

	"github.com/akhildatla/vvm/pkg/asm"
	"github.com/akhildatla/vvm/pkg/lanes"
	"github.com/akhildatla/vvm/pkg/vm"
)

// Common errors
var (
	ErrTimeout     = errors.New("execution timeout exceeded")
	ErrInputCount  = errors.New("input bindings do not cover program inputs")
	ErrOutputCount = errors.New("outputs do not cover program outputs")
	ErrLaneCount   = errors.New("lane count exceeds frame rows")
)

var log = commonlog.GetLogger("vvm.embed")

// Output names one output register and how many of its components
// become columns.
type Output struct {
	Name       string
	Components int
}

// Options configures execution behavior for Run.
type Options struct {
	// Inputs lists, per input register, the columns packed into it.
	Inputs [][]string

	// Outputs describes the columns produced from each output register.
	// Nil means one single-component column per program output.
	Outputs []Output

	// Lanes limits execution to the first n rows. Zero means every row.
	Lanes int

	// Workers sets how many chunks run at once. Zero or one runs serially.
	Workers int

	// Strict rejects unwired operand descriptors instead of skipping them.
	Strict bool

	// Seed makes the random opcode reproducible when Seeded is true.
	Seed   uint64
	Seeded bool

	// Timeout sets maximum execution time. Zero means no timeout.
	Timeout time.Duration

	// Context for cancellation. If nil, context.Background() is used.
	Context context.Context
}

// Option is a functional option for configuring execution.
type Option func(*Options)

// WithInputs sets the column bindings of the input registers.
func WithInputs(columns [][]string) Option {
	return func(o *Options) {
		o.Inputs = columns
	}
}

// WithOutputs sets how output registers become columns.
func WithOutputs(outs []Output) Option {
	return func(o *Options) {
		o.Outputs = outs
	}
}

// WithLanes limits execution to the first n rows.
func WithLanes(n int) Option {
	return func(o *Options) {
		o.Lanes = n
	}
}

// WithWorkers sets the number of chunks run concurrently.
func WithWorkers(n int) Option {
	return func(o *Options) {
		o.Workers = n
	}
}

// WithStrict enables strict descriptor handling.
func WithStrict() Option {
	return func(o *Options) {
		o.Strict = true
	}
}

// WithSeed seeds the random opcode.
func WithSeed(seed uint64) Option {
	return func(o *Options) {
		o.Seed = seed
		o.Seeded = true
	}
}

// WithTimeout sets execution timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithContext sets the context for cancellation.
func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		o.Context = ctx
	}
}

// Run executes program over the rows of frame and returns a new DataFrame
// holding the output columns. A program with no outputs returns a nil frame.
func Run(program *vm.Program, frame *dataframe.DataFrame, opts ...Option) (*dataframe.DataFrame, error) {
	options := &Options{
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(options)
	}

	if program == nil {
		return nil, fmt.Errorf("%w: nil program", vm.ErrMalformedProgram)
	}
	if len(options.Inputs) < program.Inputs {
		return nil, fmt.Errorf("%w: program reads %d, got %d bindings", ErrInputCount, program.Inputs, len(options.Inputs))
	}
	outs := options.Outputs
	if outs == nil {
		outs = defaultOutputs(program.Outputs)
	}
	if len(outs) < program.Outputs {
		return nil, fmt.Errorf("%w: program writes %d, got %d outputs", ErrOutputCount, program.Outputs, len(outs))
	}

	numLanes := lanes.Rows(frame)
	if options.Lanes > 0 {
		if options.Lanes > numLanes {
			return nil, fmt.Errorf("%w: %d > %d", ErrLaneCount, options.Lanes, numLanes)
		}
		numLanes = options.Lanes
	}

	inputs := make([][]vm.Vector, len(options.Inputs))
	for i, cols := range options.Inputs {
		in, err := lanes.Gather(frame, cols)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		inputs[i] = in[:numLanes]
	}
	outputs := make([][]vm.Vector, len(outs))
	for i := range outputs {
		outputs[i] = make([]vm.Vector, numLanes)
	}

	machine := vm.NewVM(vmOptions(options)...)

	// Setup timeout context
	ctx := options.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	log.Debugf("running %d bytes over %d lanes with %d workers", len(program.Code), numLanes, options.Workers)
	if err := machine.ExecParallel(ctx, options.Workers, program.Code, inputs, outputs, program.Constants, numLanes); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, err
	}

	var series []dataframe.Series
	for i, out := range outs {
		s, err := lanes.Scatter(out.Name, outputs[i], out.Components)
		if err != nil {
			return nil, fmt.Errorf("output %s: %w", out.Name, err)
		}
		series = append(series, s...)
	}
	if len(series) == 0 {
		return nil, nil
	}
	return lanes.NewFrame(series...), nil
}

// RunSource assembles source and runs it over frame.
func RunSource(source string, frame *dataframe.DataFrame, opts ...Option) (*dataframe.DataFrame, error) {
	program, err := asm.Assemble(source)
	if err != nil {
		return nil, err
	}
	return Run(program, frame, opts...)
}

// LoadProgram reads a program file. Assembly sources (.vasm) are assembled;
// anything else is decoded as bytecode.
func LoadProgram(path string) (*vm.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".vasm") {
		program, err := asm.Assemble(string(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return program, nil
	}
	program, err := vm.DeserializeProgram(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return program, nil
}

// RunFile loads the program at path and runs it over frame.
func RunFile(path string, frame *dataframe.DataFrame, opts ...Option) (*dataframe.DataFrame, error) {
	program, err := LoadProgram(path)
	if err != nil {
		return nil, err
	}
	return Run(program, frame, opts...)
}

func vmOptions(o *Options) []vm.Option {
	var opts []vm.Option
	if o.Strict {
		opts = append(opts, vm.WithDescriptorPolicy(vm.DescriptorStrict))
	}
	if o.Seeded {
		opts = append(opts, vm.WithSeed(o.Seed))
	}
	return opts
}

func defaultOutputs(n int) []Output {
	outs := make([]Output, n)
	for i := range outs {
		outs[i] = Output{Name: "out" + strconv.Itoa(i), Components: 1}
	}
	return outs
}
