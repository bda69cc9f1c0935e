// Package main provides the CLI entry point for vvm, the vector virtual machine.
//
// Usage:
//
//	vvm asm particles.vasm              # Assemble to bytecode (.vvbc)
//	vvm disasm particles.vvbc           # Disassemble bytecode
//	vvm exec particles.vvbc -lanes 16   # Run over a synthetic ramp
//	vvm run job.toml                    # Run a job over a table
//	vvm ops                             # Print the opcode table
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/akhildatla/vvm/internal/config"
	"github.com/akhildatla/vvm/pkg/asm"
	"github.com/akhildatla/vvm/pkg/embed"
	"github.com/akhildatla/vvm/pkg/lanes"
	"github.com/akhildatla/vvm/pkg/vm"
)

// Version info set by GoReleaser via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var log = commonlog.GetLogger("vvm.cli")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		return printUsage(stdout)
	}

	cmd := args[0]

	switch cmd {
	case "asm":
		return asmCommand(args[1:], stdout)
	case "disasm":
		return disasmCommand(args[1:], stdout)
	case "exec":
		return execCommand(args[1:], stdout)
	case "run":
		return runCommand(args[1:], stdout)
	case "ops":
		return opsCommand(stdout)
	case "version":
		fmt.Fprintf(stdout, "vvm version %s\n", version)
		if commit != "none" {
			fmt.Fprintf(stdout, "  commit: %s\n", commit)
		}
		if date != "unknown" {
			fmt.Fprintf(stdout, "  built:  %s\n", date)
		}
		return nil
	case "help", "-h", "--help":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// parseArgs parses fs allowing flags before and after positional arguments.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return positional, nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

func newFlagSet(name string, verbose *int) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.IntVar(verbose, "v", 0, "log verbosity (0 quiet, 1 info, 2 debug)")
	return fs
}

func configureLogging(verbose int) {
	if verbose > 0 {
		commonlog.Configure(verbose, nil)
	}
}

func asmCommand(args []string, stdout io.Writer) error {
	var verbose int
	fs := newFlagSet("asm", &verbose)
	output := fs.String("o", "", "output file (default: input with .vvbc extension)")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) < 1 {
		return fmt.Errorf("usage: vvm asm <file.vasm> [-o output.vvbc]")
	}
	configureLogging(verbose)

	inputPath := positional[0]
	outputPath := *output
	if outputPath == "" {
		ext := filepath.Ext(inputPath)
		outputPath = strings.TrimSuffix(inputPath, ext) + ".vvbc"
	}

	source, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}

	program, err := asm.Assemble(string(source))
	if err != nil {
		return fmt.Errorf("assembling: %w", err)
	}

	bytecode, err := vm.SerializeProgram(program)
	if err != nil {
		return fmt.Errorf("serializing: %w", err)
	}

	if err := os.WriteFile(outputPath, bytecode, 0644); err != nil {
		return fmt.Errorf("writing bytecode: %w", err)
	}

	fmt.Fprintf(stdout, "Assembled: %s (%d bytes of code, %d constants)\n", outputPath, len(program.Code), len(program.Constants))
	return nil
}

func disasmCommand(args []string, stdout io.Writer) error {
	var verbose int
	fs := newFlagSet("disasm", &verbose)
	output := fs.String("o", "", "output file (default: stdout)")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) < 1 {
		return fmt.Errorf("usage: vvm disasm <file.vvbc> [-o output.vasm]")
	}
	configureLogging(verbose)

	bytecode, err := os.ReadFile(positional[0])
	if err != nil {
		return fmt.Errorf("reading bytecode: %w", err)
	}

	program, err := vm.DeserializeProgram(bytecode)
	if err != nil {
		return fmt.Errorf("deserializing: %w", err)
	}

	source := vm.Disassemble(program)

	if *output != "" {
		if err := os.WriteFile(*output, []byte(source), 0644); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		fmt.Fprintf(stdout, "Disassembled to: %s\n", *output)
	} else {
		fmt.Fprint(stdout, source)
	}

	return nil
}

func execCommand(args []string, stdout io.Writer) error {
	var verbose int
	fs := newFlagSet("exec", &verbose)
	numLanes := fs.Int("lanes", 8, "number of lanes")
	workers := fs.Int("workers", 1, "chunks run concurrently")
	strict := fs.Bool("strict", false, "reject unwired operand descriptors")
	seed := fs.Uint64("seed", 0, "seed for the random opcode (0 leaves it unseeded)")
	stats := fs.Bool("stats", false, "print execution statistics")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) < 1 {
		return fmt.Errorf("usage: vvm exec <file.vvbc> [-lanes N]")
	}
	if *numLanes < 0 {
		return fmt.Errorf("%w: %d", vm.ErrInvalidLaneCount, *numLanes)
	}
	configureLogging(verbose)

	program, err := embed.LoadProgram(positional[0])
	if err != nil {
		return err
	}

	// Input n of lane i holds (i, i, i, i).
	ramp := make([]vm.Vector, *numLanes)
	for i := range ramp {
		ramp[i] = vm.Splat(float32(i))
	}
	inputs := make([][]vm.Vector, program.Inputs)
	for i := range inputs {
		inputs[i] = ramp
	}
	outputs := make([][]vm.Vector, program.Outputs)
	for i := range outputs {
		outputs[i] = make([]vm.Vector, *numLanes)
	}

	var opts []vm.Option
	if *strict {
		opts = append(opts, vm.WithDescriptorPolicy(vm.DescriptorStrict))
	}
	if *seed != 0 {
		opts = append(opts, vm.WithSeed(*seed))
	}
	if *stats {
		opts = append(opts, vm.WithStats())
	}
	machine := vm.NewVM(opts...)

	if err := machine.ExecParallel(context.Background(), *workers, program.Code, inputs, outputs, program.Constants, *numLanes); err != nil {
		return fmt.Errorf("executing: %w", err)
	}

	if len(outputs) > 0 {
		for i, v := range outputs[0] {
			fmt.Fprintf(stdout, "%d: %s\n", i, v)
		}
	}

	if s := machine.Stats(); s != nil {
		fmt.Fprintf(stdout, "chunks: %d, instructions: %d, lanes: %d, time: %dns\n",
			s.Chunks, s.Instructions, s.LanesProcessed, s.ExecutionTimeNs)
	}
	return nil
}

func runCommand(args []string, stdout io.Writer) error {
	var verbose int
	fs := newFlagSet("run", &verbose)

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) < 1 {
		return fmt.Errorf("usage: vvm run <job.toml>")
	}
	configureLogging(verbose)

	job, err := config.Load(positional[0])
	if err != nil {
		return err
	}

	program, err := embed.LoadProgram(job.Program)
	if err != nil {
		return err
	}

	frame, err := lanes.Load(job.Input)
	if err != nil {
		return err
	}
	log.Infof("loaded %d rows from %s", lanes.Rows(frame), job.Input)

	timeout, err := job.TimeoutDuration()
	if err != nil {
		return err
	}

	opts := []embed.Option{
		embed.WithInputs(job.InputColumns()),
		embed.WithLanes(job.Lanes),
		embed.WithWorkers(job.Workers),
		embed.WithTimeout(timeout),
	}
	if job.Outputs != nil {
		outs := make([]embed.Output, len(job.Outputs))
		for i, out := range job.Outputs {
			outs[i] = embed.Output{Name: out.Name, Components: out.Components}
		}
		opts = append(opts, embed.WithOutputs(outs))
	}
	if job.Strict {
		opts = append(opts, embed.WithStrict())
	}
	if job.Seed != 0 {
		opts = append(opts, embed.WithSeed(job.Seed))
	}

	result, err := embed.Run(program, frame, opts...)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}

	if job.Output == "" {
		return lanes.WriteCSV(context.Background(), stdout, result)
	}

	f, err := os.Create(job.Output)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := lanes.WriteCSV(context.Background(), f, result); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %d rows to %s\n", lanes.Rows(result), job.Output)
	return nil
}

func opsCommand(stdout io.Writer) error {
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tOPCODE\tNAME\tOPERANDS\tFLAGS")
	for i, info := range vm.OpInfos() {
		operands := make([]string, len(info.Operands))
		for k, kind := range info.Operands {
			operands[k] = kind.String()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i, info.Op, info.Name, strings.Join(operands, ","), info.Flags)
	}
	return w.Flush()
}

func printUsage(stdout io.Writer) error {
	fmt.Fprintln(stdout, `vvm - vector virtual machine for batched per-lane arithmetic

Usage:
  vvm <command> [arguments]

Commands:
  asm <file.vasm>       Assemble source to bytecode (.vvbc)
  disasm <file.vvbc>    Disassemble bytecode to source
  exec <file.vvbc>      Run a program over a synthetic ramp input
  run <job.toml>        Run a program over a CSV, JSON or Parquet table
  ops                   Print the opcode metadata table
  version               Print version information
  help                  Show this help message

Common Options:
  -v <n>                Log verbosity (0 quiet, 1 info, 2 debug)

Asm Options:
  -o <file>             Output file (default: input with .vvbc extension)

Disasm Options:
  -o <file>             Output file (default: stdout)

Exec Options:
  -lanes <n>            Number of lanes (default 8)
  -workers <n>          Chunks run concurrently (default 1)
  -strict               Reject unwired operand descriptors
  -seed <n>             Seed for the random opcode
  -stats                Print execution statistics

Examples:
  vvm asm particles.vasm -o particles.vvbc
  vvm exec particles.vvbc -lanes 300 -workers 4
  vvm disasm particles.vvbc
  vvm run job.toml`)
	return nil
}
