// Package config handles vvm job files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Error definitions
var (
	ErrNoProgram     = errors.New("job has no program")
	ErrNoInput       = errors.New("job has no input")
	ErrBadComponents = errors.New("component count must be 1 to 4")
	ErrBadValue      = errors.New("invalid job value")
)

// Job describes one batch execution: which program to run over which table,
// how table columns bind to input registers and how output registers become
// columns again.
type Job struct {
	Program string   `toml:"program"`
	Input   string   `toml:"input"`
	Output  string   `toml:"output"` // CSV path; empty writes to stdout
	Lanes   int      `toml:"lanes"`  // 0 runs every row
	Workers int      `toml:"workers"`
	Strict  bool     `toml:"strict"`
	Seed    uint64   `toml:"seed"` // 0 leaves random unseeded
	Timeout string   `toml:"timeout"`
	Inputs  []Input  `toml:"inputs"`
	Outputs []Output `toml:"outputs"`

	// Dir is the directory containing the job file (set at load time).
	Dir string `toml:"-"`
}

// Input binds table columns to one input register, in order.
type Input struct {
	Columns []string `toml:"columns"`
}

// Output names one output register and how many components to keep.
type Output struct {
	Name       string `toml:"name"`
	Components int    `toml:"components"`
}

// Load parses a job file. Relative paths inside it are resolved against the
// file's directory.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	job, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	job.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	job.Program = job.resolve(job.Program)
	job.Input = job.resolve(job.Input)
	if job.Output != "" {
		job.Output = job.resolve(job.Output)
	}

	return job, nil
}

// Parse decodes and validates job file contents, applying defaults.
func Parse(data []byte) (*Job, error) {
	var job Job
	if err := toml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	// Defaults
	if job.Workers == 0 {
		job.Workers = 1
	}
	for i := range job.Outputs {
		if job.Outputs[i].Components == 0 {
			job.Outputs[i].Components = 1
		}
		if job.Outputs[i].Name == "" {
			job.Outputs[i].Name = "out" + strconv.Itoa(i)
		}
	}

	if err := job.validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

func (j *Job) validate() error {
	if j.Program == "" {
		return ErrNoProgram
	}
	if j.Input == "" {
		return ErrNoInput
	}
	if j.Lanes < 0 {
		return fmt.Errorf("%w: lanes = %d", ErrBadValue, j.Lanes)
	}
	if j.Workers < 0 {
		return fmt.Errorf("%w: workers = %d", ErrBadValue, j.Workers)
	}
	if _, err := j.TimeoutDuration(); err != nil {
		return err
	}
	for i, in := range j.Inputs {
		if n := len(in.Columns); n < 1 || n > 4 {
			return fmt.Errorf("%w: inputs[%d] has %d columns", ErrBadComponents, i, n)
		}
	}
	for i, out := range j.Outputs {
		if out.Components < 1 || out.Components > 4 {
			return fmt.Errorf("%w: outputs[%d] (%s) has %d components", ErrBadComponents, i, out.Name, out.Components)
		}
	}
	return nil
}

// TimeoutDuration parses Timeout. An empty timeout is zero.
func (j *Job) TimeoutDuration() (time.Duration, error) {
	if j.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(j.Timeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: timeout = %q", ErrBadValue, j.Timeout)
	}
	return d, nil
}

// InputColumns returns the column bindings of every input register.
func (j *Job) InputColumns() [][]string {
	cols := make([][]string, len(j.Inputs))
	for i, in := range j.Inputs {
		cols[i] = in.Columns
	}
	return cols
}

func (j *Job) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(j.Dir, p)
}
