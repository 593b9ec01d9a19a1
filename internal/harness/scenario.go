package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/qecware/stitch/internal/eka"
	"github.com/qecware/stitch/internal/interp"
	"github.com/qecware/stitch/internal/program"
	"github.com/qecware/stitch/internal/repcode"
)

// Scenario defines one conformance run: a program source and the
// expectations over its compilation result.
type Scenario struct {
	// Name uniquely identifies the scenario; it also names the golden
	// file when the scenario is run with golden comparison.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Program is an inline CUE program source.
	Program string `yaml:"program,omitempty"`

	// ProgramFile is a CUE source path relative to the scenario file.
	// Exactly one of Program and ProgramFile must be set.
	ProgramFile string `yaml:"program_file,omitempty"`

	// Expect lists the assertions over the compilation result.
	Expect Expectations `yaml:"expect"`

	// dir is the scenario file's directory, for resolving ProgramFile.
	dir string
}

// Expectations are subset assertions: only the fields present in the
// scenario file are checked.
type Expectations struct {
	// Syndromes is the expected total syndrome count, virtual seeds
	// included.
	Syndromes *int `yaml:"syndromes,omitempty"`

	// Detectors is the expected detector count.
	Detectors *int `yaml:"detectors,omitempty"`

	// Observables is the expected logical observable count.
	Observables *int `yaml:"observables,omitempty"`

	// Blocks lists the block labels expected to be alive after the
	// final operation group.
	Blocks []string `yaml:"blocks,omitempty"`

	// CircuitTicks is the expected tick count of the sealed circuit.
	CircuitTicks *int `yaml:"circuit_ticks,omitempty"`
}

// Result is the outcome of one scenario run.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool

	// Errors lists expectation violations. Empty when Pass is true.
	Errors []string

	// Program is the compiled program the scenario ran.
	Program *eka.Program

	// Step is the final interpretation state, for further inspection.
	Step *interp.Step
}

// AddError records an expectation violation and fails the result.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	scenario.dir = filepath.Dir(path)

	if err := scenario.validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &scenario, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if (s.Program == "") == (s.ProgramFile == "") {
		return fmt.Errorf("exactly one of program and program_file is required")
	}
	return nil
}

// Run compiles and interprets the scenario's program, then checks every
// expectation. A failed expectation fails the Result, not the run; the
// error return is reserved for compilation and interpretation failures.
func Run(s *Scenario) (*Result, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	var (
		prog *eka.Program
		err  error
	)
	if s.ProgramFile != "" {
		prog, err = program.CompileFile(filepath.Join(s.dir, s.ProgramFile))
	} else {
		prog, err = program.Compile(s.Program)
	}
	if err != nil {
		return nil, fmt.Errorf("compile program: %w", err)
	}

	registry, err := repcode.NewRegistry()
	if err != nil {
		return nil, err
	}

	step, err := interp.Interpret(prog, registry)
	if err != nil {
		return nil, fmt.Errorf("interpret program: %w", err)
	}

	result := &Result{Pass: true, Program: prog, Step: step}
	checkExpectations(result, s.Expect)
	return result, nil
}
