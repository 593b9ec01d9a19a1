package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/qecware/stitch/internal/codec"
	"github.com/qecware/stitch/internal/interp"
	"github.com/qecware/stitch/internal/program"
	"github.com/qecware/stitch/internal/repcode"
	"github.com/qecware/stitch/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // artifact document output path
	Store  string // sqlite store path
}

// CompileSummary holds summary statistics for a compilation.
type CompileSummary struct {
	Name        string `json:"name"`
	SpecHash    string `json:"spec_hash"`
	Blocks      int    `json:"blocks"`
	Groups      int    `json:"groups"`
	Syndromes   int    `json:"syndromes"`
	Detectors   int    `json:"detectors"`
	Observables int    `json:"observables"`
	Ticks       int    `json:"ticks"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <program.cue>",
		Short: "Compile a surgery program to circuits and decoding artifacts",
		Long: `Compile a CUE surgery program: parse and validate the source, run every
operation group through the driver, and emit the final circuit together
with the syndromes, detectors and logical observables it produced.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "artifact document output path")
	cmd.Flags().StringVar(&opts.Store, "store", "", "sqlite store path to record the compilation in")

	return cmd
}

func runCompile(ctx context.Context, opts *CompileOptions, programPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	comp, summary, err := compileProgram(programPath, opts.Verbose)
	if err != nil {
		return outputCommandError(formatter, err)
	}

	formatter.VerboseLog("Compiled %s: %d block(s), %d group(s)", summary.Name, summary.Blocks, summary.Groups)

	if opts.Store != "" {
		if err := recordCompilation(ctx, opts.Store, comp); err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "recording compilation", err)
		}
		formatter.VerboseLog("Recorded compilation in %s", opts.Store)
	}

	if opts.Output != "" {
		if err := writeArtifactFile(comp, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "writing artifact document", err)
		}
	}

	return outputCompileSuccess(formatter, summary, opts.Output)
}

// compileProgram compiles and interprets a program file, returning the
// compilation record and its summary.
func compileProgram(path string, verbose bool) (*store.Compilation, CompileSummary, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, CompileSummary{}, fmt.Errorf("read program source: %w", err)
	}
	specHash := codec.HashWithDomain(codec.DomainProgram, src)

	// CompileFile rereads the source so error positions carry the filename.
	prog, err := program.CompileFile(path)
	if err != nil {
		return nil, CompileSummary{}, err
	}

	registry, err := repcode.NewRegistry()
	if err != nil {
		return nil, CompileSummary{}, err
	}

	step, err := interp.Interpret(prog, registry,
		interp.WithDebug(verbose),
		interp.WithLogger(slog.Default()))
	if err != nil {
		return nil, CompileSummary{}, err
	}

	comp := &store.Compilation{
		Name:        prog.Name,
		SpecHash:    specHash,
		Circuit:     step.FinalCircuit,
		Syndromes:   step.Syndromes,
		Detectors:   step.Detectors,
		Observables: step.LogicalObservables(),
	}

	summary := CompileSummary{
		Name:        prog.Name,
		SpecHash:    specHash,
		Blocks:      len(prog.Blocks),
		Groups:      len(prog.Operations),
		Syndromes:   len(comp.Syndromes),
		Detectors:   len(comp.Detectors),
		Observables: len(comp.Observables),
	}
	if comp.Circuit != nil {
		summary.Ticks = len(comp.Circuit.Ticks)
	}

	return comp, summary, nil
}

// recordCompilation opens the store, writes the compilation, and closes it.
func recordCompilation(ctx context.Context, path string, comp *store.Compilation) error {
	st, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("closing store", "error", closeErr)
		}
	}()
	return st.WriteCompilation(ctx, comp)
}

// outputCompileSuccess outputs a successful compilation.
func outputCompileSuccess(formatter *OutputFormatter, summary CompileSummary, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(summary)
	}

	// Human-readable text output
	fmt.Fprintf(formatter.Writer, "✓ Compiled %s: %d block(s), %d group(s)\n",
		summary.Name, summary.Blocks, summary.Groups)
	fmt.Fprintf(formatter.Writer, "  syndromes: %d, detectors: %d, observables: %d, circuit ticks: %d\n",
		summary.Syndromes, summary.Detectors, summary.Observables, summary.Ticks)
	fmt.Fprintf(formatter.Writer, "  spec hash: %s\n", summary.SpecHash)

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote artifact document to %s\n", outputFile)
	}

	return nil
}

// outputCommandError reports a compile-pipeline error and converts it to a
// command-level exit error.
func outputCommandError(formatter *OutputFormatter, err error) error {
	code, message := parseCompileError(err)
	var compileErr *program.CompileError
	if formatter.Format != "json" && errors.As(err, &compileErr) && compileErr.Pos.IsValid() {
		fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
			compileErr.Pos.Filename(),
			compileErr.Pos.Line(),
			compileErr.Pos.Column())
	}
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
