package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qecware/stitch/internal/program"
)

// ValidateSummary holds the shape of a validated program.
type ValidateSummary struct {
	Name       string `json:"name"`
	Blocks     int    `json:"blocks"`
	Groups     int    `json:"groups"`
	Operations int    `json:"operations"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <program.cue>",
		Short: "Validate a surgery program without interpreting it",
		Long: `Parse a CUE surgery program and run all static checks: block parameters,
operation parameters and structural invariants. No circuits are built.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, programPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	prog, err := program.CompileFile(programPath)
	if err != nil {
		return outputCommandError(formatter, err)
	}

	summary := ValidateSummary{
		Name:   prog.Name,
		Blocks: len(prog.Blocks),
		Groups: len(prog.Operations),
	}
	for _, group := range prog.Operations {
		summary.Operations += len(group)
	}

	if formatter.Format == "json" {
		return formatter.Success(summary)
	}

	fmt.Fprintf(formatter.Writer, "✓ Valid program %s: %d block(s), %d group(s), %d operation(s)\n",
		summary.Name, summary.Blocks, summary.Groups, summary.Operations)
	return nil
}
