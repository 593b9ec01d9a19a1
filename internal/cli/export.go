package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/qecware/stitch/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Store    string // sqlite store path
	SpecHash string // optional spec hash; latest compilation when empty
	Output   string // artifact document output path; stdout when empty
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Export a recorded compilation as a canonical artifact document",
		Long: `Read a compilation from the store by program name and write its artifact
document. Without --spec-hash the most recently recorded compilation of
that name is exported.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Store, "store", "", "sqlite store path (required)")
	cmd.Flags().StringVar(&opts.SpecHash, "spec-hash", "", "spec hash of the compilation to export")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "artifact document output path (default stdout)")
	_ = cmd.MarkFlagRequired("store")

	return cmd
}

func runExport(ctx context.Context, opts *ExportOptions, name string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	comp, err := readCompilation(ctx, opts, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("no compilation named %q", name), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("no compilation named %q", name))
		}
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "reading compilation", err)
	}

	formatter.VerboseLog("Exporting %s (spec hash %s)", comp.Name, comp.SpecHash)

	if opts.Output != "" {
		if err := writeArtifactFile(comp, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "writing artifact document", err)
		}
		if formatter.Format == "json" {
			return formatter.Success(map[string]string{
				"name":      comp.Name,
				"spec_hash": comp.SpecHash,
				"output":    opts.Output,
			})
		}
		fmt.Fprintf(formatter.Writer, "Wrote artifact document to %s\n", opts.Output)
		return nil
	}

	// Artifact documents are already canonical JSON, so they go to stdout
	// verbatim in either format.
	doc, err := artifactDocument(comp)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "building artifact document", err)
	}
	fmt.Fprintln(formatter.Writer, string(doc))
	return nil
}

func readCompilation(ctx context.Context, opts *ExportOptions, name string) (*store.Compilation, error) {
	st, err := store.Open(opts.Store)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("closing store", "error", closeErr)
		}
	}()

	if opts.SpecHash != "" {
		return st.ReadCompilation(ctx, name, opts.SpecHash)
	}
	return st.ReadLatest(ctx, name)
}
