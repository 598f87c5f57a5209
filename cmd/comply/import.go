package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ersonp/comply-core/internal/application/handlers"
)

type importFlags struct {
	format string
	dryRun bool
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import manual evidence from JSON or CSV",
		Long:  "Imports manually collected evidence (policy reviews, vendor assessments, pentests) as source \"manual\".",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (json, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")

	return cmd
}

func runImport(cmd *cobra.Command, filePath string, flags importFlags) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		opts := handlers.ImportOptions{
			Format: flags.format,
			DryRun: flags.dryRun,
		}

		result, err := d.ImportHandler.Handle(ctx, filePath, opts)
		if err != nil {
			return fmt.Errorf("importing file: %w", err)
		}

		return render(cmd.OutOrStdout(), result, func(w io.Writer) {
			formatImportResult(w, result, flags.dryRun)
		})
	})
}

func formatImportResult(w io.Writer, result *handlers.ImportResult, dryRun bool) {
	// Display errors
	if len(result.Errors) > 0 {
		fmt.Fprintf(w, "Validation errors (%d):\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  %s\n", e.Error())
		}
		fmt.Fprintln(w)
	}

	// Display summary
	if dryRun {
		fmt.Fprintf(w, "Dry run: %d records would be imported", result.Imported)
	} else {
		fmt.Fprintf(w, "Imported: %d records", result.Imported)
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(w, ", %d errors", len(result.Errors))
	}

	fmt.Fprintln(w)
}
