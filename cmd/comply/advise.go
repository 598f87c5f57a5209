package main

import (
	"io"

	"github.com/spf13/cobra"
)

func newAdviseCmd() *cobra.Command {
	var flags recordFlags

	cmd := &cobra.Command{
		Use:   "advise",
		Short: "Suggest remediations for the latest record's issues",
		Long:  "Loads the latest record for --source and --type and asks the configured LLM for one remediation per issue.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				result, err := d.AdviseHandler.Handle(ctx, flags.source, flags.typ)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), result, func(w io.Writer) {
					formatRemediations(w, result)
				})
			})
		},
	}
	flags.register(cmd)

	return cmd
}
