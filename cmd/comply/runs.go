package main

import (
	"io"

	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	var (
		failed bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent check runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				runs, err := d.RunsHandler.Handle(ctx, failed, limit)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), runs, func(w io.Writer) {
					formatRuns(w, runs)
				})
			})
		},
	}

	cmd.Flags().BoolVar(&failed, "failed", false, "Only show failed runs")
	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultRunsLimit, "Maximum number of runs to display")

	return cmd
}
