package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/ersonp/comply-core/internal/application/handlers"
)

type orgFlags struct {
	limit           int
	includeArchived bool
	match           string
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run compliance checks",
		Long:  "Aggregates provider state, scores it and records the result in the evidence ledger.",
	}

	cmd.AddCommand(
		newCheckRepoCmd(),
		newCheckOrgCmd(),
		newCheckWorkspaceCmd(),
	)

	return cmd
}

func newCheckRepoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repo <owner/name>",
		Short: "Check one repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				result, err := d.CheckHandler.HandleRepository(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), result, func(w io.Writer) {
					formatCheckResult(w, result)
				})
			})
		},
	}
}

func newCheckOrgCmd() *cobra.Command {
	var flags orgFlags

	cmd := &cobra.Command{
		Use:   "org [organization]",
		Short: "Check the repositories of an organization and record a rollup",
		Long:  "Checks up to --limit repositories and records one organization summary. Defaults to github.organization from config.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckOrg(cmd, args, flags)
		},
	}

	cmd.Flags().IntVarP(&flags.limit, "limit", "l", 0, "Maximum repositories to check (default: rollup.max_repositories)")
	cmd.Flags().BoolVar(&flags.includeArchived, "include-archived", false, "Include archived repositories")
	cmd.Flags().StringVarP(&flags.match, "match", "m", "", "Only check repositories whose name contains this text")

	return cmd
}

func runCheckOrg(cmd *cobra.Command, args []string, flags orgFlags) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		org := d.Config.GitHub.Organization
		if len(args) == 1 {
			org = args[0]
		}

		opts := handlers.OrganizationOptions{
			Limit:           d.Config.Rollup.MaxRepositories,
			IncludeArchived: d.Config.Rollup.IncludeArchived || flags.includeArchived,
			Match:           flags.match,
		}
		if flags.limit > 0 {
			opts.Limit = flags.limit
		}

		result, err := d.CheckHandler.HandleOrganization(ctx, org, opts)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), result, func(w io.Writer) {
			formatRollup(w, result)
		})
	})
}

func newCheckWorkspaceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workspace",
		Short: "Check the identity workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				result, err := d.CheckHandler.HandleWorkspace(cmd.Context())
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), result, func(w io.Writer) {
					formatCheckResult(w, result)
				})
			})
		},
	}
}
