package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ersonp/comply-core/internal/application/handlers"
)

type listFlags struct {
	source string
	typ    string
	since  string
	until  string
	limit  int
}

// recordFlags selects one record stream by source and type.
type recordFlags struct {
	source string
	typ    string
}

func (f *recordFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.source, "source", "s", "", "Evidence source (github, google, aws, manual)")
	cmd.Flags().StringVarP(&f.typ, "type", "t", "", "Evidence type")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("type")
}

func newEvidenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "evidence",
		Aliases: []string{"ev"},
		Short:   "Query and maintain the evidence ledger",
	}

	cmd.AddCommand(
		newEvidenceListCmd(),
		newEvidenceLatestCmd(),
		newEvidenceDiffCmd(),
		newEvidenceHistoryCmd(),
		newEvidenceSummaryCmd(),
		newEvidencePruneCmd(),
		newImportCmd(),
		newAdviseCmd(),
	)

	return cmd
}

func newEvidenceListCmd() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List evidence records",
		Long:  "Lists evidence records, most recent first, with optional filtering.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEvidenceList(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.source, "source", "s", "", "Filter by source")
	cmd.Flags().StringVarP(&flags.typ, "type", "t", "", "Filter by type")
	cmd.Flags().StringVar(&flags.since, "since", "", "Only records at or after this time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.until, "until", "", "Only records at or before this time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().IntVarP(&flags.limit, "limit", "l", DefaultListLimit, "Maximum number of records to display")

	return cmd
}

func runEvidenceList(cmd *cobra.Command, flags listFlags) error {
	since, err := parseTime(flags.since)
	if err != nil {
		return fmt.Errorf("invalid --since: %w", err)
	}
	until, err := parseTime(flags.until)
	if err != nil {
		return fmt.Errorf("invalid --until: %w", err)
	}

	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		result, err := d.EvidenceHandler.HandleList(ctx, handlers.ListOptions{
			Source: flags.source,
			Type:   flags.typ,
			Since:  since,
			Until:  until,
			Limit:  flags.limit,
		})
		if err != nil {
			return fmt.Errorf("listing evidence: %w", err)
		}
		return render(cmd.OutOrStdout(), result, func(w io.Writer) {
			formatRecordList(w, result.Records)
		})
	})
}

func newEvidenceLatestCmd() *cobra.Command {
	var flags recordFlags

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Show the most recent record for a source and type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				rec, err := d.EvidenceHandler.HandleLatest(ctx, flags.source, flags.typ)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), rec, func(w io.Writer) {
					formatRecord(w, rec)
				})
			})
		},
	}
	flags.register(cmd)

	return cmd
}

func newEvidenceDiffCmd() *cobra.Command {
	var flags recordFlags

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare the latest record with the one before it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				result, err := d.EvidenceHandler.HandleDiff(ctx, flags.source, flags.typ)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), result, func(w io.Writer) {
					fmt.Fprintf(w, "%s -> %s\n",
						result.Previous.Timestamp.Format(time.RFC3339),
						result.Latest.Timestamp.Format(time.RFC3339))
					formatDiff(w, result.Diff)
				})
			})
		},
	}
	flags.register(cmd)

	return cmd
}

func newEvidenceHistoryCmd() *cobra.Command {
	var (
		flags recordFlags
		days  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the records of the last N days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				result, err := d.EvidenceHandler.HandleHistory(ctx, flags.source, flags.typ, days)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), result, func(w io.Writer) {
					formatRecordList(w, result.Records)
				})
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVarP(&days, "days", "d", DefaultHistoryDays, "Window size in days")

	return cmd
}

func newEvidenceSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show the latest status of every source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				summary, err := d.EvidenceHandler.HandleSummary(ctx)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), summary, func(w io.Writer) {
					formatSummary(w, summary)
				})
			})
		},
	}
}

func newEvidencePruneCmd() *cobra.Command {
	var (
		days    int
		archive bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove records older than the retention window",
		Long:  "Removes records older than --days (default: ledger.retention_days). With --archive, records are copied to the archive bucket first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withOptions(ctx, depsOptions{archive: archive}, func(d *Deps) error {
				retention := d.Config.Ledger.RetentionDays
				if cmd.Flags().Changed("days") {
					retention = days
				}

				removed, err := d.EvidenceHandler.HandlePrune(ctx, retention)
				if err != nil {
					return err
				}

				result := map[string]int{"removed": removed, "older_than_days": retention}
				return render(cmd.OutOrStdout(), result, func(w io.Writer) {
					fmt.Fprintf(w, "Pruned %d records older than %d days\n", removed, retention)
				})
			})
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 0, "Retention window in days")
	cmd.Flags().BoolVar(&archive, "archive", false, "Archive records before removing them")

	return cmd
}

// parseTime accepts RFC3339 or a bare date. Empty means unset.
func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q (want RFC3339 or YYYY-MM-DD)", value)
}
