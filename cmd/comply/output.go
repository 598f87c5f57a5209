package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/ersonp/comply-core/internal/application/handlers"
	"github.com/ersonp/comply-core/internal/domain/entities"
	"github.com/ersonp/comply-core/internal/domain/services"
)

var (
	passColor    = color.New(color.FgGreen, color.Bold)
	partialColor = color.New(color.FgYellow, color.Bold)
	failColor    = color.New(color.FgRed, color.Bold)
	unknownColor = color.New(color.FgHiBlack)
)

// statusLabel renders a status in upper case, coloured when the terminal supports it.
func statusLabel(status entities.Status) string {
	label := strings.ToUpper(string(status))
	switch status {
	case entities.StatusPass:
		return passColor.Sprint(label)
	case entities.StatusPartial:
		return partialColor.Sprint(label)
	case entities.StatusFail:
		return failColor.Sprint(label)
	default:
		return unknownColor.Sprint(label)
	}
}

func formatScore(score *int) string {
	if score == nil {
		return "-"
	}
	return fmt.Sprintf("%d/100", *score)
}

func formatJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func formatRecord(w io.Writer, rec *entities.EvidenceRecord) {
	fmt.Fprintf(w, "%s  %s %s\n", statusLabel(rec.Summary.Status), rec.Source, rec.Type)
	fmt.Fprintf(w, "  ID:        %s\n", rec.ID)
	fmt.Fprintf(w, "  Timestamp: %s\n", rec.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(w, "  Score:     %s\n", formatScore(rec.Summary.Score))
	if len(rec.Summary.Issues) == 0 {
		fmt.Fprintln(w, "  No issues")
		return
	}
	fmt.Fprintf(w, "  Issues (%d):\n", len(rec.Summary.Issues))
	for _, issue := range rec.Summary.Issues {
		fmt.Fprintf(w, "    - %s\n", issue)
	}
}

func formatRecordList(w io.Writer, records []entities.EvidenceRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No evidence found.")
		return
	}

	fmt.Fprintf(w, "Showing %d records:\n\n", len(records))
	for i := range records {
		rec := &records[i]
		fmt.Fprintf(w, "%s  %-8s %-7s %-40s %s  %d issues\n",
			rec.Timestamp.Format(time.RFC3339),
			statusLabel(rec.Summary.Status),
			rec.Source,
			rec.Type,
			formatScore(rec.Summary.Score),
			len(rec.Summary.Issues),
		)
	}
}

func formatDiff(w io.Writer, d entities.EvidenceDiff) {
	if d.ScoreChange != nil {
		fmt.Fprintf(w, "Score change: %+d\n", *d.ScoreChange)
	}
	if d.StatusChanged {
		fmt.Fprintln(w, "Status changed")
	}
	for _, issue := range d.NewIssues {
		fmt.Fprintf(w, "  %s %s\n", failColor.Sprint("+"), issue)
	}
	for _, issue := range d.ResolvedIssues {
		fmt.Fprintf(w, "  %s %s\n", passColor.Sprint("-"), issue)
	}
	if !d.StatusChanged && d.ScoreChange == nil && len(d.NewIssues) == 0 && len(d.ResolvedIssues) == 0 {
		fmt.Fprintln(w, "No changes")
	}
}

func formatCheckResult(w io.Writer, res *services.CheckResult) {
	formatRecord(w, res.Record)
	if res.Diff != nil {
		fmt.Fprintf(w, "\nSince %s:\n", res.Previous.Timestamp.Format(time.RFC3339))
		formatDiff(w, *res.Diff)
	}
}

func formatRollup(w io.Writer, res *services.RollupResult) {
	formatCheckResult(w, &res.CheckResult)

	fmt.Fprintf(w, "\nRepositories analyzed: %d\n", res.Rollup.Analyzed)
	for _, entity := range res.Rollup.Repositories {
		fmt.Fprintf(w, "  %-8s %-40s %3d  %d issues\n",
			statusLabel(entity.Status), entity.Repository, entity.Score, entity.IssueCount)
	}
	if len(res.Rollup.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped (%d):\n", len(res.Rollup.Skipped))
		for _, skipped := range res.Rollup.Skipped {
			fmt.Fprintf(w, "  %s: %s\n", skipped.Repository, skipped.Error)
		}
	}
}

func formatSummary(w io.Writer, summary *entities.RollupSummary) {
	fmt.Fprintf(w, "Overall: %s  (%d issues)\n\n", statusLabel(summary.OverallStatus), summary.TotalIssues)
	for _, source := range summary.Sources {
		lastCheck := "never"
		if source.LastCheck != nil {
			lastCheck = source.LastCheck.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "  %-7s %-8s %3d issues  last check: %s\n",
			source.Name, statusLabel(source.Status), source.IssueCount, lastCheck)
	}
}

func formatRemediations(w io.Writer, result *handlers.AdviseResult) {
	if len(result.Remediations) == 0 {
		fmt.Fprintln(w, "No remediations suggested.")
		return
	}
	for _, r := range result.Remediations {
		fmt.Fprintf(w, "[%s] %s\n", strings.ToUpper(r.Priority), r.Issue)
		fmt.Fprintf(w, "  %s\n", r.Action)
	}
}

func formatRuns(w io.Writer, runs []entities.CheckRun) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No check runs recorded.")
		return
	}
	for _, run := range runs {
		outcome := passColor.Sprint(string(run.Outcome))
		detail := run.RecordID
		if run.Outcome == entities.OutcomeFailed {
			outcome = failColor.Sprint(string(run.Outcome))
			detail = run.Stage + ": " + run.Error
		}
		fmt.Fprintf(w, "%s  %-9s %-7s %-30s %6dms  %s\n",
			run.StartedAt.Format(time.RFC3339), outcome, run.Source, run.Entity, run.DurationMs, detail)
	}
}

// render prints v as JSON when --json is set, otherwise calls text.
func render(w io.Writer, v any, text func(io.Writer)) error {
	if globalJSON {
		return formatJSON(w, v)
	}
	text(w)
	return nil
}
