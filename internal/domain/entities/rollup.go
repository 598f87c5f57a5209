package entities

import "time"

// SourceStatus is one source's line in the cross-source summary.
type SourceStatus struct {
	Name       Source     `json:"name"`
	LastCheck  *time.Time `json:"last_check,omitempty"`
	Status     Status     `json:"status"`
	IssueCount int        `json:"issue_count"`
}

// RollupSummary is the cross-source compliance overview.
type RollupSummary struct {
	Sources       []SourceStatus `json:"sources"`
	TotalIssues   int            `json:"total_issues"`
	OverallStatus Status         `json:"overall_status"`
}

// OverallStatus reduces per-source statuses to one verdict:
// any fail gives fail, or partial when some source passes;
// otherwise any pass gives pass; otherwise unknown.
// Partial sources on their own do not move the verdict.
func OverallStatus(statuses []Status) Status {
	var anyFail, anyPass bool
	for _, s := range statuses {
		switch s {
		case StatusFail:
			anyFail = true
		case StatusPass:
			anyPass = true
		}
	}

	switch {
	case anyFail && anyPass:
		return StatusPartial
	case anyFail:
		return StatusFail
	case anyPass:
		return StatusPass
	default:
		return StatusUnknown
	}
}
