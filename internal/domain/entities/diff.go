package entities

// EvidenceDiff describes how a newer record differs from an older one.
// It is derived on demand and never persisted.
type EvidenceDiff struct {
	StatusChanged  bool     `json:"status_changed"`
	NewIssues      []string `json:"new_issues"`
	ResolvedIssues []string `json:"resolved_issues"`
	ScoreChange    *int     `json:"score_change,omitempty"`
}

// Diff compares two records. Issues are treated as sets; the output keeps
// the order in which issues appear in their originating record.
func Diff(older, newer *EvidenceRecord) EvidenceDiff {
	d := EvidenceDiff{
		StatusChanged:  older.Summary.Status != newer.Summary.Status,
		NewIssues:      issueDifference(newer.Summary.Issues, older.Summary.Issues),
		ResolvedIssues: issueDifference(older.Summary.Issues, newer.Summary.Issues),
	}

	if older.Summary.Score != nil && newer.Summary.Score != nil {
		change := *newer.Summary.Score - *older.Summary.Score
		d.ScoreChange = &change
	}

	return d
}

// issueDifference returns the members of a that are not in b.
func issueDifference(a, b []string) []string {
	exclude := make(map[string]struct{}, len(b))
	for _, issue := range b {
		exclude[issue] = struct{}{}
	}

	result := []string{}
	for _, issue := range a {
		if _, ok := exclude[issue]; !ok {
			result = append(result, issue)
		}
	}
	return result
}
