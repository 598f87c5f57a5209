package entities

import "time"

// RepositoryInfo is the provider's description of a repository.
type RepositoryInfo struct {
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
	Archived      bool   `json:"archived"`
}

// FullName returns "owner/name".
func (r RepositoryInfo) FullName() string {
	return r.Owner + "/" + r.Name
}

// BranchProtection is the protection configuration of the default branch.
// A branch without protection is represented with Enabled=false.
type BranchProtection struct {
	Enabled           bool `json:"enabled"`
	RequiresReviews   bool `json:"requires_reviews"`
	RequiredReviewers int  `json:"required_reviewers"`
	EnforceAdmins     bool `json:"enforce_admins"`
}

// AlertKind distinguishes the security alert feeds of a repository.
type AlertKind string

// Alert kinds.
const (
	AlertKindDependency   AlertKind = "dependency"
	AlertKindCodeScanning AlertKind = "code_scanning"
)

// Alert severities.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// SecurityAlert is one open security alert.
type SecurityAlert struct {
	Number   int       `json:"number"`
	Kind     AlertKind `json:"kind"`
	Severity string    `json:"severity"`
	Summary  string    `json:"summary,omitempty"`
}

// AlertCounts summarises the open alerts of a repository.
type AlertCounts struct {
	Dependency   int            `json:"dependency"`
	CodeScanning int            `json:"code_scanning"`
	BySeverity   map[string]int `json:"by_severity"`
}

// Critical returns the number of open critical alerts across all feeds.
func (a AlertCounts) Critical() int {
	return a.BySeverity[SeverityCritical]
}

// PullRequest is a merged change.
type PullRequest struct {
	Number   int       `json:"number"`
	Title    string    `json:"title"`
	Author   string    `json:"author"`
	MergedAt time.Time `json:"merged_at"`
}

// Review states reported by the provider.
const (
	ReviewApproved         = "APPROVED"
	ReviewChangesRequested = "CHANGES_REQUESTED"
	ReviewCommented        = "COMMENTED"
)

// Review is one review submitted on a pull request.
type Review struct {
	Reviewer string `json:"reviewer"`
	State    string `json:"state"`
}

// ReviewHistory summarises approvals on recently merged changes.
type ReviewHistory struct {
	Sampled               int     `json:"sampled"`
	MergedWithoutApproval int     `json:"merged_without_approval"`
	UnapprovedNumbers     []int   `json:"unapproved_numbers,omitempty"`
	AverageReviewers      float64 `json:"average_reviewers"`
}

// RepositoryAggregate is the normalized state of one repository used for scoring.
type RepositoryAggregate struct {
	Repository  RepositoryInfo   `json:"repository"`
	Protection  BranchProtection `json:"protection"`
	Alerts      AlertCounts      `json:"alerts"`
	Reviews     ReviewHistory    `json:"reviews"`
	CollectedAt time.Time        `json:"collected_at"`
}
