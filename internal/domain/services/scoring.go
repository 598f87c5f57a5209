package services

import (
	"fmt"
	"math"
	"strings"

	"github.com/ersonp/comply-core/internal/domain/entities"
)

// Repository scoring rules. Each rule deducts from a base of 100; per-unit
// rules are capped.
const (
	deductNoProtection    = 20
	deductReviewsOptional = 10
	deductNoReviewers     = 5

	perDependencyAlert   = 5
	capDependencyAlerts  = 20
	perCodeScanningAlert = 5
	capCodeScanning      = 15
	perCriticalAlert     = 10
	capCriticalAlerts    = 30
	perUnapprovedMerge   = 3
	capUnapprovedMerges  = 15
)

// Workspace scoring rules.
const (
	enrollmentGapWeight  = 0.3
	enforcementGapWeight = 0.2
	perNeverLoggedIn     = 2
	capNeverLoggedIn     = 10
	maxRecommendedAdmins = 5
	perExcessAdmin       = 3
	capExcessAdmins      = 15
)

// ScoreRepository derives the compliance summary of one repository.
// The average reviewer count is reported in the aggregate but does not score.
func ScoreRepository(agg *entities.RepositoryAggregate) entities.Summary {
	score := 100
	var issues []string

	p := agg.Protection
	if !p.Enabled {
		score -= deductNoProtection
		issues = append(issues, "Branch protection is not enabled on default branch")
	} else {
		if !p.RequiresReviews {
			score -= deductReviewsOptional
			issues = append(issues, "Pull request reviews are not required on default branch")
		}
		if p.RequiredReviewers < 1 {
			score -= deductNoReviewers
			issues = append(issues, "Branch protection requires fewer than 1 approving reviewer")
		}
	}

	if n := agg.Alerts.Dependency; n > 0 {
		score -= capped(n, perDependencyAlert, capDependencyAlerts)
		issues = append(issues, fmt.Sprintf("%d open dependency vulnerability alerts", n))
	}

	if n := agg.Alerts.CodeScanning; n > 0 {
		score -= capped(n, perCodeScanningAlert, capCodeScanning)
		issues = append(issues, fmt.Sprintf("%d open code scanning alerts", n))
	}

	if n := agg.Alerts.Critical(); n > 0 {
		score -= capped(n, perCriticalAlert, capCriticalAlerts)
		issues = append(issues, fmt.Sprintf("%d critical security vulnerabilities found", n))
	}

	if n := agg.Reviews.MergedWithoutApproval; n > 0 {
		score -= capped(n, perUnapprovedMerge, capUnapprovedMerges)
		issues = append(issues, fmt.Sprintf("%d of the last %d merged pull requests had no approving review", n, agg.Reviews.Sampled))
	}

	return entities.NewScoredSummary(score, issues)
}

// ScoreWorkspace derives the compliance summary of one workspace.
// Admins without 2-Step Verification are listed as an issue but only the
// overall enrollment gap is scored.
func ScoreWorkspace(agg *entities.WorkspaceAggregate) entities.Summary {
	score := 100
	var issues []string

	u := agg.Users
	enrolled, enforced := u.EnrolledPercent, u.EnforcedPercent
	if u.Active == 0 {
		enrolled, enforced = 100, 100
	}

	if enrolled < 100 {
		score -= weightedGap(enrolled, enrollmentGapWeight)
		issues = append(issues, fmt.Sprintf("Only %d%% of active users are enrolled in 2-Step Verification", enrolled))
	}

	if enforced < 100 {
		score -= weightedGap(enforced, enforcementGapWeight)
		issues = append(issues, fmt.Sprintf("2-Step Verification is enforced for only %d%% of active users", enforced))
	}

	if n := len(u.NeverLoggedIn); n > 0 {
		score -= capped(n, perNeverLoggedIn, capNeverLoggedIn)
		issues = append(issues, fmt.Sprintf("%d active users have never logged in", n))
	}

	if n := len(u.Admins); n > maxRecommendedAdmins {
		score -= capped(n-maxRecommendedAdmins, perExcessAdmin, capExcessAdmins)
		issues = append(issues, fmt.Sprintf("%d admin accounts exceeds the recommended maximum of %d", n, maxRecommendedAdmins))
	}

	if len(u.AdminsWithout2FA) > 0 {
		issues = append(issues, "Admin accounts without 2-Step Verification: "+strings.Join(u.AdminsWithout2FA, ", "))
	}

	return entities.NewScoredSummary(score, issues)
}

// capped returns count*per, limited to limit.
func capped(count, per, limit int) int {
	return min(count*per, limit)
}

// weightedGap returns round((100-percent)*weight).
func weightedGap(percent int, weight float64) int {
	return int(math.Round(float64(100-percent) * weight))
}

// percentOf returns part/total as a rounded percentage; an empty total counts as 100%.
func percentOf(part, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}
