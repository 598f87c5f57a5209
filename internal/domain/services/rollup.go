package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/ersonp/comply-core/internal/domain/entities"
)

const (
	// DefaultRollupLimit is how many repositories a rollup checks when no limit is given.
	DefaultRollupLimit = 10

	// MaxOrganizationRepositories bounds the candidate listing of an organization.
	MaxOrganizationRepositories = 100
)

// RollupOptions controls which repositories an organization rollup checks.
type RollupOptions struct {
	Limit           int
	IncludeArchived bool
	Filter          func(entities.RepositoryInfo) bool
}

// EntityScore is one repository's line in an organization rollup.
type EntityScore struct {
	Repository string          `json:"repository"`
	Score      int             `json:"score"`
	Status     entities.Status `json:"status"`
	IssueCount int             `json:"issue_count"`
	RecordID   string          `json:"record_id"`
}

// SkippedEntity is a repository whose check failed and was left out of the rollup.
type SkippedEntity struct {
	Repository string `json:"repository"`
	Stage      Stage  `json:"stage"`
	Error      string `json:"error"`
}

// OrganizationRollup is the raw payload of an organization summary record.
type OrganizationRollup struct {
	Organization string          `json:"organization"`
	Analyzed     int             `json:"analyzed"`
	AverageScore *int            `json:"average_score,omitempty"`
	Repositories []EntityScore   `json:"repositories"`
	Skipped      []SkippedEntity `json:"skipped"`
}

// RollupResult is the outcome of an organization rollup.
type RollupResult struct {
	CheckResult
	Rollup OrganizationRollup `json:"rollup"`
}

// CheckOrganization checks up to opts.Limit repositories of org and records
// one summary record for the set. A repository whose aggregation fails is
// skipped and contributes neither score nor issues. A storage failure aborts
// the rollup.
func (s *CheckService) CheckOrganization(ctx context.Context, org string, opts RollupOptions) (*RollupResult, error) {
	if s.repositories == nil {
		return nil, errors.New("source control provider is not configured")
	}

	start := timeNow()
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultRollupLimit
	}

	candidates, err := s.sourceControl.ListOrganizationRepositories(ctx, org, MaxOrganizationRepositories)
	if err != nil {
		return nil, s.fail(ctx, entities.SourceGitHub, OrganizationType, org, StageAggregation,
			fmt.Errorf("listing repositories: %w", err), start)
	}

	rollup := OrganizationRollup{
		Organization: org,
		Repositories: []EntityScore{},
		Skipped:      []SkippedEntity{},
	}
	var issues []string
	total := 0

	for _, repo := range selectRepositories(candidates, opts, limit) {
		res, err := s.CheckRepository(ctx, repo.Owner, repo.Name)
		if err != nil {
			if IsStage(err, StageStorage) {
				return nil, err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}

			s.logger.Warn("skipping repository in rollup", "repository", repo.FullName(), "error", err)
			if s.metrics != nil {
				s.metrics.EntitySkipped(entities.SourceGitHub)
			}
			rollup.Skipped = append(rollup.Skipped, SkippedEntity{
				Repository: repo.FullName(),
				Stage:      StageAggregation,
				Error:      err.Error(),
			})
			continue
		}

		summary := res.Record.Summary
		score := 0
		if summary.Score != nil {
			score = *summary.Score
		}
		total += score

		rollup.Repositories = append(rollup.Repositories, EntityScore{
			Repository: repo.FullName(),
			Score:      score,
			Status:     summary.Status,
			IssueCount: len(summary.Issues),
			RecordID:   res.Record.ID,
		})
		for _, issue := range summary.Issues {
			issues = appendUnique(issues, repo.Name+": "+issue)
		}
	}

	rollup.Analyzed = len(rollup.Repositories)

	summary := entities.Summary{Status: entities.StatusUnknown, Issues: []string{}}
	if rollup.Analyzed > 0 {
		mean := int(math.Round(float64(total) / float64(rollup.Analyzed)))
		rollup.AverageScore = &mean
		summary = entities.NewScoredSummary(mean, issues)
	}

	// Every organization shares one record type, so the baseline is narrowed by name.
	metadata := map[string]string{"organization": org}
	res, err := s.persist(ctx, entities.SourceGitHub, OrganizationType, org, rollup, summary, metadata, metadata, start)
	if err != nil {
		return nil, err
	}

	return &RollupResult{CheckResult: *res, Rollup: rollup}, nil
}

// selectRepositories applies the archive rule and filter, then keeps the first limit.
func selectRepositories(candidates []entities.RepositoryInfo, opts RollupOptions, limit int) []entities.RepositoryInfo {
	selected := make([]entities.RepositoryInfo, 0, min(limit, len(candidates)))
	for _, repo := range candidates {
		if len(selected) >= limit {
			break
		}
		if repo.Archived && !opts.IncludeArchived {
			continue
		}
		if opts.Filter != nil && !opts.Filter(repo) {
			continue
		}
		selected = append(selected, repo)
	}
	return selected
}

func appendUnique(list []string, item string) []string {
	if slices.Contains(list, item) {
		return list
	}
	return append(list, item)
}
