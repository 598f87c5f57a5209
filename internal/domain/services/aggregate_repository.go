package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ersonp/comply-core/internal/domain/entities"
	"github.com/ersonp/comply-core/internal/domain/ports"
)

// ReviewSampleSize is how many recently merged pull requests are inspected for
// approvals. It bounds provider calls per repository; older merges are not scored.
const ReviewSampleSize = 20

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// RepositoryAggregator builds the normalized aggregate of one repository.
type RepositoryAggregator struct {
	client ports.SourceControlClient
	logger *slog.Logger
}

// NewRepositoryAggregator creates a new RepositoryAggregator.
func NewRepositoryAggregator(client ports.SourceControlClient, logger *slog.Logger) *RepositoryAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &RepositoryAggregator{
		client: client,
		logger: logger,
	}
}

// Aggregate collects protection, alert and review state for owner/name.
// The repository lookup runs first because later calls need its default
// branch; the remaining lookups are independent and run concurrently.
// Any failure other than a tolerated absence aborts the aggregate.
func (a *RepositoryAggregator) Aggregate(ctx context.Context, owner, name string) (*entities.RepositoryAggregate, error) {
	repo, err := a.client.GetRepository(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("fetching repository %s/%s: %w", owner, name, err)
	}

	var (
		protection   entities.BranchProtection
		dependency   []entities.SecurityAlert
		codeScanning []entities.SecurityAlert
		reviews      entities.ReviewHistory
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := a.fetchProtection(gCtx, repo)
		if err != nil {
			return err
		}
		protection = p
		return nil
	})

	g.Go(func() error {
		alerts, err := a.fetchAlerts(gCtx, repo, entities.AlertKindDependency)
		if err != nil {
			return err
		}
		dependency = alerts
		return nil
	})

	g.Go(func() error {
		alerts, err := a.fetchAlerts(gCtx, repo, entities.AlertKindCodeScanning)
		if err != nil {
			return err
		}
		codeScanning = alerts
		return nil
	})

	g.Go(func() error {
		h, err := a.fetchReviewHistory(gCtx, repo)
		if err != nil {
			return err
		}
		reviews = h
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregating %s: %w", repo.FullName(), err)
	}

	return &entities.RepositoryAggregate{
		Repository:  *repo,
		Protection:  protection,
		Alerts:      countAlerts(dependency, codeScanning),
		Reviews:     reviews,
		CollectedAt: timeNow().UTC(),
	}, nil
}

func (a *RepositoryAggregator) fetchProtection(ctx context.Context, repo *entities.RepositoryInfo) (entities.BranchProtection, error) {
	p, err := a.client.GetBranchProtection(ctx, repo.Owner, repo.Name, repo.DefaultBranch)
	if ports.IsTolerated(err) {
		a.logger.Debug("branch protection absent", "repository", repo.FullName(), "branch", repo.DefaultBranch, "reason", err)
		return entities.BranchProtection{}, nil
	}
	if err != nil {
		return entities.BranchProtection{}, fmt.Errorf("fetching branch protection: %w", err)
	}
	if p == nil {
		return entities.BranchProtection{}, nil
	}
	return *p, nil
}

func (a *RepositoryAggregator) fetchAlerts(ctx context.Context, repo *entities.RepositoryInfo, kind entities.AlertKind) ([]entities.SecurityAlert, error) {
	alerts, err := a.client.ListOpenAlerts(ctx, repo.Owner, repo.Name, kind)
	if ports.IsTolerated(err) {
		a.logger.Debug("security alerts unavailable", "repository", repo.FullName(), "kind", kind, "reason", err)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s alerts: %w", kind, err)
	}
	return alerts, nil
}

// fetchReviewHistory counts how many of the sampled merged pull requests
// were merged without any approving review.
func (a *RepositoryAggregator) fetchReviewHistory(ctx context.Context, repo *entities.RepositoryInfo) (entities.ReviewHistory, error) {
	prs, err := a.client.ListMergedPullRequests(ctx, repo.Owner, repo.Name, ReviewSampleSize)
	if err != nil {
		return entities.ReviewHistory{}, fmt.Errorf("listing merged pull requests: %w", err)
	}
	if len(prs) > ReviewSampleSize {
		prs = prs[:ReviewSampleSize]
	}

	history := entities.ReviewHistory{Sampled: len(prs)}
	totalReviewers := 0

	for _, pr := range prs {
		reviews, err := a.client.ListReviews(ctx, repo.Owner, repo.Name, pr.Number)
		if err != nil {
			return entities.ReviewHistory{}, fmt.Errorf("listing reviews for #%d: %w", pr.Number, err)
		}

		reviewers := make(map[string]struct{}, len(reviews))
		approved := false
		for _, r := range reviews {
			reviewers[r.Reviewer] = struct{}{}
			if strings.EqualFold(r.State, entities.ReviewApproved) {
				approved = true
			}
		}
		totalReviewers += len(reviewers)

		if !approved {
			history.MergedWithoutApproval++
			history.UnapprovedNumbers = append(history.UnapprovedNumbers, pr.Number)
		}
	}

	if len(prs) > 0 {
		avg := float64(totalReviewers) / float64(len(prs))
		history.AverageReviewers = math.Round(avg*100) / 100
	}

	return history, nil
}

// countAlerts folds the alert feeds into per-kind and per-severity counts.
func countAlerts(dependency, codeScanning []entities.SecurityAlert) entities.AlertCounts {
	counts := entities.AlertCounts{
		Dependency:   len(dependency),
		CodeScanning: len(codeScanning),
		BySeverity:   make(map[string]int),
	}
	for _, feed := range [][]entities.SecurityAlert{dependency, codeScanning} {
		for _, alert := range feed {
			severity := strings.ToLower(alert.Severity)
			if severity == "" {
				severity = "unknown"
			}
			counts.BySeverity[severity]++
		}
	}
	return counts
}
