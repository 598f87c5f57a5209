package ports

import (
	"context"

	"github.com/ersonp/comply-core/internal/domain/entities"
)

// SourceControlClient reads repository state from a source-control host.
type SourceControlClient interface {
	// GetRepository returns repository details, including the default branch.
	GetRepository(ctx context.Context, owner, name string) (*entities.RepositoryInfo, error)

	// GetBranchProtection returns the protection rules of a branch.
	// Returns ErrNotConfigured when the branch is unprotected.
	GetBranchProtection(ctx context.Context, owner, name, branch string) (*entities.BranchProtection, error)

	// ListOpenAlerts returns open security alerts of the given kind.
	// Returns ErrFeatureUnavailable or ErrNotConfigured when the alert feed is disabled.
	ListOpenAlerts(ctx context.Context, owner, name string, kind entities.AlertKind) ([]entities.SecurityAlert, error)

	// ListMergedPullRequests returns up to limit merged pull requests, most recent first.
	ListMergedPullRequests(ctx context.Context, owner, name string, limit int) ([]entities.PullRequest, error)

	// ListReviews returns the reviews submitted on a pull request.
	ListReviews(ctx context.Context, owner, name string, number int) ([]entities.Review, error)

	// ListOrganizationRepositories returns up to limit repositories of an organization.
	ListOrganizationRepositories(ctx context.Context, org string, limit int) ([]entities.RepositoryInfo, error)
}
