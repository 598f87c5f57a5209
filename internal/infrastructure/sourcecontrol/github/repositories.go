package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ersonp/comply-core/internal/domain/entities"
	"github.com/ersonp/comply-core/internal/domain/ports"
	"github.com/ersonp/comply-core/internal/infrastructure/pagination"
)

const (
	// maxClosedPullPages bounds how many pages of closed pull requests are scanned
	// while looking for merged ones.
	maxClosedPullPages = 5

	// maxAlerts bounds the open alerts read per repository and kind.
	maxAlerts = 1000

	// maxReviewsPerPull bounds the reviews read per pull request.
	maxReviewsPerPull = 300
)

type repositoryWire struct {
	Name  string `json:"name"`
	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
	Archived      bool   `json:"archived"`
}

func (w repositoryWire) toEntity() entities.RepositoryInfo {
	return entities.RepositoryInfo{
		Owner:         w.Owner.Login,
		Name:          w.Name,
		DefaultBranch: w.DefaultBranch,
		Private:       w.Private,
		Archived:      w.Archived,
	}
}

type protectionWire struct {
	RequiredPullRequestReviews *struct {
		RequiredApprovingReviewCount int `json:"required_approving_review_count"`
	} `json:"required_pull_request_reviews"`
	EnforceAdmins *struct {
		Enabled bool `json:"enabled"`
	} `json:"enforce_admins"`
}

type dependabotAlertWire struct {
	Number           int `json:"number"`
	SecurityAdvisory struct {
		Severity string `json:"severity"`
		Summary  string `json:"summary"`
	} `json:"security_advisory"`
}

type codeScanningAlertWire struct {
	Number int `json:"number"`
	Rule   struct {
		Severity              string `json:"severity"`
		SecuritySeverityLevel string `json:"security_severity_level"`
		Description           string `json:"description"`
	} `json:"rule"`
}

type pullRequestWire struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	User   struct {
		Login string `json:"login"`
	} `json:"user"`
	MergedAt *time.Time `json:"merged_at"`
}

type reviewWire struct {
	User *struct {
		Login string `json:"login"`
	} `json:"user"`
	State string `json:"state"`
}

// GetRepository returns repository details, including the default branch.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*entities.RepositoryInfo, error) {
	var wire repositoryWire
	if _, err := c.get(ctx, c.endpoint(nil, "repos", owner, name), &wire); err != nil {
		return nil, fmt.Errorf("getting repository %s/%s: %w", owner, name, err)
	}
	info := wire.toEntity()
	if info.Owner == "" {
		info.Owner = owner
	}
	if info.Name == "" {
		info.Name = name
	}
	return &info, nil
}

// GetBranchProtection returns the protection rules of a branch.
func (c *Client) GetBranchProtection(ctx context.Context, owner, name, branch string) (*entities.BranchProtection, error) {
	var wire protectionWire
	_, err := c.get(ctx, c.endpoint(nil, "repos", owner, name, "branches", branch, "protection"), &wire)
	if err != nil {
		return nil, fmt.Errorf("getting protection for %s/%s@%s: %w", owner, name, branch, classify(err))
	}

	p := &entities.BranchProtection{Enabled: true}
	if r := wire.RequiredPullRequestReviews; r != nil {
		p.RequiresReviews = true
		p.RequiredReviewers = r.RequiredApprovingReviewCount
	}
	if wire.EnforceAdmins != nil {
		p.EnforceAdmins = wire.EnforceAdmins.Enabled
	}
	return p, nil
}

// ListOpenAlerts returns open security alerts of the given kind.
func (c *Client) ListOpenAlerts(ctx context.Context, owner, name string, kind entities.AlertKind) ([]entities.SecurityAlert, error) {
	var fetch pagination.FetchFunc[entities.SecurityAlert]
	query := pageQuery(map[string]string{"state": "open"})

	switch kind {
	case entities.AlertKindDependency:
		fetch = pager(c, c.endpoint(query, "repos", owner, name, "dependabot", "alerts"),
			func(w dependabotAlertWire) (entities.SecurityAlert, bool) {
				return entities.SecurityAlert{
					Number:   w.Number,
					Kind:     entities.AlertKindDependency,
					Severity: strings.ToLower(w.SecurityAdvisory.Severity),
					Summary:  w.SecurityAdvisory.Summary,
				}, true
			})
	case entities.AlertKindCodeScanning:
		fetch = pager(c, c.endpoint(query, "repos", owner, name, "code-scanning", "alerts"),
			func(w codeScanningAlertWire) (entities.SecurityAlert, bool) {
				severity := w.Rule.SecuritySeverityLevel
				if severity == "" {
					severity = w.Rule.Severity
				}
				return entities.SecurityAlert{
					Number:   w.Number,
					Kind:     entities.AlertKindCodeScanning,
					Severity: strings.ToLower(severity),
					Summary:  w.Rule.Description,
				}, true
			})
	default:
		return nil, fmt.Errorf("unsupported alert kind: %q", kind)
	}

	alerts, err := pagination.Collect(ctx, fetch, maxAlerts)
	if err != nil {
		return nil, fmt.Errorf("listing %s alerts for %s/%s: %w", kind, owner, name, classify(err))
	}
	return alerts, nil
}

// ListMergedPullRequests returns up to limit merged pull requests, most recently updated first.
func (c *Client) ListMergedPullRequests(ctx context.Context, owner, name string, limit int) ([]entities.PullRequest, error) {
	query := pageQuery(map[string]string{
		"state":     "closed",
		"sort":      "updated",
		"direction": "desc",
	})
	fetch := pager(c, c.endpoint(query, "repos", owner, name, "pulls"),
		func(w pullRequestWire) (entities.PullRequest, bool) {
			if w.MergedAt == nil {
				return entities.PullRequest{}, false
			}
			return entities.PullRequest{
				Number:   w.Number,
				Title:    w.Title,
				Author:   w.User.Login,
				MergedAt: w.MergedAt.UTC(),
			}, true
		})

	// Pages without merged pull requests yield nothing, so the page budget is
	// enforced on the fetch itself.
	scanned := 0
	var bounded pagination.FetchFunc[entities.PullRequest] = func(ctx context.Context, cursor string) (pagination.Page[entities.PullRequest], error) {
		if scanned >= maxClosedPullPages {
			return pagination.Page[entities.PullRequest]{}, nil
		}
		scanned++
		return fetch(ctx, cursor)
	}

	var merged []entities.PullRequest
	for items, err := range pagination.Pages(ctx, bounded, limit) {
		if err != nil {
			return nil, fmt.Errorf("listing pull requests for %s/%s: %w", owner, name, err)
		}
		merged = append(merged, items...)
	}

	return merged, nil
}

// ListReviews returns the reviews submitted on a pull request, up to maxReviewsPerPull.
func (c *Client) ListReviews(ctx context.Context, owner, name string, number int) ([]entities.Review, error) {
	fetch := pager(c, c.endpoint(pageQuery(nil), "repos", owner, name, "pulls", strconv.Itoa(number), "reviews"),
		func(w reviewWire) (entities.Review, bool) {
			r := entities.Review{State: strings.ToUpper(w.State)}
			if w.User != nil {
				r.Reviewer = w.User.Login
			}
			return r, true
		})

	reviews, err := pagination.Collect(ctx, fetch, maxReviewsPerPull)
	if err != nil {
		return nil, fmt.Errorf("listing reviews for %s/%s#%d: %w", owner, name, number, err)
	}
	return reviews, nil
}

// ListOrganizationRepositories returns up to limit repositories of an organization.
func (c *Client) ListOrganizationRepositories(ctx context.Context, org string, limit int) ([]entities.RepositoryInfo, error) {
	query := pageQuery(map[string]string{"type": "all", "sort": "full_name"})
	fetch := pager(c, c.endpoint(query, "orgs", org, "repos"),
		func(w repositoryWire) (entities.RepositoryInfo, bool) {
			return w.toEntity(), true
		})

	repos, err := pagination.Collect(ctx, fetch, limit)
	if err != nil {
		return nil, fmt.Errorf("listing repositories for %s: %w", org, err)
	}
	return repos, nil
}

// classify maps responses that mean "not set up" or "not available" onto the
// tolerated sentinel errors. Anything else is returned unchanged.
func classify(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	msg := strings.ToLower(apiErr.Message)
	switch {
	case apiErr.StatusCode == http.StatusNotFound && strings.Contains(msg, "not protected"):
		return fmt.Errorf("%w: %w", ports.ErrNotConfigured, err)
	case apiErr.StatusCode == http.StatusNotFound && strings.Contains(msg, "no analysis found"):
		return fmt.Errorf("%w: %w", ports.ErrNotConfigured, err)
	case (apiErr.StatusCode == http.StatusForbidden || apiErr.StatusCode == http.StatusNotFound) &&
		(strings.Contains(msg, "disabled") ||
			strings.Contains(msg, "not enabled") ||
			strings.Contains(msg, "advanced security")):
		return fmt.Errorf("%w: %w", ports.ErrFeatureUnavailable, err)
	}
	return err
}
