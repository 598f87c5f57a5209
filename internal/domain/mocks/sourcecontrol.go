package mocks

import (
	"context"
	"sync"

	"github.com/ersonp/comply-core/internal/domain/entities"
)

// SourceControl is a mock implementation of ports.SourceControlClient.
// Repositories are keyed by "owner/name".
type SourceControl struct {
	mu sync.Mutex

	Repositories map[string]*entities.RepositoryInfo
	Protection   map[string]*entities.BranchProtection
	Alerts       map[string]map[entities.AlertKind][]entities.SecurityAlert
	PullRequests map[string][]entities.PullRequest
	Reviews      map[string]map[int][]entities.Review
	OrgRepos     map[string][]entities.RepositoryInfo

	// Per-call errors, keyed like the maps above.
	RepositoryErr map[string]error
	ProtectionErr map[string]error
	AlertErr      map[string]map[entities.AlertKind]error
	Err           error

	Calls map[string]int
}

// NewSourceControl creates a new mock SourceControl.
func NewSourceControl() *SourceControl {
	return &SourceControl{
		Repositories:  make(map[string]*entities.RepositoryInfo),
		Protection:    make(map[string]*entities.BranchProtection),
		Alerts:        make(map[string]map[entities.AlertKind][]entities.SecurityAlert),
		PullRequests:  make(map[string][]entities.PullRequest),
		Reviews:       make(map[string]map[int][]entities.Review),
		OrgRepos:      make(map[string][]entities.RepositoryInfo),
		RepositoryErr: make(map[string]error),
		ProtectionErr: make(map[string]error),
		AlertErr:      make(map[string]map[entities.AlertKind]error),
		Calls:         make(map[string]int),
	}
}

// AddRepository registers a repository with its default branch.
func (m *SourceControl) AddRepository(owner, name string) *entities.RepositoryInfo {
	info := &entities.RepositoryInfo{Owner: owner, Name: name, DefaultBranch: "main"}
	m.Repositories[info.FullName()] = info
	m.OrgRepos[owner] = append(m.OrgRepos[owner], *info)
	return info
}

func (m *SourceControl) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[call]++
}

// GetRepository returns the registered repository.
func (m *SourceControl) GetRepository(_ context.Context, owner, name string) (*entities.RepositoryInfo, error) {
	m.record("GetRepository")
	if m.Err != nil {
		return nil, m.Err
	}
	key := owner + "/" + name
	if err := m.RepositoryErr[key]; err != nil {
		return nil, err
	}
	info, ok := m.Repositories[key]
	if !ok {
		return &entities.RepositoryInfo{Owner: owner, Name: name, DefaultBranch: "main"}, nil
	}
	return info, nil
}

// GetBranchProtection returns the registered protection rules.
func (m *SourceControl) GetBranchProtection(_ context.Context, owner, name, _ string) (*entities.BranchProtection, error) {
	m.record("GetBranchProtection")
	key := owner + "/" + name
	if err := m.ProtectionErr[key]; err != nil {
		return nil, err
	}
	if p, ok := m.Protection[key]; ok {
		return p, nil
	}
	return &entities.BranchProtection{}, nil
}

// ListOpenAlerts returns the registered alerts of kind.
func (m *SourceControl) ListOpenAlerts(_ context.Context, owner, name string, kind entities.AlertKind) ([]entities.SecurityAlert, error) {
	m.record("ListOpenAlerts")
	key := owner + "/" + name
	if err := m.AlertErr[key][kind]; err != nil {
		return nil, err
	}
	return m.Alerts[key][kind], nil
}

// ListMergedPullRequests returns up to limit registered pull requests.
func (m *SourceControl) ListMergedPullRequests(_ context.Context, owner, name string, limit int) ([]entities.PullRequest, error) {
	m.record("ListMergedPullRequests")
	prs := m.PullRequests[owner+"/"+name]
	if limit > 0 && len(prs) > limit {
		prs = prs[:limit]
	}
	return prs, nil
}

// ListReviews returns the registered reviews of a pull request.
func (m *SourceControl) ListReviews(_ context.Context, owner, name string, number int) ([]entities.Review, error) {
	m.record("ListReviews")
	return m.Reviews[owner+"/"+name][number], nil
}

// ListOrganizationRepositories returns up to limit registered repositories.
func (m *SourceControl) ListOrganizationRepositories(_ context.Context, org string, limit int) ([]entities.RepositoryInfo, error) {
	m.record("ListOrganizationRepositories")
	if m.Err != nil {
		return nil, m.Err
	}
	repos := m.OrgRepos[org]
	if limit > 0 && len(repos) > limit {
		repos = repos[:limit]
	}
	return repos, nil
}
