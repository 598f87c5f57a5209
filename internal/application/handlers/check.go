package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/ersonp/comply-core/internal/domain/entities"
	"github.com/ersonp/comply-core/internal/domain/services"
)

// CheckHandler runs compliance checks at the application layer.
type CheckHandler struct {
	service *services.CheckService
}

// NewCheckHandler creates a new CheckHandler.
func NewCheckHandler(service *services.CheckService) *CheckHandler {
	return &CheckHandler{
		service: service,
	}
}

// OrganizationOptions controls an organization rollup.
type OrganizationOptions struct {
	Limit           int
	IncludeArchived bool
	Match           string // Case-insensitive substring of the repository name
}

// HandleRepository checks one repository given as "owner/name".
func (h *CheckHandler) HandleRepository(ctx context.Context, fullName string) (*services.CheckResult, error) {
	owner, name, err := SplitRepository(fullName)
	if err != nil {
		return nil, err
	}
	return h.service.CheckRepository(ctx, owner, name)
}

// HandleOrganization checks the repositories of org and records the rollup.
func (h *CheckHandler) HandleOrganization(ctx context.Context, org string, opts OrganizationOptions) (*services.RollupResult, error) {
	if org == "" {
		return nil, fmt.Errorf("organization is required")
	}

	rollupOpts := services.RollupOptions{
		Limit:           opts.Limit,
		IncludeArchived: opts.IncludeArchived,
	}
	if match := strings.ToLower(opts.Match); match != "" {
		rollupOpts.Filter = func(repo entities.RepositoryInfo) bool {
			return strings.Contains(strings.ToLower(repo.Name), match)
		}
	}

	return h.service.CheckOrganization(ctx, org, rollupOpts)
}

// HandleWorkspace checks the identity workspace.
func (h *CheckHandler) HandleWorkspace(ctx context.Context) (*services.CheckResult, error) {
	return h.service.CheckWorkspace(ctx)
}

// SplitRepository splits "owner/name".
func SplitRepository(fullName string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(fullName), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid repository %q (want owner/name)", fullName)
	}
	return owner, name, nil
}
