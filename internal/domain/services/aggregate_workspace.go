package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ersonp/comply-core/internal/domain/entities"
	"github.com/ersonp/comply-core/internal/domain/ports"
)

// StaleLoginAge is how long since the last login before an account is reported as stale.
const StaleLoginAge = 90 * 24 * time.Hour

// WorkspaceAggregator builds the normalized aggregate of an identity workspace.
type WorkspaceAggregator struct {
	client ports.IdentityClient
	logger *slog.Logger
}

// NewWorkspaceAggregator creates a new WorkspaceAggregator.
func NewWorkspaceAggregator(client ports.IdentityClient, logger *slog.Logger) *WorkspaceAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkspaceAggregator{
		client: client,
		logger: logger,
	}
}

// Aggregate fetches users, groups and domains concurrently and joins them.
// The first failure cancels the remaining calls and fails the aggregate.
func (a *WorkspaceAggregator) Aggregate(ctx context.Context) (*entities.WorkspaceAggregate, error) {
	var (
		users   []entities.DirectoryUser
		groups  []entities.DirectoryGroup
		domains []entities.DirectoryDomain
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if users, err = a.client.ListUsers(gCtx); err != nil {
			return fmt.Errorf("listing users: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		if groups, err = a.client.ListGroups(gCtx); err != nil {
			return fmt.Errorf("listing groups: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		if domains, err = a.client.ListDomains(gCtx); err != nil {
			return fmt.Errorf("listing domains: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregating workspace: %w", err)
	}

	now := timeNow().UTC()
	agg := &entities.WorkspaceAggregate{
		Domain:      primaryDomain(domains),
		Users:       buildCensus(users, now),
		GroupCount:  len(groups),
		Domains:     domains,
		CollectedAt: now,
	}

	a.logger.Debug("workspace aggregated",
		"domain", agg.Domain,
		"users", agg.Users.Total,
		"active", agg.Users.Active,
		"groups", agg.GroupCount,
	)

	return agg, nil
}

// buildCensus counts active accounts and their 2-Step Verification, login and admin state.
func buildCensus(users []entities.DirectoryUser, now time.Time) entities.UserCensus {
	c := entities.UserCensus{
		Total:            len(users),
		NeverLoggedIn:    []string{},
		Stale:            []string{},
		Admins:           []string{},
		AdminsWithout2FA: []string{},
	}

	for _, u := range users {
		if u.Suspended {
			c.Suspended++
		}
		if u.Archived {
			c.Archived++
		}
		if !u.IsActive() {
			continue
		}

		c.Active++
		if u.TwoFactorEnrolled {
			c.TwoFactorEnrolled++
		}
		if u.TwoFactorEnforced {
			c.TwoFactorEnforced++
		}

		switch {
		case !u.HasLoggedIn():
			c.NeverLoggedIn = append(c.NeverLoggedIn, u.Email)
		case now.Sub(u.LastLogin) > StaleLoginAge:
			c.Stale = append(c.Stale, u.Email)
		}

		if u.IsAdmin {
			c.Admins = append(c.Admins, u.Email)
			if !u.TwoFactorEnrolled {
				c.AdminsWithout2FA = append(c.AdminsWithout2FA, u.Email)
			}
		}
	}

	c.EnrolledPercent = percentOf(c.TwoFactorEnrolled, c.Active)
	c.EnforcedPercent = percentOf(c.TwoFactorEnforced, c.Active)

	for _, list := range [][]string{c.NeverLoggedIn, c.Stale, c.Admins, c.AdminsWithout2FA} {
		slices.Sort(list)
	}

	return c
}

// primaryDomain returns the primary domain name, or the first domain if none is marked primary.
func primaryDomain(domains []entities.DirectoryDomain) string {
	for _, d := range domains {
		if d.Primary {
			return d.Name
		}
	}
	if len(domains) > 0 {
		return domains[0].Name
	}
	return ""
}
