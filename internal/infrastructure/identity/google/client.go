// Package google provides a Google Workspace Admin SDK implementation of the IdentityClient interface.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	admin "google.golang.org/api/admin/directory/v1"
	"google.golang.org/api/option"

	"github.com/ersonp/comply-core/internal/domain/entities"
	"github.com/ersonp/comply-core/internal/infrastructure/config"
	"github.com/ersonp/comply-core/internal/infrastructure/pagination"
)

const (
	// DefaultCustomer addresses the account the credentials belong to.
	DefaultCustomer = "my_customer"

	// MaxDirectoryUsers and MaxDirectoryGroups bound a single listing.
	MaxDirectoryUsers  = 100000
	MaxDirectoryGroups = 20000

	usersPageSize  = 500
	groupsPageSize = 200
)

// scopes are the read-only directory scopes the service account is granted.
var scopes = []string{
	admin.AdminDirectoryUserReadonlyScope,
	admin.AdminDirectoryGroupReadonlyScope,
	admin.AdminDirectoryDomainReadonlyScope,
}

// Client implements ports.IdentityClient using the Admin SDK Directory API.
type Client struct {
	service   *admin.Service
	customer  string
	domain    string
	maxUsers  int
	maxGroups int
}

// NewClient creates a client that authenticates with a service account key
// using domain-wide delegation on behalf of cfg.AdminEmail.
func NewClient(ctx context.Context, cfg config.GoogleConfig) (*Client, error) {
	if cfg.CredentialsFile == "" {
		return nil, errors.New("google credentials file is required")
	}
	if cfg.AdminEmail == "" {
		return nil, errors.New("google admin email is required")
	}

	key, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading google credentials: %w", err)
	}

	jwtCfg, err := google.JWTConfigFromJSON(key, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}
	jwtCfg.Subject = cfg.AdminEmail

	return NewClientWithOptions(ctx, cfg, option.WithHTTPClient(jwtCfg.Client(ctx)))
}

// NewClientWithOptions creates a client from explicit API client options.
func NewClientWithOptions(ctx context.Context, cfg config.GoogleConfig, opts ...option.ClientOption) (*Client, error) {
	service, err := admin.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating directory service: %w", err)
	}

	customer := cfg.Customer
	if customer == "" {
		customer = DefaultCustomer
	}

	return &Client{
		service:   service,
		customer:  customer,
		domain:    cfg.Domain,
		maxUsers:  MaxDirectoryUsers,
		maxGroups: MaxDirectoryGroups,
	}, nil
}

// ListUsers returns the users of the account, following page tokens up to MaxDirectoryUsers.
func (c *Client) ListUsers(ctx context.Context) ([]entities.DirectoryUser, error) {
	var fetch pagination.FetchFunc[entities.DirectoryUser] = func(ctx context.Context, cursor string) (pagination.Page[entities.DirectoryUser], error) {
		call := c.service.Users.List().MaxResults(usersPageSize).PageToken(cursor).Context(ctx)
		if c.domain != "" {
			call = call.Domain(c.domain)
		} else {
			call = call.Customer(c.customer)
		}

		resp, err := call.Do()
		if err != nil {
			return pagination.Page[entities.DirectoryUser]{}, err
		}

		users := make([]entities.DirectoryUser, 0, len(resp.Users))
		for _, u := range resp.Users {
			users = append(users, toDirectoryUser(u))
		}
		return pagination.Page[entities.DirectoryUser]{Items: users, NextCursor: resp.NextPageToken}, nil
	}

	users, err := pagination.Collect(ctx, fetch, c.maxUsers)
	if err != nil {
		return nil, fmt.Errorf("listing directory users: %w", err)
	}
	return users, nil
}

// ListGroups returns the groups of the account, following page tokens up to MaxDirectoryGroups.
func (c *Client) ListGroups(ctx context.Context) ([]entities.DirectoryGroup, error) {
	var fetch pagination.FetchFunc[entities.DirectoryGroup] = func(ctx context.Context, cursor string) (pagination.Page[entities.DirectoryGroup], error) {
		call := c.service.Groups.List().MaxResults(groupsPageSize).PageToken(cursor).Context(ctx)
		if c.domain != "" {
			call = call.Domain(c.domain)
		} else {
			call = call.Customer(c.customer)
		}

		resp, err := call.Do()
		if err != nil {
			return pagination.Page[entities.DirectoryGroup]{}, err
		}

		groups := make([]entities.DirectoryGroup, 0, len(resp.Groups))
		for _, g := range resp.Groups {
			groups = append(groups, entities.DirectoryGroup{
				Email:   g.Email,
				Name:    g.Name,
				Members: g.DirectMembersCount,
			})
		}
		return pagination.Page[entities.DirectoryGroup]{Items: groups, NextCursor: resp.NextPageToken}, nil
	}

	groups, err := pagination.Collect(ctx, fetch, c.maxGroups)
	if err != nil {
		return nil, fmt.Errorf("listing directory groups: %w", err)
	}
	return groups, nil
}

// ListDomains returns the account's domains. The endpoint is not paginated.
func (c *Client) ListDomains(ctx context.Context) ([]entities.DirectoryDomain, error) {
	resp, err := c.service.Domains.List(c.customer).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing directory domains: %w", err)
	}

	domains := make([]entities.DirectoryDomain, 0, len(resp.Domains))
	for _, d := range resp.Domains {
		domains = append(domains, entities.DirectoryDomain{
			Name:     d.DomainName,
			Primary:  d.IsPrimary,
			Verified: d.Verified,
		})
	}
	return domains, nil
}

func toDirectoryUser(u *admin.User) entities.DirectoryUser {
	user := entities.DirectoryUser{
		Email:             u.PrimaryEmail,
		Suspended:         u.Suspended,
		Archived:          u.Archived,
		IsAdmin:           u.IsAdmin,
		TwoFactorEnrolled: u.IsEnrolledIn2Sv,
		TwoFactorEnforced: u.IsEnforcedIn2Sv,
	}
	// Accounts that never signed in report the Unix epoch.
	if t, err := time.Parse(time.RFC3339, u.LastLoginTime); err == nil && t.Unix() > 0 {
		user.LastLogin = t.UTC()
	}
	return user
}
