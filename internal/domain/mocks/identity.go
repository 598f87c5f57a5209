package mocks

import (
	"context"

	"github.com/ersonp/comply-core/internal/domain/entities"
)

// Identity is a mock implementation of ports.IdentityClient.
type Identity struct {
	Users   []entities.DirectoryUser
	Groups  []entities.DirectoryGroup
	Domains []entities.DirectoryDomain

	UsersErr   error
	GroupsErr  error
	DomainsErr error
}

// ListUsers returns the configured users.
func (m *Identity) ListUsers(_ context.Context) ([]entities.DirectoryUser, error) {
	return m.Users, m.UsersErr
}

// ListGroups returns the configured groups.
func (m *Identity) ListGroups(_ context.Context) ([]entities.DirectoryGroup, error) {
	return m.Groups, m.GroupsErr
}

// ListDomains returns the configured domains.
func (m *Identity) ListDomains(_ context.Context) ([]entities.DirectoryDomain, error) {
	return m.Domains, m.DomainsErr
}
