package ports

import (
	"context"

	"github.com/ersonp/comply-core/internal/domain/entities"
)

// IdentityClient reads the account census of a directory service.
// Pagination is handled by the implementation; results are fully joined.
type IdentityClient interface {
	ListUsers(ctx context.Context) ([]entities.DirectoryUser, error)
	ListGroups(ctx context.Context) ([]entities.DirectoryGroup, error)
	ListDomains(ctx context.Context) ([]entities.DirectoryDomain, error)
}
