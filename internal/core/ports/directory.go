package ports

import (
	"context"

	"github.com/99minutos/glauth-sync/internal/core/domain"
)

// Directory is the read-only remote source of users and roles.
type Directory interface {
	// FetchRoles returns usable roles only.
	FetchRoles(ctx context.Context) (domain.RoleMap, error)
	// FetchUsers returns users in the order the source reported them.
	FetchUsers(ctx context.Context) ([]domain.RemoteUser, error)
}
