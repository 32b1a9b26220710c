package ports

import (
	"context"

	"github.com/99minutos/glauth-sync/internal/core/domain"
)

// IdentityStore persists the username → uid mapping as a whole.
type IdentityStore interface {
	// Load returns the stored record, or an empty one when nothing has been
	// persisted yet.
	Load(ctx context.Context) (*domain.IdentityRecord, error)
	// Persist replaces the stored record with rec.
	Persist(ctx context.Context, rec *domain.IdentityRecord) error
}
