package ports

import (
	"context"

	"github.com/99minutos/glauth-sync/internal/core/domain"
)

// AuditRepository keeps a history of pipeline runs.
type AuditRepository interface {
	InsertRun(ctx context.Context, run *domain.SyncRun) error
}
