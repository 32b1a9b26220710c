package ports

import (
	"context"

	"github.com/99minutos/glauth-sync/internal/core/domain"
)

// SyncService runs the fetch → reconcile → render → publish pipeline once.
type SyncService interface {
	Run(ctx context.Context) (*domain.SyncRun, error)
}
