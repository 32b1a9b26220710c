package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/glauth-sync/internal/core/domain"
	"github.com/99minutos/glauth-sync/internal/core/ports"
)

// SyncSettings are the run parameters that do not change between runs.
type SyncSettings struct {
	MinUID       uint64
	PrimaryGroup uint64
}

type syncService struct {
	directory  ports.Directory
	reconciler *Reconciler
	template   ports.TemplateSource
	publisher  ports.Publisher
	audit      ports.AuditRepository
	settings   SyncSettings
	log        zerolog.Logger
	now        func() time.Time
}

// NewSyncService wires the pipeline stages together. audit may be nil.
func NewSyncService(
	directory ports.Directory,
	store ports.IdentityStore,
	template ports.TemplateSource,
	publisher ports.Publisher,
	audit ports.AuditRepository,
	settings SyncSettings,
	log zerolog.Logger,
) ports.SyncService {
	return &syncService{
		directory:  directory,
		reconciler: NewReconciler(store, settings.MinUID, log),
		template:   template,
		publisher:  publisher,
		audit:      audit,
		settings:   settings,
		log:        log,
		now:        time.Now,
	}
}

// Run performs one full pass. Any stage failure stops the run; nothing after
// the failing stage is written.
func (s *syncService) Run(ctx context.Context) (*domain.SyncRun, error) {
	run := &domain.SyncRun{StartedAt: s.now().UTC()}

	err := s.run(ctx, run)

	run.FinishedAt = s.now().UTC()
	if err != nil {
		run.Error = err.Error()
	}
	s.record(ctx, run)

	if err != nil {
		return run, err
	}
	s.log.Info().
		Int("users", run.UsersRendered).
		Int("assigned", len(run.Assigned)).
		Bool("changed", run.Changed).
		Dur("duration", run.Duration()).
		Msg("sync finished")
	return run, nil
}

func (s *syncService) run(ctx context.Context, run *domain.SyncRun) error {
	template, err := s.template.Template(ctx)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	roles, err := s.directory.FetchRoles(ctx)
	if err != nil {
		return fmt.Errorf("sync: fetch roles: %w", err)
	}
	run.RolesFetched = len(roles)

	users, err := s.directory.FetchUsers(ctx)
	if err != nil {
		return fmt.Errorf("sync: fetch users: %w", err)
	}
	run.UsersFetched = len(users)

	kept := roles.FilterUsers(users)
	if dropped := len(users) - len(kept); dropped > 0 {
		s.log.Debug().Int("dropped", dropped).Msg("users without a usable role skipped")
	}

	reconciled, assigned, err := s.reconciler.Reconcile(ctx, kept)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	run.Assigned = assigned
	run.UsersRendered = len(reconciled)

	s.checkCredentials(reconciled)

	content := NewRenderer(roles, s.settings.PrimaryGroup).Render(template, reconciled)

	changed, err := s.publisher.Publish(ctx, content)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	run.Changed = changed
	return nil
}

// checkCredentials warns about secrets GLAuth will not accept as bcrypt
// hashes. They are rendered regardless.
func (s *syncService) checkCredentials(users []domain.ReconciledUser) {
	for _, u := range users {
		if _, err := bcrypt.Cost([]byte(u.Password)); err != nil {
			s.log.Warn().Err(err).Str("username", u.Username).Msg("credential is not a bcrypt hash")
		}
	}
}

// record stores the run in the audit trail; failures are logged only.
func (s *syncService) record(ctx context.Context, run *domain.SyncRun) {
	if s.audit == nil {
		return
	}
	if err := s.audit.InsertRun(ctx, run); err != nil {
		s.log.Warn().Err(err).Msg("failed to insert sync run audit")
	}
}
