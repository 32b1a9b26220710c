package service

import (
	"context"
	"sync"

	"github.com/99minutos/glauth-sync/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stubs shared by the service tests
// ---------------------------------------------------------------------------

type stubStore struct {
	rec        *domain.IdentityRecord
	loadErr    error
	persistErr error
	persisted  int
}

func newStubStore(entries map[string]uint64) *stubStore {
	rec := domain.NewIdentityRecord()
	for name, uid := range entries {
		rec.Assign(name, uid)
	}
	return &stubStore{rec: rec}
}

func (s *stubStore) Load(_ context.Context) (*domain.IdentityRecord, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	clone := domain.NewIdentityRecord()
	for name, id := range s.rec.Users {
		clone.Users[name] = id
	}
	return clone, nil
}

func (s *stubStore) Persist(_ context.Context, rec *domain.IdentityRecord) error {
	if s.persistErr != nil {
		return s.persistErr
	}
	s.persisted++
	s.rec = rec
	return nil
}

type stubDirectory struct {
	roles    domain.RoleMap
	users    []domain.RemoteUser
	rolesErr error
	usersErr error
}

func (d *stubDirectory) FetchRoles(_ context.Context) (domain.RoleMap, error) {
	return d.roles, d.rolesErr
}

func (d *stubDirectory) FetchUsers(_ context.Context) ([]domain.RemoteUser, error) {
	return d.users, d.usersErr
}

type stubTemplate struct {
	text string
	err  error
}

func (t *stubTemplate) Template(_ context.Context) (string, error) {
	return t.text, t.err
}

// stubPublisher mimics the file publisher: it only "writes" when content differs.
type stubPublisher struct {
	current string
	writes  int
	err     error
}

func (p *stubPublisher) Publish(_ context.Context, content string) (bool, error) {
	if p.err != nil {
		return false, p.err
	}
	if content == p.current {
		return false, nil
	}
	p.current = content
	p.writes++
	return true, nil
}

type stubAudit struct {
	mu   sync.Mutex
	runs []*domain.SyncRun
	err  error
}

func (a *stubAudit) InsertRun(_ context.Context, run *domain.SyncRun) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runs = append(a.runs, run)
	return a.err
}

func gid(v uint64) *uint64 { return &v }

func user(username, fullName string, roles ...string) domain.RemoteUser {
	return domain.RemoteUser{
		Username: username,
		Email:    username + "@example.com",
		FullName: fullName,
		Password: "$2a$10$" + username,
		Roles:    roles,
	}
}
