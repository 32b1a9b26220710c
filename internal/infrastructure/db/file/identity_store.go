// Package file stores the identity record as a single JSON document.
package file

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/99minutos/glauth-sync/internal/core/domain"
	"github.com/99minutos/glauth-sync/internal/core/ports"
	"github.com/99minutos/glauth-sync/internal/infrastructure/fsutil"
)

// DefaultPath is the identity database location when none is configured.
const DefaultPath = "glauth-database.json"

// IdentityStore implements ports.IdentityStore on a JSON file of the form
// {"users":{"<username>":{"uid":<n>}}}.
type IdentityStore struct {
	path   string
	writer fsutil.AtomicWriter
}

// NewIdentityStore returns a store backed by path.
func NewIdentityStore(path string) ports.IdentityStore {
	if path == "" {
		path = DefaultPath
	}
	return &IdentityStore{path: path}
}

// Load reads the whole file. A missing file is an empty record.
func (s *IdentityStore) Load(_ context.Context) (*domain.IdentityRecord, error) {
	data, ok, err := fsutil.ReadFileIfExists(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrStoreRead, s.path, err)
	}
	if !ok {
		return domain.NewIdentityRecord(), nil
	}

	rec := domain.NewIdentityRecord()
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrStoreDecode, s.path, err)
	}
	if rec.Users == nil {
		rec.Users = make(map[string]domain.Identity)
	}
	return rec, nil
}

// Persist rewrites the whole file.
func (s *IdentityStore) Persist(_ context.Context, rec *domain.IdentityRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreEncode, err)
	}
	if err := s.writer.WriteFile(s.path, data); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrStoreWrite, s.path, err)
	}
	return nil
}
