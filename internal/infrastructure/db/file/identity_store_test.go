package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/99minutos/glauth-sync/internal/core/domain"
)

func TestIdentityStore_Load_MissingFileIsEmpty(t *testing.T) {
	store := NewIdentityStore(filepath.Join(t.TempDir(), "glauth-database.json"))

	rec, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if rec.Len() != 0 {
		t.Errorf("expected empty record, got %d entries", rec.Len())
	}
}

func TestIdentityStore_Load_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glauth-database.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewIdentityStore(path).Load(context.Background())
	if !errors.Is(err, domain.ErrStoreDecode) {
		t.Errorf("expected ErrStoreDecode, got: %v", err)
	}
}

func TestIdentityStore_Load_DirectoryIsReadError(t *testing.T) {
	_, err := NewIdentityStore(t.TempDir()).Load(context.Background())
	if !errors.Is(err, domain.ErrStoreRead) {
		t.Errorf("expected ErrStoreRead, got: %v", err)
	}
}

func TestIdentityStore_Load_ExistingFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glauth-database.json")
	content := `{"users":{"alice":{"uid":5001},"bob":{"uid":5002}}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rec, err := NewIdentityStore(path).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if uid, ok := rec.UID("bob"); !ok || uid != 5002 {
		t.Errorf("expected bob=5002, got %d (%v)", uid, ok)
	}
}

func TestIdentityStore_PersistRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glauth-database.json")
	store := NewIdentityStore(path)
	ctx := context.Background()

	rec := domain.NewIdentityRecord()
	rec.Assign("alice", 5001)
	if err := store.Persist(ctx, rec); err != nil {
		t.Fatalf("persist: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if uid, ok := loaded.UID("alice"); !ok || uid != 5001 {
		t.Errorf("expected alice=5001, got %d (%v)", uid, ok)
	}
}

func TestIdentityStore_Persist_MissingDirectory(t *testing.T) {
	store := NewIdentityStore(filepath.Join(t.TempDir(), "missing", "db.json"))

	err := store.Persist(context.Background(), domain.NewIdentityRecord())
	if !errors.Is(err, domain.ErrStoreWrite) {
		t.Errorf("expected ErrStoreWrite, got: %v", err)
	}
}
