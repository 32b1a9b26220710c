package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/99minutos/glauth-sync/internal/core/domain"
)

func TestIdentityStore_LoadMissingKeyIsEmpty(t *testing.T) {
	client, key := newTestClient(t)
	store := NewIdentityStore(client, key)

	rec, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.Len() != 0 {
		t.Errorf("expected empty record, got %d entries", rec.Len())
	}
}

func TestIdentityStore_PersistThenLoad(t *testing.T) {
	client, key := newTestClient(t)
	store := NewIdentityStore(client, key)
	ctx := context.Background()

	rec := domain.NewIdentityRecord()
	rec.Assign("jdoe", 5001)
	rec.Assign("asmith", 5002)
	if err := store.Persist(ctx, rec); err != nil {
		t.Fatalf("persist: %v", err)
	}
	// A second persist of the same record is a no-op, not a conflict.
	if err := store.Persist(ctx, rec); err != nil {
		t.Fatalf("second persist: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("expected 2 identities, got %d", loaded.Len())
	}
	for name, want := range map[string]uint64{"jdoe": 5001, "asmith": 5002} {
		if got, _ := loaded.UID(name); got != want {
			t.Errorf("%s: expected uid %d, got %d", name, want, got)
		}
	}
}

func TestIdentityStore_PersistNeverOverwrites(t *testing.T) {
	client, key := newTestClient(t)
	store := NewIdentityStore(client, key)
	ctx := context.Background()

	if err := client.HSet(ctx, key, "jdoe", "7000").Err(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := domain.NewIdentityRecord()
	rec.Assign("jdoe", 5001)
	rec.Assign("asmith", 5002)

	err := store.Persist(ctx, rec)
	if !errors.Is(err, domain.ErrStoreWrite) {
		t.Fatalf("expected ErrStoreWrite, got %v", err)
	}

	stored, err := client.HGet(ctx, key, "jdoe").Result()
	if err != nil {
		t.Fatalf("hget: %v", err)
	}
	if stored != "7000" {
		t.Errorf("stored uid replaced: %s", stored)
	}
}

func TestIdentityStore_LoadMalformedUID(t *testing.T) {
	client, key := newTestClient(t)
	store := NewIdentityStore(client, key)
	ctx := context.Background()

	if err := client.HSet(ctx, key, "jdoe", "not-a-number").Err(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrStoreDecode) {
		t.Errorf("expected ErrStoreDecode, got %v", err)
	}
}

func TestIdentityStore_LoadUnreachable(t *testing.T) {
	client, key := newTestClient(t)
	store := NewIdentityStore(client, key)
	_ = client.Close()

	if _, err := store.Load(context.Background()); !errors.Is(err, domain.ErrStoreRead) {
		t.Errorf("expected ErrStoreRead, got %v", err)
	}
}
