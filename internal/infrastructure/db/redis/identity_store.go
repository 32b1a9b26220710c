package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/glauth-sync/internal/core/domain"
	"github.com/99minutos/glauth-sync/internal/core/ports"
)

// DefaultKey is the hash holding username → uid.
const DefaultKey = "glauth:identities"

// IdentityStore implements ports.IdentityStore on a Redis hash.
// Persist uses HSETNX, so a uid already stored is never replaced.
type IdentityStore struct {
	client *redis.Client
	key    string
}

// NewIdentityStore wraps client, storing the mapping under key.
func NewIdentityStore(client *redis.Client, key string) ports.IdentityStore {
	if key == "" {
		key = DefaultKey
	}
	return &IdentityStore{client: client, key: key}
}

// Load reads the full hash. A missing key is an empty record.
func (s *IdentityStore) Load(ctx context.Context) (*domain.IdentityRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: hgetall %s: %w", domain.ErrStoreRead, s.key, err)
	}

	rec := domain.NewIdentityRecord()
	for username, raw := range fields {
		uid, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: uid of %q: %w", domain.ErrStoreDecode, username, err)
		}
		rec.Assign(username, uid)
	}
	return rec, nil
}

// Persist writes every entry with HSETNX in one pipeline. An entry that is
// already stored with a different uid is reported, not overwritten.
func (s *IdentityStore) Persist(ctx context.Context, rec *domain.IdentityRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipe := s.client.Pipeline()
	cmds := make(map[string]*redis.BoolCmd, rec.Len())
	for username, id := range rec.Users {
		cmds[username] = pipe.HSetNX(ctx, s.key, username, strconv.FormatUint(id.UID, 10))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: hsetnx %s: %w", domain.ErrStoreWrite, s.key, err)
	}

	for username, cmd := range cmds {
		if cmd.Val() {
			continue
		}
		stored, err := s.client.HGet(ctx, s.key, username).Result()
		if err != nil {
			return fmt.Errorf("%w: hget %s: %w", domain.ErrStoreWrite, username, err)
		}
		if want := strconv.FormatUint(rec.Users[username].UID, 10); stored != want {
			return fmt.Errorf("%w: %s is stored with uid %s, not %s", domain.ErrStoreWrite, username, stored, want)
		}
	}
	return nil
}
