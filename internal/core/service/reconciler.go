package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/99minutos/glauth-sync/internal/core/domain"
	"github.com/99minutos/glauth-sync/internal/core/ports"
)

// Reconciler merges fetched users into the identity store.
type Reconciler struct {
	store  ports.IdentityStore
	minUID uint64
	log    zerolog.Logger
}

// NewReconciler returns a Reconciler assigning new uids above minUID.
func NewReconciler(store ports.IdentityStore, minUID uint64, log zerolog.Logger) *Reconciler {
	return &Reconciler{store: store, minUID: minUID, log: log}
}

// Reconcile assigns uids to users not yet in the store, in the given order,
// persists the store and returns the users sorted by uid together with the
// assignments made in this call.
func (r *Reconciler) Reconcile(ctx context.Context, users []domain.RemoteUser) ([]domain.ReconciledUser, []domain.Assignment, error) {
	rec, err := r.store.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("reconcile: %w", err)
	}

	assigned, err := AssignUIDs(rec, users, r.minUID)
	if err != nil {
		return nil, nil, fmt.Errorf("reconcile: %w", err)
	}
	for _, a := range assigned {
		r.log.Info().Str("username", a.Username).Uint64("uid", a.UID).Msg("assigned uid")
	}

	if err := r.store.Persist(ctx, rec); err != nil {
		return nil, nil, fmt.Errorf("reconcile: %w", err)
	}

	out, err := attachUIDs(rec, users)
	if err != nil {
		return nil, nil, fmt.Errorf("reconcile: %w", err)
	}
	return out, assigned, nil
}

// AssignUIDs gives every user missing from rec the next free uid. Counting
// starts at max(highest assigned uid, floor); the first new user gets that
// value plus one. Existing entries are never touched. When the remaining uid
// space cannot hold every newcomer, rec is left unchanged and
// ErrUIDExhausted is returned.
func AssignUIDs(rec *domain.IdentityRecord, users []domain.RemoteUser, floor uint64) ([]domain.Assignment, error) {
	next := floor
	if highest, ok := rec.MaxAssignedUID(); ok && highest > next {
		next = highest
	}

	var missing []string
	seen := make(map[string]struct{})
	for _, u := range users {
		if _, ok := rec.UID(u.Username); ok {
			continue
		}
		if _, dup := seen[u.Username]; dup {
			continue
		}
		seen[u.Username] = struct{}{}
		missing = append(missing, u.Username)
	}
	if uint64(len(missing)) > math.MaxUint64-next {
		return nil, fmt.Errorf("%w: %d new users above uid %d", domain.ErrUIDExhausted, len(missing), next)
	}

	assigned := make([]domain.Assignment, 0, len(missing))
	for _, username := range missing {
		next++
		rec.Assign(username, next)
		assigned = append(assigned, domain.Assignment{Username: username, UID: next})
	}
	return assigned, nil
}

// attachUIDs pairs users with their uid, ascending by uid.
func attachUIDs(rec *domain.IdentityRecord, users []domain.RemoteUser) ([]domain.ReconciledUser, error) {
	out := make([]domain.ReconciledUser, 0, len(users))
	for _, u := range users {
		uid, ok := rec.UID(u.Username)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrInconsistentIdentity, u.Username)
		}
		out = append(out, domain.ReconciledUser{RemoteUser: u, UID: uid})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out, nil
}
