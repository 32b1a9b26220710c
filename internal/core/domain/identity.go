package domain

import "fmt"

// Identity is the persisted part of a user: its assigned uid.
type Identity struct {
	UID uint64 `json:"uid"`
}

// IdentityRecord maps usernames to their assigned identities. Entries are
// never changed or removed once assigned.
type IdentityRecord struct {
	Users map[string]Identity `json:"users"`
}

// NewIdentityRecord returns an empty record.
func NewIdentityRecord() *IdentityRecord {
	return &IdentityRecord{Users: make(map[string]Identity)}
}

// UID returns the uid assigned to username.
func (r *IdentityRecord) UID(username string) (uint64, bool) {
	id, ok := r.Users[username]
	return id.UID, ok
}

// MaxAssignedUID returns the highest uid in the record; ok is false when the
// record is empty.
func (r *IdentityRecord) MaxAssignedUID() (highest uint64, ok bool) {
	for _, id := range r.Users {
		if !ok || id.UID > highest {
			highest = id.UID
			ok = true
		}
	}
	return highest, ok
}

// Assign records uid for username. The caller must make sure username has no
// uid yet; reassigning is a programming error and panics.
func (r *IdentityRecord) Assign(username string, uid uint64) {
	if r.Users == nil {
		r.Users = make(map[string]Identity)
	}
	if existing, ok := r.Users[username]; ok {
		panic(fmt.Sprintf("identity: %q already has uid %d", username, existing.UID))
	}
	r.Users[username] = Identity{UID: uid}
}

// Len returns the number of assigned identities.
func (r *IdentityRecord) Len() int {
	return len(r.Users)
}
