package domain

// RemoteUser is a user record as returned by the directory source.
type RemoteUser struct {
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Password string   `json:"password"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// RemoteRole is a role record. Only roles carrying a group id are usable.
type RemoteRole struct {
	Name    string
	GroupID *uint64
}

// Usable reports whether the role carries a group id.
func (r RemoteRole) Usable() bool {
	return r.GroupID != nil
}

// GID returns the role's group id, or 0 when the role is not usable.
func (r RemoteRole) GID() uint64 {
	if r.GroupID == nil {
		return 0
	}
	return *r.GroupID
}

// RoleMap maps role names to usable roles.
type RoleMap map[string]RemoteRole

// HasAnyRole reports whether at least one of the user's roles is in the map.
func (m RoleMap) HasAnyRole(u RemoteUser) bool {
	for _, name := range u.Roles {
		if _, ok := m[name]; ok {
			return true
		}
	}
	return false
}

// FilterUsers keeps users holding at least one usable role, preserving order.
func (m RoleMap) FilterUsers(users []RemoteUser) []RemoteUser {
	kept := make([]RemoteUser, 0, len(users))
	for _, u := range users {
		if m.HasAnyRole(u) {
			kept = append(kept, u)
		}
	}
	return kept
}

// ReconciledUser is a remote user paired with its stable uid.
type ReconciledUser struct {
	RemoteUser
	UID uint64
}
