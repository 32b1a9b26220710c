package service

import (
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/99minutos/glauth-sync/internal/core/domain"
)

const userBlock = `
[[users]]
  name = "%s"
  mail = "%s"
  givenname = "%s"
  sn = "%s"
  uidnumber = "%d"
  primarygroup = %d
  otherGroups = [%s]
  passbcrypt = "%s"
    [[users.customattributes]]
      displayName = ["%s %s"]
    [[users.capabilities]]
      action = "search"
      object = "*"
`

// Renderer turns reconciled users into GLAuth configuration text.
type Renderer struct {
	roles        domain.RoleMap
	primaryGroup uint64
}

// NewRenderer returns a Renderer resolving group ids through roles.
func NewRenderer(roles domain.RoleMap, primaryGroup uint64) *Renderer {
	return &Renderer{roles: roles, primaryGroup: primaryGroup}
}

// Render returns template followed by one block per user, in the given order.
func (r *Renderer) Render(template string, users []domain.ReconciledUser) string {
	var b strings.Builder
	b.Grow(len(template) + len(users)*len(userBlock)*2)
	// strings.Builder never fails to write.
	_ = r.WriteTo(&b, template, users)
	return b.String()
}

// WriteTo streams the rendered configuration to w.
func (r *Renderer) WriteTo(w io.Writer, template string, users []domain.ReconciledUser) error {
	if _, err := io.WriteString(w, template); err != nil {
		return fmt.Errorf("%w: template: %w", domain.ErrRender, err)
	}
	for _, u := range users {
		first, last := SplitName(u.FullName)
		_, err := fmt.Fprintf(w, userBlock,
			u.Username,
			u.Email,
			first,
			last,
			u.UID,
			r.primaryGroup,
			strings.Join(r.OtherGroups(u.RemoteUser), ", "),
			EncodePassword(u.Password),
			last,
			first,
		)
		if err != nil {
			return fmt.Errorf("%w: user %s: %w", domain.ErrRender, u.Username, err)
		}
	}
	return nil
}

// OtherGroups resolves the user's usable roles to non-zero group ids.
// Duplicate role names yield duplicate ids. The result is sorted as strings,
// so "10" sorts before "2"; GLAuth output has always been ordered this way.
func (r *Renderer) OtherGroups(u domain.RemoteUser) []string {
	groups := make([]string, 0, len(u.Roles))
	for _, name := range u.Roles {
		role, ok := r.roles[name]
		if !ok {
			continue
		}
		if gid := role.GID(); gid > 0 {
			groups = append(groups, strconv.FormatUint(gid, 10))
		}
	}
	sort.Strings(groups)
	return groups
}

// SplitName splits a full name into the first word and the remaining words.
func SplitName(fullName string) (first, last string) {
	words := strings.Fields(fullName)
	if len(words) == 0 {
		return "", ""
	}
	return words[0], strings.Join(words[1:], " ")
}

// EncodePassword renders the stored secret in the passbcrypt field format:
// upper-case hex of its raw bytes.
func EncodePassword(secret string) string {
	return strings.ToUpper(hex.EncodeToString([]byte(secret)))
}
