package models

import "strings"

// MemberInfo is a best-effort snapshot of a guild member's role names, used
// by the expiry sweep to avoid refetching full member lists. It is never a
// source of truth for permission decisions and can be rebuilt from the live
// membership at any time.
type MemberInfo struct {
	GuildID string `gorm:"primaryKey;size:32"`
	UserID  string `gorm:"primaryKey;size:32"`
	Roles   string `gorm:"type:text"` // comma-joined role names
}

// RoleNames splits the stored snapshot into individual role names.
func (m *MemberInfo) RoleNames() []string {
	if m.Roles == "" {
		return nil
	}
	parts := strings.Split(m.Roles, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

// HasRole reports whether the snapshot contains the given role name.
func (m *MemberInfo) HasRole(name string) bool {
	for _, r := range m.RoleNames() {
		if r == name {
			return true
		}
	}
	return false
}
