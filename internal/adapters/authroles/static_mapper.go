// Package authroles maps identity-provider groups onto API roles.
package authroles

import (
	"strings"

	domainauth "github.com/neighborcast/neighborcast-api/internal/domain/auth"
)

// StaticRoleMapper grants roles from configured group names.
// Group names compare case-insensitively after trimming, since providers differ
// in how they render them. The highest matching role wins; no match is guest.
// An empty ExecutorGroup grants no executor role.
type StaticRoleMapper struct {
	AdminGroup    string
	ExecutorGroup string
	UserGroup     string
}

// Map implements ports.RoleMapper.
func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	admin := normalizeGroup(m.AdminGroup)
	executor := normalizeGroup(m.ExecutorGroup)
	user := normalizeGroup(m.UserGroup)
	role := domainauth.RoleGuest
	for _, g := range groups {
		switch normalizeGroup(g) {
		case "":
			continue
		case admin:
			return domainauth.RoleAdmin
		case executor:
			role = domainauth.RoleExecutor
		case user:
			if role == domainauth.RoleGuest {
				role = domainauth.RoleUser
			}
		}
	}
	return role
}

func normalizeGroup(g string) string {
	return strings.ToLower(strings.TrimSpace(g))
}
