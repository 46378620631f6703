package auth

// Package auth contains domain-level types for authentication and authorization.
// It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role.
type Role string

const (
	RoleAdmin Role = "admin"
	// RoleExecutor is held by the worker process that claims and transitions jobs.
	RoleExecutor Role = "executor"
	RoleUser     Role = "user"
	RoleGuest    Role = "guest"
)

// Identity represents the authenticated principal behind a bearer token.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string // stable user identifier (e.g., samAccountName or sub)
	Email     string
	Groups    []string
	ExpiresAt time.Time // absolute expiry from the token
}

// Principal is an identity together with its mapped role, as seen by handlers.
type Principal struct {
	Identity
	Role Role
}

// IsAdmin reports whether the principal may perform administrative actions.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// CanUse reports whether the principal has at least the user role.
func (p Principal) CanUse() bool { return p.Role != RoleGuest && p.Role != "" }
