// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; enforcement in internal/http.
package ports

import (
	"context"
	"errors"

	domainauth "github.com/neighborcast/neighborcast-api/internal/domain/auth"
)

// ErrInvalidToken is returned by a TokenVerifier for a missing, malformed,
// expired or otherwise rejected bearer token.
var ErrInvalidToken = errors.New("invalid bearer token")

// TokenVerifier is the identity-check capability: it resolves a bearer token
// to an authenticated identity or rejects it.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (domainauth.Identity, error)
}

// RoleMapper maps provider groups to application roles.
type RoleMapper interface {
	Map(groups []string) domainauth.Role
}
