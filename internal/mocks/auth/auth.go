package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/neighborcast/neighborcast-api/internal/domain/auth"
	"github.com/neighborcast/neighborcast-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.TokenVerifier = (*StaticTokenVerifier)(nil)
	_ ports.RoleMapper    = (*StaticRoleMapper)(nil)
)

// StaticTokenVerifier maps known tokens to identities; anything else is rejected.
type StaticTokenVerifier struct {
	VerifyFunc func(ctx context.Context, rawToken string) (domainauth.Identity, error)

	mu     sync.Mutex
	tokens map[string]domainauth.Identity
	calls  int
}

// NewStaticTokenVerifier creates a verifier with no known tokens.
func NewStaticTokenVerifier() *StaticTokenVerifier {
	return &StaticTokenVerifier{tokens: make(map[string]domainauth.Identity)}
}

// Add registers token as resolving to an identity for userID with the given groups.
func (m *StaticTokenVerifier) Add(token, userID string, groups ...string) *StaticTokenVerifier {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		m.tokens = make(map[string]domainauth.Identity)
	}
	m.tokens[token] = domainauth.Identity{
		UserID:    userID,
		Email:     userID + "@example.com",
		Groups:    groups,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	return m
}

func (m *StaticTokenVerifier) Verify(ctx context.Context, rawToken string) (domainauth.Identity, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, rawToken)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.tokens[rawToken]
	if !ok {
		return domainauth.Identity{}, fmt.Errorf("%w: unknown test token", ports.ErrInvalidToken)
	}
	return id, nil
}

// Calls returns how many times Verify was invoked.
func (m *StaticTokenVerifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// StaticRoleMapper provides a simple role mapping for tests.
type StaticRoleMapper struct {
	AdminGroup string
	UserGroup  string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	for _, g := range groups {
		if g == m.AdminGroup && g != "" {
			return domainauth.RoleAdmin
		}
	}
	for _, g := range groups {
		if g == m.UserGroup && g != "" {
			return domainauth.RoleUser
		}
	}
	return domainauth.RoleGuest
}
