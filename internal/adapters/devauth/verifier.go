// Package devauth provides a static bearer-token verifier for local development.
package devauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/neighborcast/neighborcast-api/internal/domain/auth"
	"github.com/neighborcast/neighborcast-api/internal/ports"
)

// Config controls the dev verifier.
// Token and UserID are required; Groups may be empty.
type Config struct {
	Token  string
	UserID string
	Email  string
	Groups []string
	TTL    time.Duration // reported identity lifetime, default 8h when zero
}

// Verifier accepts exactly one configured token and returns a fixed identity for it.
type Verifier struct {
	token    []byte
	identity domainauth.Identity
	ttl      time.Duration
	now      func() time.Time
}

// NewVerifier constructs a dev verifier from Config.
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.Token == "" {
		return nil, errors.New("dev auth: Token is required")
	}
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 8 * time.Hour
	}
	return &Verifier{
		token: []byte(cfg.Token),
		identity: domainauth.Identity{
			UserID: cfg.UserID,
			Email:  cfg.Email,
			Groups: append([]string(nil), cfg.Groups...),
		},
		ttl: ttl,
		now: time.Now,
	}, nil
}

// Verify compares the token in constant time.
func (v *Verifier) Verify(_ context.Context, rawToken string) (domainauth.Identity, error) {
	if subtle.ConstantTimeCompare([]byte(rawToken), v.token) != 1 {
		return domainauth.Identity{}, fmt.Errorf("%w: unknown dev token", ports.ErrInvalidToken)
	}
	id := v.identity
	id.Groups = append([]string(nil), v.identity.Groups...)
	id.ExpiresAt = v.now().Add(v.ttl)
	return id, nil
}
