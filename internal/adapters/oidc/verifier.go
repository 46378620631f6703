// Package oidc verifies bearer ID tokens issued by an OIDC provider.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/neighborcast/neighborcast-api/internal/domain/auth"
	"github.com/neighborcast/neighborcast-api/internal/ports"
)

// Verifier implements ports.TokenVerifier on top of go-oidc.
type Verifier struct {
	verifier   *gooidc.IDTokenVerifier
	httpClient *http.Client
}

// VerifierConfig holds configuration for the OIDC verifier.
type VerifierConfig struct {
	ClientID     string
	DiscoveryURL string
	HTTPClient   *http.Client // Optional, defaults to a client with a 30s timeout
}

// NewVerifier fetches the discovery document once and builds an ID token verifier.
func NewVerifier(ctx context.Context, cfg VerifierConfig) (*Verifier, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if cfg.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	op, err := gooidc.NewProvider(ctx, issuerFromDiscoveryURL(cfg.DiscoveryURL))
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	return &Verifier{
		verifier:   op.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
		httpClient: httpClient,
	}, nil
}

// newVerifierFrom wraps an already configured go-oidc verifier.
func newVerifierFrom(v *gooidc.IDTokenVerifier, httpClient *http.Client) *Verifier {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Verifier{verifier: v, httpClient: httpClient}
}

// Verify checks the token's signature, issuer, audience and expiry and maps its claims.
// Any rejection wraps ports.ErrInvalidToken.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (domainauth.Identity, error) {
	if strings.TrimSpace(rawToken) == "" {
		return domainauth.Identity{}, fmt.Errorf("%w: empty token", ports.ErrInvalidToken)
	}

	// Key set refreshes use the configured client.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, v.httpClient)
	idTok, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("%w: %w", ports.ErrInvalidToken, err)
	}

	var c idTokenClaims
	if claimsErr := idTok.Claims(&c); claimsErr != nil {
		return domainauth.Identity{}, fmt.Errorf("%w: parse claims: %w", ports.ErrInvalidToken, claimsErr)
	}

	id := mapClaims(c)
	if id.UserID == "" {
		return domainauth.Identity{}, fmt.Errorf("%w: token has no subject", ports.ErrInvalidToken)
	}
	id.ExpiresAt = idTok.Expiry
	return id, nil
}

// idTokenClaims covers both plain OIDC and AD/ADFS claim shapes.
type idTokenClaims struct {
	Sub            string   `json:"sub"`
	SamAccountName string   `json:"samaccountname"`
	Email          string   `json:"email"`
	Mail           string   `json:"mail"`
	Groups         []string `json:"groups"`
	MemberOf       []string `json:"memberof"`
}

// mapClaims prefers the AD shape and falls back to standard claims.
func mapClaims(c idTokenClaims) domainauth.Identity {
	groups := c.MemberOf
	if len(groups) == 0 {
		groups = c.Groups
	}
	return domainauth.Identity{
		UserID: firstNonEmpty(c.SamAccountName, c.Sub),
		Email:  firstNonEmpty(c.Mail, c.Email),
		Groups: append([]string(nil), groups...),
	}
}

func issuerFromDiscoveryURL(u string) string {
	issuer := strings.TrimSuffix(u, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	return issuer
}

// firstNonEmpty returns the first non-empty string from vals, or empty string if none.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
