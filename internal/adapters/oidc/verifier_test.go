package oidc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neighborcast/neighborcast-api/internal/ports"
)

const testIssuer = "https://idp.example.com"

var verifyNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// unsignedToken builds a compact JWS with a placeholder signature.
func unsignedToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	header, err := json.Marshal(map[string]string{"alg": "RS256", "typ": "JWT"})
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	enc := base64.RawURLEncoding
	return enc.EncodeToString(header) + "." + enc.EncodeToString(payload) + "." + enc.EncodeToString([]byte("sig"))
}

func newTestVerifier() *Verifier {
	v := gooidc.NewVerifier(testIssuer, nil, &gooidc.Config{
		ClientID:                   "neighborcast",
		InsecureSkipSignatureCheck: true,
		Now:                        func() time.Time { return verifyNow },
	})
	return newVerifierFrom(v, nil)
}

func baseClaims() map[string]any {
	return map[string]any{
		"iss": testIssuer,
		"aud": "neighborcast",
		"sub": "abc-123",
		"exp": verifyNow.Add(time.Hour).Unix(),
		"iat": verifyNow.Add(-time.Minute).Unix(),
	}
}

func TestNewVerifier_Discovery(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                 srv.URL,
			"authorization_endpoint": srv.URL + "/auth",
			"token_endpoint":         srv.URL + "/token",
			"jwks_uri":               srv.URL + "/jwks",
		})
	}))
	defer srv.Close()

	v, err := NewVerifier(context.Background(), VerifierConfig{
		ClientID:     "neighborcast",
		DiscoveryURL: srv.URL + "/.well-known/openid-configuration",
		HTTPClient:   srv.Client(),
	})
	require.NoError(t, err)
	assert.NotNil(t, v)
}

func TestNewVerifier_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		cfg    VerifierConfig
		errMsg string
	}{
		{"missing client ID", VerifierConfig{DiscoveryURL: "http://example.com"}, "client ID is required"},
		{"missing discovery URL", VerifierConfig{ClientID: "c"}, "discovery URL is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewVerifier(context.Background(), tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNewVerifier_DiscoveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewVerifier(context.Background(), VerifierConfig{
		ClientID:     "c",
		DiscoveryURL: srv.URL,
		HTTPClient:   srv.Client(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oidc new provider")
}

func TestVerifier_Verify(t *testing.T) {
	claims := baseClaims()
	claims["samaccountname"] = "jdoe"
	claims["mail"] = "jdoe@example.com"
	claims["memberof"] = []string{"neighborcast-admins"}

	id, err := newTestVerifier().Verify(context.Background(), unsignedToken(t, claims))
	require.NoError(t, err)
	assert.Equal(t, "jdoe", id.UserID)
	assert.Equal(t, "jdoe@example.com", id.Email)
	assert.Equal(t, []string{"neighborcast-admins"}, id.Groups)
	assert.True(t, id.ExpiresAt.Equal(verifyNow.Add(time.Hour)))
}

func TestVerifier_VerifyStandardClaims(t *testing.T) {
	claims := baseClaims()
	claims["email"] = "user@example.com"
	claims["groups"] = []string{"neighborcast-users"}

	id, err := newTestVerifier().Verify(context.Background(), unsignedToken(t, claims))
	require.NoError(t, err)
	assert.Equal(t, "abc-123", id.UserID)
	assert.Equal(t, "user@example.com", id.Email)
	assert.Equal(t, []string{"neighborcast-users"}, id.Groups)
}

func TestVerifier_Rejects(t *testing.T) {
	expired := baseClaims()
	expired["exp"] = verifyNow.Add(-time.Minute).Unix()

	wrongAud := baseClaims()
	wrongAud["aud"] = "someone-else"

	wrongIssuer := baseClaims()
	wrongIssuer["iss"] = "https://evil.example.com"

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"expired", unsignedToken(t, expired)},
		{"wrong audience", unsignedToken(t, wrongAud)},
		{"wrong issuer", unsignedToken(t, wrongIssuer)},
	}
	v := newTestVerifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, ports.ErrInvalidToken)
		})
	}
}

func TestMapClaims_Precedence(t *testing.T) {
	id := mapClaims(idTokenClaims{
		Sub:            "sub",
		SamAccountName: "sam",
		Email:          "e@x",
		Mail:           "m@x",
		Groups:         []string{"g"},
		MemberOf:       []string{"m"},
	})
	assert.Equal(t, "sam", id.UserID)
	assert.Equal(t, "m@x", id.Email)
	assert.Equal(t, []string{"m"}, id.Groups)
}

func TestIssuerFromDiscoveryURL(t *testing.T) {
	assert.Equal(t, "https://idp", issuerFromDiscoveryURL("https://idp/.well-known/openid-configuration"))
	assert.Equal(t, "https://idp", issuerFromDiscoveryURL("https://idp/"))
}
