package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neighborcast/neighborcast-api/config"
	domainauth "github.com/neighborcast/neighborcast-api/internal/domain/auth"
)

func TestBuildAuth_MockMode(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	comps, err := BuildAuth(context.Background(), AuthConfig{
		Auth: config.AuthConfig{
			Mode:       config.AuthModeMock,
			AdminGroup: "admins",
			UserGroup:  "users",
			DevAuth: config.DevAuthConfig{
				Token:  "dev-token",
				UserID: "dev",
				Email:  "dev@example.com",
				Groups: []string{"admins"},
			},
		},
		Logger: logger,
	})
	require.NoError(t, err)

	id, err := comps.Verifier.Verify(context.Background(), "dev-token")
	require.NoError(t, err)
	assert.Equal(t, "dev", id.UserID)
	assert.Equal(t, domainauth.RoleAdmin, comps.Roles.Map(id.Groups))

	_, err = comps.Verifier.Verify(context.Background(), "other")
	assert.Error(t, err)
}

func TestBuildAuth_Errors(t *testing.T) {
	tests := []struct {
		name string
		auth config.AuthConfig
		want string
	}{
		{
			name: "mock without token",
			auth: config.AuthConfig{Mode: config.AuthModeMock, DevAuth: config.DevAuthConfig{UserID: "dev"}},
			want: "create dev auth verifier",
		},
		{
			name: "oauth without discovery url",
			auth: config.AuthConfig{Mode: config.AuthModeOAuth, OAuth: config.OAuthConfig{ClientID: "neighborcast"}},
			want: "create oidc verifier",
		},
		{
			name: "unknown mode",
			auth: config.AuthConfig{Mode: "saml"},
			want: "unknown auth mode",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildAuth(context.Background(), AuthConfig{Auth: tt.auth})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
