package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neighborcast/neighborcast-api/config"
	"github.com/neighborcast/neighborcast-api/internal/adapters/authroles"
	"github.com/neighborcast/neighborcast-api/internal/adapters/devauth"
	"github.com/neighborcast/neighborcast-api/internal/adapters/oidc"
	"github.com/neighborcast/neighborcast-api/internal/ports"
)

// AuthConfig contains configuration for the identity check.
type AuthConfig struct {
	Auth   config.AuthConfig
	Logger *slog.Logger
}

// AuthComponents are the verifier and role mapper used by the HTTP layer.
type AuthComponents struct {
	Verifier ports.TokenVerifier
	Roles    ports.RoleMapper
}

// BuildAuth creates the token verifier for the configured auth mode.
// OAuth mode fetches the provider's discovery document, so ctx bounds that call.
func BuildAuth(ctx context.Context, cfg AuthConfig) (AuthComponents, error) {
	roles := authroles.StaticRoleMapper{
		AdminGroup:    cfg.Auth.AdminGroup,
		ExecutorGroup: cfg.Auth.ExecutorGroup,
		UserGroup:     cfg.Auth.UserGroup,
	}

	var (
		verifier ports.TokenVerifier
		err      error
	)
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		verifier, err = buildDevVerifier(cfg)
	case config.AuthModeOAuth:
		verifier, err = buildOIDCVerifier(ctx, cfg)
	default:
		err = fmt.Errorf("unknown auth mode %q", cfg.Auth.Mode)
	}
	if err != nil {
		return AuthComponents{}, err
	}
	return AuthComponents{Verifier: verifier, Roles: roles}, nil
}

func buildDevVerifier(cfg AuthConfig) (*devauth.Verifier, error) {
	v, err := devauth.NewVerifier(devauth.Config{
		Token:  cfg.Auth.DevAuth.Token,
		UserID: cfg.Auth.DevAuth.UserID,
		Email:  cfg.Auth.DevAuth.Email,
		Groups: cfg.Auth.DevAuth.Groups,
		TTL:    cfg.Auth.DevAuth.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("create dev auth verifier: %w", err)
	}
	if cfg.Logger != nil {
		cfg.Logger.Warn("dev auth enabled; a single static bearer token is accepted",
			"user_id", cfg.Auth.DevAuth.UserID)
	}
	return v, nil
}

func buildOIDCVerifier(ctx context.Context, cfg AuthConfig) (*oidc.Verifier, error) {
	v, err := oidc.NewVerifier(ctx, oidc.VerifierConfig{
		ClientID:     cfg.Auth.OAuth.ClientID,
		DiscoveryURL: cfg.Auth.OAuth.DiscoveryURL,
	})
	if err != nil {
		return nil, fmt.Errorf("create oidc verifier: %w", err)
	}
	if cfg.Logger != nil {
		cfg.Logger.InfoContext(ctx, "oidc verifier ready", "client_id", cfg.Auth.OAuth.ClientID)
	}
	return v, nil
}
