package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth verifies bearer ID tokens against an OIDC provider.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock accepts a single static dev token (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// OAuthConfig contains OIDC token verification configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"neighborcast"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	Token  string        `env:"TOKEN"`
	UserID string        `env:"USER_ID" envDefault:"dev-user"`
	Email  string        `env:"EMAIL"   envDefault:"dev@example.com"`
	Groups []string      `env:"GROUPS"  envDefault:"admins"          envSeparator:";"`
	TTL    time.Duration `env:"TTL"     envDefault:"8h"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which token verifier to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// AdminGroup is the LDAP/AD group DN for admin users.
	AdminGroup string `env:"ADMIN_GROUP,required"`

	// UserGroup is the LDAP/AD group DN for regular users.
	UserGroup string `env:"USER_GROUP,required"`

	// ExecutorGroup is the group of the worker service account allowed to
	// claim and transition jobs. Empty leaves executor routes to admins.
	ExecutorGroup string `env:"EXECUTOR_GROUP"`
}

// Sanitize trims identity fields.
func (c *AuthConfig) Sanitize() {
	c.OAuth.ClientID = strings.TrimSpace(c.OAuth.ClientID)
	c.OAuth.DiscoveryURL = strings.TrimSpace(c.OAuth.DiscoveryURL)
	c.DevAuth.Groups = trimList(c.DevAuth.Groups)
	c.AdminGroup = strings.TrimSpace(c.AdminGroup)
	c.UserGroup = strings.TrimSpace(c.UserGroup)
	c.ExecutorGroup = strings.TrimSpace(c.ExecutorGroup)
}

// Validate checks that the selected mode is fully configured.
func (c *AuthConfig) Validate() error {
	switch c.Mode {
	case AuthModeOAuth:
		if c.OAuth.ClientID == "" || c.OAuth.DiscoveryURL == "" {
			return errors.New("AUTH_MODE=oauth requires OAUTH_CLIENT_ID and OAUTH_DISCOVERY_URL")
		}
	case AuthModeMock:
		if c.DevAuth.Token == "" {
			return errors.New("AUTH_MODE=mock requires DEV_AUTH_TOKEN")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.Mode)
	}
	return nil
}
