package config

import (
	"fmt"
	"strings"
)

// AuthMode represents the API authentication mode.
type AuthMode string

const (
	// AuthModeNone disables API authentication (development only).
	AuthModeNone AuthMode = "none"
	// AuthModeStatic accepts a static list of bearer tokens.
	AuthModeStatic AuthMode = "static"
	// AuthModeOIDC verifies bearer tokens against an OIDC issuer.
	AuthModeOIDC AuthMode = "oidc"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "none", "static", "oidc":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: none, static, oidc)", v)
	}
}

// OIDCConfig contains OIDC token verification configuration.
type OIDCConfig struct {
	Issuer   string `env:"ISSUER"`
	ClientID string `env:"CLIENT_ID" envDefault:"publisher"`
}

// StaticAuthConfig controls static bearer tokens.
// Used when AUTH_MODE=static for development and testing.
type StaticAuthConfig struct {
	Tokens []string `env:"TOKENS" envSeparator:";"`
}

// AuthConfig groups all API authentication configuration.
type AuthConfig struct {
	// Mode determines which token verifier to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"none"`

	// OIDC configuration (used when Mode=oidc).
	OIDC OIDCConfig `envPrefix:"OIDC_"`

	// Static configuration (used when Mode=static).
	Static StaticAuthConfig `envPrefix:"STATIC_AUTH_"`
}
