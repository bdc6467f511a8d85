// Package oidc verifies API bearer tokens against an OIDC issuer.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"

	"github.com/botstack/publisher/internal/core"
)

// VerifierConfig holds configuration for the OIDC token verifier.
type VerifierConfig struct {
	// Issuer is the OIDC issuer URL; discovery happens once at construction.
	Issuer string

	// ClientID is the expected audience of presented tokens.
	ClientID string

	// HTTPClient is optional and defaults to a client with a 30s timeout.
	HTTPClient *http.Client
}

// Verifier implements core.TokenVerifier using go-oidc. Only verification is
// performed here; the publisher never runs an interactive OAuth flow, callers
// obtain tokens elsewhere and present them as bearer credentials.
type Verifier struct {
	verifier *gooidc.IDTokenVerifier
}

var _ core.TokenVerifier = (*Verifier)(nil)

// NewVerifier performs OIDC discovery and builds a token verifier.
func NewVerifier(ctx context.Context, cfg VerifierConfig) (*Verifier, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("oidc issuer is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("oidc client ID is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	provider, err := gooidc.NewProvider(gooidc.ClientContext(ctx, httpClient), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	return &Verifier{
		verifier: provider.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// Verify checks the token signature, expiry, issuer, and audience.
func (v *Verifier) Verify(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("empty bearer token")
	}
	if _, err := v.verifier.Verify(ctx, token); err != nil {
		return fmt.Errorf("verify bearer token: %w", err)
	}
	return nil
}
