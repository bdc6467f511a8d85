// Package devauth provides a simple, config-driven token verifier for local
// development. Tokens are compared against a static allow list.
package devauth

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/botstack/publisher/internal/core"
)

// Config controls the dev verifier.
type Config struct {
	// Tokens is the set of accepted bearer tokens.
	Tokens []string
}

// Provider implements core.TokenVerifier against a static token set.
type Provider struct {
	tokens []string
}

var _ core.TokenVerifier = (*Provider)(nil)

// NewProvider constructs a dev verifier from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if len(cfg.Tokens) == 0 {
		return nil, errors.New("dev auth: at least one token is required")
	}
	for _, tok := range cfg.Tokens {
		if tok == "" {
			return nil, errors.New("dev auth: empty token in allow list")
		}
	}
	return &Provider{tokens: append([]string(nil), cfg.Tokens...)}, nil
}

// Verify accepts the token when it matches any configured token. Comparison
// is constant time per candidate.
func (p *Provider) Verify(_ context.Context, token string) error {
	if token == "" {
		return errors.New("empty bearer token")
	}
	for _, candidate := range p.tokens {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(token)) == 1 {
			return nil
		}
	}
	return errors.New("unknown bearer token")
}
