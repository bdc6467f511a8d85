package devauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_RequiresTokens(t *testing.T) {
	_, err := NewProvider(Config{})
	assert.Error(t, err)

	_, err = NewProvider(Config{Tokens: []string{"ok", ""}})
	assert.Error(t, err)
}

func TestProvider_VerifyKnownToken(t *testing.T) {
	p, err := NewProvider(Config{Tokens: []string{"alpha", "beta"}})
	require.NoError(t, err)

	assert.NoError(t, p.Verify(context.Background(), "alpha"))
	assert.NoError(t, p.Verify(context.Background(), "beta"))
}

func TestProvider_VerifyRejectsUnknownAndEmpty(t *testing.T) {
	p, err := NewProvider(Config{Tokens: []string{"alpha"}})
	require.NoError(t, err)

	assert.Error(t, p.Verify(context.Background(), "gamma"))
	assert.Error(t, p.Verify(context.Background(), ""))
}
