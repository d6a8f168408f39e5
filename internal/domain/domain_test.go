package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialEntryMatchesPrefix(t *testing.T) {
	t.Parallel()

	entry := CredentialEntry{Pattern: "meta-llama/"}

	assert.True(t, entry.Matches("meta-llama/llama-3-3-70b-instruct"))
	assert.False(t, entry.Matches("mistralai/mistral-medium-2505"))
	assert.False(t, entry.Matches("meta"))
}

func TestCredentialEntryMatchesExact(t *testing.T) {
	t.Parallel()

	entry := CredentialEntry{Pattern: "llama3.1:8b", Exact: true}

	assert.True(t, entry.Matches("llama3.1:8b"))
	assert.False(t, entry.Matches("llama3.1:8b-instruct"))
}

func TestCredentialKindRequiresSecret(t *testing.T) {
	t.Parallel()

	assert.True(t, KindHosted.RequiresSecret())
	assert.True(t, KindTokenAuth.RequiresSecret())
	assert.False(t, KindLocal.RequiresSecret())
}

func TestTokenFreshBoundary(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	margin := 45 * time.Second

	beyond := Token{Value: "tok", ExpiresAt: now.Add(margin + time.Second)}
	assert.True(t, beyond.Fresh(now, margin))

	within := Token{Value: "tok", ExpiresAt: now.Add(margin - time.Second)}
	assert.False(t, within.Fresh(now, margin))

	exact := Token{Value: "tok", ExpiresAt: now.Add(margin)}
	assert.False(t, exact.Fresh(now, margin))

	empty := Token{ExpiresAt: now.Add(time.Hour)}
	assert.False(t, empty.Fresh(now, margin))
}

func TestConfigErrorNamesModel(t *testing.T) {
	t.Parallel()

	err := &ConfigError{Kind: ErrUnknownModel, Model: "unknown-model"}
	require.ErrorIs(t, err, ErrUnknownModel)
	assert.Contains(t, err.Error(), "unknown-model")

	withName := &ConfigError{Kind: ErrMissingSecret, Model: "ibm/granite-4-h-small", Name: "IBM"}
	require.ErrorIs(t, withName, ErrMissingSecret)
	assert.Contains(t, withName.Error(), "IBM")
}

func TestAuthErrorUnwrapsKindAndCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := &AuthError{Kind: ErrExchangeUnreachable, Err: cause}

	require.ErrorIs(t, err, ErrExchangeUnreachable)
	require.ErrorIs(t, err, cause)
}

func TestDispatchErrorUnwrapsKind(t *testing.T) {
	t.Parallel()

	cause := &UpstreamStatusError{Status: 500, Body: "boom"}
	err := &DispatchError{Kind: ErrHandlerFailure, Model: "gpt-4o", Err: cause}

	require.ErrorIs(t, err, ErrHandlerFailure)
	assert.Contains(t, err.Error(), "gpt-4o")

	var statusErr *UpstreamStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 500, statusErr.Status)
}

func TestIsAuthRejected(t *testing.T) {
	t.Parallel()

	assert.True(t, IsAuthRejected(&UpstreamStatusError{Status: 401}))
	assert.True(t, IsAuthRejected(&UpstreamStatusError{Status: 403}))
	assert.True(t, IsAuthRejected(fmt.Errorf("watsonx chat stream: %w", &UpstreamStatusError{Status: 401})))
	assert.False(t, IsAuthRejected(&UpstreamStatusError{Status: 500}))
	assert.False(t, IsAuthRejected(errors.New("plain failure")))
}
