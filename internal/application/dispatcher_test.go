package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bnema/lingua-cli/internal/domain"
	"github.com/bnema/lingua-cli/internal/ports"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	fragments []string
}

func (s *recordingSink) Fragment(text string) error {
	s.fragments = append(s.fragments, text)
	return nil
}

func (s *recordingSink) String() string {
	return strings.Join(s.fragments, "")
}

type fakeHandler struct {
	requests []ports.HandlerRequest
	respond  func(call int, req ports.HandlerRequest, sink ports.Sink) error
}

func (h *fakeHandler) Stream(_ context.Context, req ports.HandlerRequest, sink ports.Sink) error {
	h.requests = append(h.requests, req)
	return h.respond(len(h.requests), req, sink)
}

type fakeTokens struct {
	values      []string
	calls       int
	invalidated int
	err         error
}

func (f *fakeTokens) Token(context.Context, domain.CredentialEntry) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.calls++
	if f.calls > len(f.values) {
		return f.values[len(f.values)-1], nil
	}
	return f.values[f.calls-1], nil
}

func (f *fakeTokens) Invalidate(domain.CredentialEntry) {
	f.invalidated++
}

func newTestDispatcher(entries []domain.CredentialEntry, tokens ports.TokenSource, handlers map[domain.CredentialKind]ports.Handler, override string) *Dispatcher {
	return NewDispatcher(DispatcherDeps{
		Resolver:      NewResolver(entries),
		Tokens:        tokens,
		Handlers:      handlers,
		ModelOverride: override,
		Log:           zerolog.Nop(),
	})
}

func TestDispatchHostedPassesAPIKey(t *testing.T) {
	t.Parallel()

	handler := &fakeHandler{respond: func(_ int, _ ports.HandlerRequest, sink ports.Sink) error {
		return sink.Fragment("hello")
	}}
	tokens := &fakeTokens{}
	dispatcher := newTestDispatcher(
		[]domain.CredentialEntry{{Name: "OPENAI", Pattern: "gpt-", Kind: domain.KindHosted, BaseURL: "https://api.example.com", APIKey: "sk-123"}},
		tokens,
		map[domain.CredentialKind]ports.Handler{domain.KindHosted: handler},
		"",
	)

	sink := &recordingSink{}
	err := dispatcher.Dispatch(context.Background(), domain.ChatRequest{Model: "gpt-4o", Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}}}, sink)
	require.NoError(t, err)

	require.Len(t, handler.requests, 1)
	assert.Equal(t, "sk-123", handler.requests[0].Secret)
	assert.Equal(t, "gpt-4o", handler.requests[0].Model)
	assert.Equal(t, "hello", sink.String())
	assert.Zero(t, tokens.calls, "hosted routes never touch the token source")
}

func TestDispatchLocalSendsNoSecret(t *testing.T) {
	t.Parallel()

	handler := &fakeHandler{respond: func(int, ports.HandlerRequest, ports.Sink) error { return nil }}
	dispatcher := newTestDispatcher(
		[]domain.CredentialEntry{{Name: "OLLAMA", Pattern: "llama3.1:8b", Exact: true, Kind: domain.KindLocal, BaseURL: "http://localhost:11434"}},
		&fakeTokens{},
		map[domain.CredentialKind]ports.Handler{domain.KindLocal: handler},
		"",
	)

	err := dispatcher.Dispatch(context.Background(), domain.ChatRequest{Model: "llama3.1:8b"}, &recordingSink{})
	require.NoError(t, err)
	require.Len(t, handler.requests, 1)
	assert.Empty(t, handler.requests[0].Secret)
}

func TestDispatchTokenAuthObtainsBearerToken(t *testing.T) {
	t.Parallel()

	handler := &fakeHandler{respond: func(int, ports.HandlerRequest, ports.Sink) error { return nil }}
	tokens := &fakeTokens{values: []string{"T1"}}
	dispatcher := newTestDispatcher(
		[]domain.CredentialEntry{{Name: "IBM", Pattern: "ibm/", Kind: domain.KindTokenAuth, BaseURL: "https://us-south.ml.cloud.ibm.com", APIKey: "key", ProjectID: "proj-1"}},
		tokens,
		map[domain.CredentialKind]ports.Handler{domain.KindTokenAuth: handler},
		"",
	)

	err := dispatcher.Dispatch(context.Background(), domain.ChatRequest{Model: "ibm/granite-4-h-small"}, &recordingSink{})
	require.NoError(t, err)
	require.Len(t, handler.requests, 1)
	assert.Equal(t, "T1", handler.requests[0].Secret)
	assert.Equal(t, "proj-1", handler.requests[0].ProjectID)
}

func TestDispatchRetriesOnceAfterDownstreamAuthRejection(t *testing.T) {
	t.Parallel()

	handler := &fakeHandler{respond: func(call int, req ports.HandlerRequest, sink ports.Sink) error {
		if call == 1 {
			return fmt.Errorf("watsonx chat stream: %w", &domain.UpstreamStatusError{Status: 401, Body: "token expired"})
		}
		return sink.Fragment("Bonjour")
	}}
	tokens := &fakeTokens{values: []string{"stale", "fresh"}}
	dispatcher := newTestDispatcher(
		[]domain.CredentialEntry{{Name: "IBM", Pattern: "meta-llama/", Kind: domain.KindTokenAuth, APIKey: "key"}},
		tokens,
		map[domain.CredentialKind]ports.Handler{domain.KindTokenAuth: handler},
		"",
	)

	sink := &recordingSink{}
	err := dispatcher.Dispatch(context.Background(), domain.ChatRequest{Model: "meta-llama/llama-3-3-70b-instruct"}, sink)
	require.NoError(t, err, "the caller observes one successful response; the intermediate failure is invisible")

	require.Len(t, handler.requests, 2)
	assert.Equal(t, "stale", handler.requests[0].Secret)
	assert.Equal(t, "fresh", handler.requests[1].Secret)
	assert.Equal(t, 1, tokens.invalidated)
	assert.Equal(t, "Bonjour", sink.String())
}

func TestDispatchSurfacesSecondAuthRejection(t *testing.T) {
	t.Parallel()

	handler := &fakeHandler{respond: func(int, ports.HandlerRequest, ports.Sink) error {
		return &domain.UpstreamStatusError{Status: 401}
	}}
	tokens := &fakeTokens{values: []string{"T1", "T2"}}
	dispatcher := newTestDispatcher(
		[]domain.CredentialEntry{{Name: "IBM", Pattern: "ibm/", Kind: domain.KindTokenAuth, APIKey: "key"}},
		tokens,
		map[domain.CredentialKind]ports.Handler{domain.KindTokenAuth: handler},
		"",
	)

	err := dispatcher.Dispatch(context.Background(), domain.ChatRequest{Model: "ibm/granite-4-h-small"}, &recordingSink{})
	require.ErrorIs(t, err, domain.ErrHandlerFailure)
	assert.Len(t, handler.requests, 2, "a second failure is surfaced, not retried further")
	assert.Equal(t, 1, tokens.invalidated)
}

func TestDispatchDoesNotRetryNonAuthFailures(t *testing.T) {
	t.Parallel()

	handler := &fakeHandler{respond: func(int, ports.HandlerRequest, ports.Sink) error {
		return &domain.UpstreamStatusError{Status: 500, Body: "internal"}
	}}
	tokens := &fakeTokens{values: []string{"T1"}}
	dispatcher := newTestDispatcher(
		[]domain.CredentialEntry{{Name: "IBM", Pattern: "ibm/", Kind: domain.KindTokenAuth, APIKey: "key"}},
		tokens,
		map[domain.CredentialKind]ports.Handler{domain.KindTokenAuth: handler},
		"",
	)

	err := dispatcher.Dispatch(context.Background(), domain.ChatRequest{Model: "ibm/granite-4-h-small"}, &recordingSink{})
	require.ErrorIs(t, err, domain.ErrHandlerFailure)
	assert.Len(t, handler.requests, 1)
	assert.Zero(t, tokens.invalidated)
}

func TestDispatchHostedAuthFailureIsNotRetried(t *testing.T) {
	t.Parallel()

	handler := &fakeHandler{respond: func(int, ports.HandlerRequest, ports.Sink) error {
		return &domain.UpstreamStatusError{Status: 401}
	}}
	dispatcher := newTestDispatcher(
		[]domain.CredentialEntry{{Name: "OPENAI", Pattern: "gpt-", Kind: domain.KindHosted, APIKey: "sk-bad"}},
		&fakeTokens{},
		map[domain.CredentialKind]ports.Handler{domain.KindHosted: handler},
		"",
	)

	err := dispatcher.Dispatch(context.Background(), domain.ChatRequest{Model: "gpt-4o"}, &recordingSink{})
	require.ErrorIs(t, err, domain.ErrHandlerFailure)
	assert.Len(t, handler.requests, 1, "static keys cannot be refreshed; the failure is surfaced directly")
}

func TestDispatchUnknownModelSkipsHandlers(t *testing.T) {
	t.Parallel()

	handler := &fakeHandler{respond: func(int, ports.HandlerRequest, ports.Sink) error { return nil }}
	dispatcher := newTestDispatcher(
		[]domain.CredentialEntry{{Name: "OPENAI", Pattern: "gpt-", Kind: domain.KindHosted, APIKey: "sk"}},
		&fakeTokens{},
		map[domain.CredentialKind]ports.Handler{domain.KindHosted: handler},
		"",
	)

	err := dispatcher.Dispatch(context.Background(), domain.ChatRequest{Model: "unknown-model"}, &recordingSink{})
	require.ErrorIs(t, err, domain.ErrUnknownModel)
	assert.Empty(t, handler.requests)
}

func TestDispatchPropagatesExchangeFailureWithoutWrapping(t *testing.T) {
	t.Parallel()

	authErr := &domain.AuthError{Kind: domain.ErrExchangeRejected, Status: 400}
	dispatcher := newTestDispatcher(
		[]domain.CredentialEntry{{Name: "IBM", Pattern: "ibm/", Kind: domain.KindTokenAuth, APIKey: "key"}},
		&fakeTokens{err: authErr},
		map[domain.CredentialKind]ports.Handler{domain.KindTokenAuth: &fakeHandler{respond: func(int, ports.HandlerRequest, ports.Sink) error { return nil }}},
		"",
	)

	err := dispatcher.Dispatch(context.Background(), domain.ChatRequest{Model: "ibm/granite-4-h-small"}, &recordingSink{})
	require.ErrorIs(t, err, domain.ErrExchangeRejected)

	var dispatchErr *domain.DispatchError
	assert.False(t, errors.As(err, &dispatchErr), "token acquisition failures are not dispatch errors")
}

func TestDispatchMapsDeadlineToTimeout(t *testing.T) {
	t.Parallel()

	handler := &fakeHandler{respond: func(int, ports.HandlerRequest, ports.Sink) error {
		return fmt.Errorf("chat completions: %w", context.DeadlineExceeded)
	}}
	dispatcher := newTestDispatcher(
		[]domain.CredentialEntry{{Name: "OPENAI", Pattern: "gpt-", Kind: domain.KindHosted, APIKey: "sk"}},
		&fakeTokens{},
		map[domain.CredentialKind]ports.Handler{domain.KindHosted: handler},
		"",
	)

	err := dispatcher.Dispatch(context.Background(), domain.ChatRequest{Model: "gpt-4o"}, &recordingSink{})
	require.ErrorIs(t, err, domain.ErrDispatchTimeout)
}

func TestDispatchModelOverrideRedirectsRouting(t *testing.T) {
	t.Parallel()

	handler := &fakeHandler{respond: func(int, ports.HandlerRequest, ports.Sink) error { return nil }}
	tokens := &fakeTokens{values: []string{"T1"}}
	dispatcher := newTestDispatcher(
		[]domain.CredentialEntry{
			{Name: "OPENAI", Pattern: "gpt-", Kind: domain.KindHosted, APIKey: "sk"},
			{Name: "IBM", Pattern: "ibm/", Kind: domain.KindTokenAuth, APIKey: "key"},
		},
		tokens,
		map[domain.CredentialKind]ports.Handler{
			domain.KindHosted:    &fakeHandler{respond: func(int, ports.HandlerRequest, ports.Sink) error { return nil }},
			domain.KindTokenAuth: handler,
		},
		"ibm/granite-4-h-small",
	)

	err := dispatcher.Dispatch(context.Background(), domain.ChatRequest{Model: "gpt-4o"}, &recordingSink{})
	require.NoError(t, err)
	require.Len(t, handler.requests, 1)
	assert.Equal(t, "ibm/granite-4-h-small", handler.requests[0].Model)
}
