package application

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/lingua-cli/internal/domain"
	"github.com/bnema/lingua-cli/internal/ports"
	"github.com/rs/zerolog"
)

const defaultSafetyMargin = 45 * time.Second

// TokenManager is the only mutable shared state in the core: an in-memory
// cache of bearer tokens keyed by credential name. Tokens are never written
// to disk and never logged.
type TokenManager struct {
	exchanger ports.TokenExchanger
	clock     ports.Clock
	margin    time.Duration
	log       zerolog.Logger

	mu      sync.Mutex
	entries map[string]*tokenState
}

// tokenState holds the cached token for one credential entry. The token
// pointer gives callers a lock-free fast path; mu serializes the
// check-exchange-store sequence so concurrent refreshes cannot race.
type tokenState struct {
	mu    sync.Mutex
	token atomic.Pointer[domain.Token]
}

var _ ports.TokenSource = (*TokenManager)(nil)

func NewTokenManager(exchanger ports.TokenExchanger, clock ports.Clock, margin time.Duration, log zerolog.Logger) *TokenManager {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if margin <= 0 {
		margin = defaultSafetyMargin
	}

	return &TokenManager{
		exchanger: exchanger,
		clock:     clock,
		margin:    margin,
		log:       log,
		entries:   make(map[string]*tokenState),
	}
}

// Token returns a currently-valid bearer token for entry, exchanging the
// entry's API key when the cache is empty, expired, or within the safety
// margin of expiring.
func (m *TokenManager) Token(ctx context.Context, entry domain.CredentialEntry) (string, error) {
	state := m.state(entry.Name)

	if token := state.token.Load(); token != nil && token.Fresh(m.clock.Now(), m.margin) {
		return token.Value, nil
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	// Another caller may have refreshed while this one waited for the lock.
	if token := state.token.Load(); token != nil && token.Fresh(m.clock.Now(), m.margin) {
		return token.Value, nil
	}

	// A refresh in progress completes for the benefit of whichever caller
	// arrives next, so the exchange is not tied to this caller's
	// cancellation; the exchanger applies its own bounded timeout.
	token, err := m.exchanger.Exchange(context.WithoutCancel(ctx), entry.APIKey)
	if err != nil {
		return "", err
	}

	state.token.Store(&token)
	m.log.Debug().Str("credential", entry.Name).Time("expires_at", token.ExpiresAt).Msg("bearer token refreshed")

	return token.Value, nil
}

// Invalidate discards the cached token for entry. A caller that saw the
// downstream service reject the token calls this so the next Token call
// re-exchanges instead of returning a token the service already refused.
func (m *TokenManager) Invalidate(entry domain.CredentialEntry) {
	m.state(entry.Name).token.Store(nil)
	m.log.Debug().Str("credential", entry.Name).Msg("bearer token invalidated")
}

func (m *TokenManager) state(name string) *tokenState {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.entries[name]
	if !ok {
		state = &tokenState{}
		m.entries[name] = state
	}
	return state
}
