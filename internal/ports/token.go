package ports

import (
	"context"

	"github.com/bnema/lingua-cli/internal/domain"
)

// TokenExchanger trades a long-lived API key for a short-lived bearer token.
type TokenExchanger interface {
	Exchange(ctx context.Context, apiKey string) (domain.Token, error)
}

// TokenSource produces a currently-valid bearer token for a token-auth
// credential entry, hiding acquisition and refresh from callers.
type TokenSource interface {
	// Token returns a cached token when one is still fresh, otherwise
	// performs an exchange. Concurrent refreshes for the same entry are
	// serialized; at most one exchange populates the cache.
	Token(ctx context.Context, entry domain.CredentialEntry) (string, error)

	// Invalidate discards the cached token for entry so the next Token call
	// re-exchanges, even if the discarded token was not yet clock-expired.
	Invalidate(entry domain.CredentialEntry)
}
