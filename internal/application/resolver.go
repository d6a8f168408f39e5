package application

import (
	"github.com/bnema/lingua-cli/internal/domain"
)

// Resolver maps a model identifier to the credential entry that serves it.
// The table is ordered: patterns may overlap (a generic prefix and a more
// specific one) and the first match wins. Resolver is read-only over state
// fixed at startup and is safe for concurrent use without synchronization.
type Resolver struct {
	entries []domain.CredentialEntry
}

func NewResolver(entries []domain.CredentialEntry) *Resolver {
	return &Resolver{entries: entries}
}

// Resolve returns the first entry matching model in configured order.
func (r *Resolver) Resolve(model string) (domain.CredentialEntry, error) {
	for _, entry := range r.entries {
		if !entry.Matches(model) {
			continue
		}
		if entry.Kind.RequiresSecret() && entry.APIKey == "" {
			return domain.CredentialEntry{}, &domain.ConfigError{
				Kind:  domain.ErrMissingSecret,
				Model: model,
				Name:  entry.Name,
			}
		}
		return entry, nil
	}

	return domain.CredentialEntry{}, &domain.ConfigError{
		Kind:  domain.ErrUnknownModel,
		Model: model,
	}
}

// Entries returns the routing table in configured order.
func (r *Resolver) Entries() []domain.CredentialEntry {
	out := make([]domain.CredentialEntry, len(r.entries))
	copy(out, r.entries)
	return out
}
