package domain

import "strings"

type CredentialKind string

const (
	// KindHosted is an OpenAI-compatible hosted API authorized with a static key.
	KindHosted CredentialKind = "hosted"
	// KindLocal is an Ollama-style local server, no secret.
	KindLocal CredentialKind = "local"
	// KindTokenAuth exchanges a long-lived API key for a short-lived bearer token.
	KindTokenAuth CredentialKind = "token_auth"
)

func (k CredentialKind) Valid() bool {
	switch k {
	case KindHosted, KindLocal, KindTokenAuth:
		return true
	}
	return false
}

// RequiresSecret reports whether entries of this kind need an API key at startup.
func (k CredentialKind) RequiresSecret() bool {
	return k == KindHosted || k == KindTokenAuth
}

// CredentialEntry binds a model-identifier pattern to connection details.
// Entries are built once at startup and read-only thereafter.
type CredentialEntry struct {
	// Name is the credential group, e.g. "IBM"; it prefixes the environment
	// variables the entry was populated from and keys the token cache.
	Name    string
	Pattern string
	// Exact requires the model identifier to equal Pattern; otherwise Pattern
	// is a prefix match.
	Exact     bool
	Kind      CredentialKind
	BaseURL   string
	APIKey    string
	ProjectID string
}

// Matches reports whether the model identifier selects this entry.
func (e CredentialEntry) Matches(model string) bool {
	if e.Exact {
		return model == e.Pattern
	}
	return strings.HasPrefix(model, e.Pattern)
}
