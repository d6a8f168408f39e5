package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnknownModel  = errors.New("no credential entry matches model")
	ErrMissingSecret = errors.New("credential entry has no secret configured")

	ErrExchangeRejected    = errors.New("token exchange rejected by issuer")
	ErrExchangeUnreachable = errors.New("token issuer unreachable")

	ErrHandlerFailure  = errors.New("handler failure")
	ErrDispatchTimeout = errors.New("request timed out")
)

// ConfigError reports a routing/setup defect. It is never retried; the
// offending model identifier is always named.
type ConfigError struct {
	Kind  error // ErrUnknownModel or ErrMissingSecret
	Model string
	// Name is the credential group of the matched entry, empty for ErrUnknownModel.
	Name string
}

func (e *ConfigError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: model %q (credential %s)", e.Kind, e.Model, e.Name)
	}
	return fmt.Sprintf("%s: model %q", e.Kind, e.Model)
}

func (e *ConfigError) Unwrap() error { return e.Kind }

// AuthError reports a failed bearer-token exchange. The manager does not
// retry; retry policy sits with the dispatcher.
type AuthError struct {
	Kind   error // ErrExchangeRejected or ErrExchangeUnreachable
	Status int   // issuer HTTP status, zero for transport failures
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	switch {
	case e.Reason != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d", e.Kind, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Err)
	}
	return e.Kind.Error()
}

func (e *AuthError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// DispatchError wraps a handler failure surfaced to the caller. Partial
// output already delivered to the sink is left as-is.
type DispatchError struct {
	Kind  error // ErrHandlerFailure or ErrDispatchTimeout
	Model string
	Err   error
}

func (e *DispatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: model %q: %s", e.Kind, e.Model, e.Err)
	}
	return fmt.Sprintf("%s: model %q", e.Kind, e.Model)
}

func (e *DispatchError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// UpstreamStatusError carries the HTTP status of a failed downstream call so
// the dispatcher can distinguish rejected credentials from other failures.
type UpstreamStatusError struct {
	Status int
	Body   string
}

func (e *UpstreamStatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("upstream status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("upstream status %d", e.Status)
}

// IsAuthRejected reports whether err carries a downstream 401/403, meaning
// the presented credential was refused even if not yet clock-expired.
func IsAuthRejected(err error) bool {
	var statusErr *UpstreamStatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.Status == http.StatusUnauthorized || statusErr.Status == http.StatusForbidden
}
