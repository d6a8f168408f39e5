package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/lingua-cli/internal/domain"
	"github.com/bnema/lingua-cli/internal/ports"
	"github.com/rs/zerolog"
)

// Dispatcher routes a chat request to the handler for its credential kind.
// It never falls back between kinds: a request resolved as hosted fails as
// hosted.
type Dispatcher struct {
	resolver *Resolver
	tokens   ports.TokenSource
	handlers map[domain.CredentialKind]ports.Handler
	override string
	log      zerolog.Logger
}

type DispatcherDeps struct {
	Resolver *Resolver
	Tokens   ports.TokenSource
	Handlers map[domain.CredentialKind]ports.Handler
	// ModelOverride, when set, replaces the requested model identifier for
	// every request (IBM_MODEL_ID behavior).
	ModelOverride string
	Log           zerolog.Logger
}

func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	return &Dispatcher{
		resolver: deps.Resolver,
		tokens:   deps.Tokens,
		handlers: deps.Handlers,
		override: deps.ModelOverride,
		log:      deps.Log,
	}
}

// Dispatch resolves credentials for the request's model, obtains the secret
// the backend needs, and streams the response into sink. On a token-auth
// route whose handler reports a downstream auth rejection, the cached token
// is invalidated and the handoff retried exactly once with a fresh token; a
// second failure is surfaced, not retried further.
func (d *Dispatcher) Dispatch(ctx context.Context, req domain.ChatRequest, sink ports.Sink) error {
	model := req.Model
	if d.override != "" {
		model = d.override
	}

	entry, err := d.resolver.Resolve(model)
	if err != nil {
		return err
	}

	handler, ok := d.handlers[entry.Kind]
	if !ok {
		return fmt.Errorf("no handler registered for credential kind %q", entry.Kind)
	}

	secret, err := d.secretFor(ctx, entry)
	if err != nil {
		return err
	}

	d.log.Debug().Str("model", model).Str("credential", entry.Name).Str("kind", string(entry.Kind)).Msg("dispatching chat request")

	handlerReq := ports.HandlerRequest{
		BaseURL:   entry.BaseURL,
		Secret:    secret,
		ProjectID: entry.ProjectID,
		Model:     model,
		Messages:  req.Messages,
	}

	streamErr := handler.Stream(ctx, handlerReq, sink)
	if streamErr != nil && entry.Kind == domain.KindTokenAuth && domain.IsAuthRejected(streamErr) {
		d.log.Debug().Str("credential", entry.Name).Msg("downstream rejected token, re-exchanging once")
		d.tokens.Invalidate(entry)

		secret, err = d.tokens.Token(ctx, entry)
		if err != nil {
			return err
		}
		handlerReq.Secret = secret
		streamErr = handler.Stream(ctx, handlerReq, sink)
	}

	if streamErr != nil {
		kind := domain.ErrHandlerFailure
		if errors.Is(streamErr, context.DeadlineExceeded) {
			kind = domain.ErrDispatchTimeout
		}
		return &domain.DispatchError{Kind: kind, Model: model, Err: streamErr}
	}

	return nil
}

func (d *Dispatcher) secretFor(ctx context.Context, entry domain.CredentialEntry) (string, error) {
	switch entry.Kind {
	case domain.KindTokenAuth:
		return d.tokens.Token(ctx, entry)
	case domain.KindHosted:
		return entry.APIKey, nil
	default:
		return "", nil
	}
}
