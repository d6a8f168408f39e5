package ports

import (
	"context"

	"github.com/bnema/lingua-cli/internal/domain"
)

// HandlerRequest carries everything a backend needs for one chat call.
// Secret is a static API key for hosted backends, a bearer token for
// token-auth backends, and empty for local ones.
type HandlerRequest struct {
	BaseURL   string
	Secret    string
	ProjectID string
	Model     string
	Messages  []domain.Message
}

// Sink receives incremental text fragments in the order the backend
// produced them. Implementations must not buffer in a way that reorders
// or drops output.
type Sink interface {
	Fragment(text string) error
}

// Handler performs the actual network call for one backend kind and streams
// text fragments to the sink. A call is restartable from the beginning but
// not resumable mid-stream.
type Handler interface {
	Stream(ctx context.Context, req HandlerRequest, sink Sink) error
}
