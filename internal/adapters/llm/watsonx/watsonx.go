// Package watsonx streams chat completions from the IBM watsonx.ai text
// chat API, authorized with an IAM bearer token.
package watsonx

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bnema/lingua-cli/internal/domain"
	"github.com/bnema/lingua-cli/internal/ports"
)

const (
	chatStreamPath = "/ml/v1/text/chat_stream"
	apiVersion     = "2024-10-08"

	maxErrorBodyBytes = 1 << 20
	maxLineBytes      = 1 << 20
)

type Handler struct {
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

var _ ports.Handler = Handler{}

type chatMessage struct {
	Role string `json:"role"`
	// Content is a plain string for system/assistant turns and a list of
	// typed parts for user turns, matching the watsonx chat schema.
	Content any `json:"content"`
}

type textPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type chatRequest struct {
	ModelID   string        `json:"model_id"`
	ProjectID string        `json:"project_id,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Stream posts the chat request to {base}/ml/v1/text/chat_stream and relays
// SSE delta fragments to the sink in arrival order.
func (h Handler) Stream(ctx context.Context, req ports.HandlerRequest, sink ports.Sink) error {
	body, err := json.Marshal(chatRequest{
		ModelID:   req.Model,
		ProjectID: req.ProjectID,
		Messages:  formatMessages(req.Messages),
	})
	if err != nil {
		return fmt.Errorf("encode watsonx request: %w", err)
	}

	endpoint := strings.TrimRight(req.BaseURL, "/") + chatStreamPath + "?version=" + apiVersion

	requestCtx, cancel := requestContext(ctx, h.RequestTimeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create watsonx request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.Secret)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := httpClient(h.HTTPClient).Do(httpReq)
	if err != nil {
		return fmt.Errorf("watsonx chat stream: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &domain.UpstreamStatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(errBody))}
	}

	return relaySSE(resp.Body, sink)
}

func formatMessages(messages []domain.Message) []chatMessage {
	formatted := make([]chatMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == domain.RoleUser {
			formatted = append(formatted, chatMessage{
				Role:    msg.Role,
				Content: []textPart{{Type: "text", Text: msg.Content}},
			})
			continue
		}
		formatted = append(formatted, chatMessage{Role: msg.Role, Content: msg.Content})
	}
	return formatted
}

func relaySSE(body io.Reader, sink ports.Sink) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			continue
		}
		if data == "" || data == "[DONE]" {
			continue
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("decode watsonx chunk: %w", err)
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			if err := sink.Fragment(choice.Delta.Content); err != nil {
				return fmt.Errorf("write fragment: %w", err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read watsonx stream: %w", err)
	}

	return nil
}

func httpClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return http.DefaultClient
}

func requestContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}
