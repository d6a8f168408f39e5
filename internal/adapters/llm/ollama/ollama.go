// Package ollama streams chat responses from an Ollama-style local server.
// No secret is sent: the server is assumed to be reachable only locally.
package ollama

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
	"github.com/go-resty/resty/v2"
)

const (
	chatPath = "/api/chat"
	tagsPath = "/api/tags"

	maxErrorBodyBytes = 1 << 20
	maxLineBytes      = 1 << 20
)

type Handler struct {
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

var _ ports.Handler = Handler{}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatLine struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error"`
}

// Stream posts to /api/chat and relays newline-delimited JSON fragments to
// the sink until the server marks the response done.
func (h Handler) Stream(ctx context.Context, req ports.HandlerRequest, sink ports.Sink) error {
	messages := make([]chatMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, chatMessage{Role: msg.Role, Content: msg.Content})
	}

	body, err := json.Marshal(chatRequest{Model: req.Model, Messages: messages, Stream: true})
	if err != nil {
		return fmt.Errorf("encode ollama request: %w", err)
	}

	endpoint := strings.TrimRight(req.BaseURL, "/") + chatPath

	requestCtx, cancel := requestContext(ctx, h.RequestTimeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient(h.HTTPClient).Do(httpReq)
	if err != nil {
		return fmt.Errorf("ollama chat: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &domain.UpstreamStatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(errBody))}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var chunk chatLine
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			return fmt.Errorf("decode ollama chunk: %w", err)
		}
		if chunk.Error != "" {
			return fmt.Errorf("ollama chat: %s", chunk.Error)
		}
		if chunk.Message.Content != "" {
			if err := sink.Fragment(chunk.Message.Content); err != nil {
				return fmt.Errorf("write fragment: %w", err)
			}
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read ollama stream: %w", err)
	}

	return nil
}

// ModelInfo describes one model reported by the local server.
type ModelInfo struct {
	Name string `json:"name"`
}

// ListModels queries /api/tags for the models the local server has pulled.
func (h Handler) ListModels(ctx context.Context, baseURL string) ([]ModelInfo, error) {
	client := resty.NewWithClient(httpClient(h.HTTPClient))
	if h.RequestTimeout > 0 {
		client.SetTimeout(h.RequestTimeout)
	} else {
		client.SetTimeout(30 * time.Second)
	}

	var result struct {
		Models []ModelInfo `json:"models"`
	}
	resp, err := client.R().
		SetContext(ctx).
		SetResult(&result).
		Get(strings.TrimRight(baseURL, "/") + tagsPath)
	if err != nil {
		return nil, fmt.Errorf("ollama list models: %w", err)
	}
	if resp.IsError() {
		return nil, &domain.UpstreamStatusError{Status: resp.StatusCode(), Body: strings.TrimSpace(resp.String())}
	}

	return result.Models, nil
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
