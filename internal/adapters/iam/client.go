// Package iam exchanges a long-lived IBM Cloud API key for a short-lived
// IAM bearer token.
package iam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/lingua-cli/internal/domain"
	"github.com/bnema/lingua-cli/internal/ports"
)

const apiKeyGrantType = "urn:ibm:params:oauth:grant-type:apikey"
const maxTokenResponseBytes = 1 << 20

type Client struct {
	Endpoint       string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	Clock          ports.Clock
}

var _ ports.TokenExchanger = Client{}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type iamErrorResponse struct {
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// Exchange submits the API key to the IAM token endpoint and returns the
// issued bearer token. Failures are classified: a non-success status from
// the issuer is ErrExchangeRejected, a transport failure or timeout is
// ErrExchangeUnreachable. No retry happens at this layer.
func (c Client) Exchange(ctx context.Context, apiKey string) (domain.Token, error) {
	if apiKey == "" {
		return domain.Token{}, &domain.AuthError{Kind: domain.ErrExchangeRejected, Reason: "api key is empty"}
	}
	endpoint, err := validateEndpoint(c.Endpoint)
	if err != nil {
		return domain.Token{}, err
	}

	values := url.Values{}
	values.Set("grant_type", apiKeyGrantType)
	values.Set("apikey", apiKey)

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return domain.Token{}, fmt.Errorf("create token exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return domain.Token{}, &domain.AuthError{Kind: domain.ErrExchangeUnreachable, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return domain.Token{}, &domain.AuthError{
			Kind:   domain.ErrExchangeRejected,
			Status: resp.StatusCode,
			Reason: decodeIAMError(resp),
		}
	}

	var payload tokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxTokenResponseBytes)).Decode(&payload); err != nil {
		return domain.Token{}, &domain.AuthError{Kind: domain.ErrExchangeRejected, Status: resp.StatusCode, Reason: "malformed token response", Err: err}
	}
	if payload.AccessToken == "" {
		return domain.Token{}, &domain.AuthError{Kind: domain.ErrExchangeRejected, Status: resp.StatusCode, Reason: "token response missing access token"}
	}
	if payload.ExpiresIn <= 0 {
		return domain.Token{}, &domain.AuthError{Kind: domain.ErrExchangeRejected, Status: resp.StatusCode, Reason: "token response missing expiry"}
	}

	now := c.now()
	return domain.Token{
		Value:     payload.AccessToken,
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Duration(payload.ExpiresIn) * time.Second),
	}, nil
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c Client) now() time.Time {
	if c.Clock != nil {
		return c.Clock.Now()
	}
	return time.Now()
}

func (c Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return context.WithTimeout(ctx, requestTimeout)
}

func validateEndpoint(endpoint string) (string, error) {
	if endpoint == "" {
		return "", errors.New("iam endpoint is required")
	}

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse iam endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("iam endpoint must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("iam endpoint host is required")
	}

	return parsed.String(), nil
}

func decodeIAMError(resp *http.Response) string {
	var iamErr iamErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxTokenResponseBytes)).Decode(&iamErr); err != nil {
		return ""
	}
	if iamErr.ErrorMessage == "" {
		return iamErr.ErrorCode
	}
	if iamErr.ErrorCode != "" {
		return iamErr.ErrorCode + ": " + iamErr.ErrorMessage
	}
	return iamErr.ErrorMessage
}
