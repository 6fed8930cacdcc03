// Package aiclient defines the boundary SlideGenerator and ThemeGenerator
// use to ask an AI provider for a structured response. The default
// implementation speaks a generic JSON-over-HTTP structured-generation
// protocol rather than a named vendor SDK, so swapping providers never
// touches the generation pipeline.
package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nextslide/deckengine/pkg/errs"
)

// Role identifies the speaker of a Message in a generation request.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in the prompt sent to the AI provider.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a structured-generation call: a message list plus generation
// caps and an optional JSON Schema the response must validate against.
type Request struct {
	Messages       []Message       `json:"messages"`
	ResponseSchema json.RawMessage `json:"response_schema,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
}

// Client is the AIClient boundary: accepts messages, a target schema, and
// token/temperature caps, and returns a validated structured value or a
// typed error classified into pkg/errs's taxonomy.
type Client interface {
	// Generate calls the provider and unmarshals its structured response
	// into target, which must be a pointer.
	Generate(ctx context.Context, req Request, target any) error
}

// HTTPClient is the default Client: a single JSON-over-HTTP endpoint
// expecting {messages, response_schema, max_tokens, temperature} and
// returning {"output": <structured JSON>}.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewHTTPClient builds an HTTPClient. timeout bounds each call; callers
// additionally pass a per-call context for cooperative cancellation.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type generateResponse struct {
	Output json.RawMessage `json:"output"`
}

// Generate implements Client.
func (c *HTTPClient) Generate(ctx context.Context, req Request, target any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return errs.New(errs.KindAIInvalidResponse, fmt.Errorf("encode request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return errs.New(errs.KindAIInvalidResponse, fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return errs.New(errs.KindAITimeout, err)
		}
		return errs.New(errs.KindAIOverloaded, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.New(errs.KindAIInvalidResponse, fmt.Errorf("read response body: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return errs.New(errs.KindAIRateLimit, fmt.Errorf("provider returned HTTP 429: %s", respBody))
	case resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusBadGateway:
		return errs.New(errs.KindAIOverloaded, fmt.Errorf("provider returned HTTP %d: %s", resp.StatusCode, respBody))
	case resp.StatusCode >= 500:
		return errs.New(errs.KindAIOverloaded, fmt.Errorf("provider returned HTTP %d: %s", resp.StatusCode, respBody))
	case resp.StatusCode != http.StatusOK:
		return errs.New(errs.KindAIInvalidResponse, fmt.Errorf("provider returned HTTP %d: %s", resp.StatusCode, respBody))
	}

	var gr generateResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return errs.New(errs.KindAIInvalidResponse, fmt.Errorf("decode envelope: %w", err))
	}

	if err := json.Unmarshal(gr.Output, target); err != nil {
		return errs.New(errs.KindAIInvalidResponse, fmt.Errorf("decode structured output: %w", err))
	}

	return nil
}
