// Package llm talks to hosted chat-completion backends.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// defaultMaxTokens is used when Request.MaxTokens is not set. Translations
// are one short JSON object.
const defaultMaxTokens = 1024

// maxBodyBytes caps how much of a backend response is read.
const maxBodyBytes = 2 * 1024 * 1024

// ErrMissingAPIKey is returned by the Unavailable provider built when no
// credential is configured.
var ErrMissingAPIKey = errors.New("LLM API key not configured")

// Request holds the parameters for a completion call.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
	// JSONOutput asks backends that support it to constrain output to a JSON object.
	JSONOutput bool
}

// Response holds the completion text.
type Response struct {
	Content string
	Model   string // "provider:model" as echoed by the backend
}

// Provider is a chat-completion backend.
type Provider interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// NewProvider parses a "provider:model" string and returns the matching
// backend. An empty apiKey yields an Unavailable provider so the service can
// still start and report the failure per request.
// Example: "openai:gpt-4o-mini" or "anthropic:claude-sonnet-4-5".
func NewProvider(providerModel, apiKey string) (Provider, error) {
	name, model, ok := strings.Cut(providerModel, ":")
	if !ok || name == "" || model == "" {
		return nil, fmt.Errorf("invalid model format %q: expected provider:model (e.g. openai:gpt-4o-mini)", providerModel)
	}
	switch name {
	case "anthropic", "openai":
	default:
		return nil, fmt.Errorf("unknown provider %q: supported providers are anthropic, openai", name)
	}
	if apiKey == "" {
		return Unavailable{Err: fmt.Errorf("%s: %w", name, ErrMissingAPIKey)}, nil
	}
	client := &http.Client{}
	if name == "anthropic" {
		return &anthropicProvider{model: model, apiKey: apiKey, endpoint: anthropicAPIURL, client: client}, nil
	}
	return &openaiProvider{model: model, apiKey: apiKey, endpoint: openaiAPIURL, client: client}, nil
}

// Unavailable fails every call with Err.
type Unavailable struct {
	Err error
}

func (u Unavailable) Complete(context.Context, *Request) (*Response, error) {
	return nil, u.Err
}

// postJSON sends body to endpoint and decodes the reply into out. The raw
// body is returned for error reporting.
func postJSON(ctx context.Context, client *http.Client, endpoint string, headers map[string]string, body, out any) (int, string, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return 0, "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return 0, "", fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return 0, "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("reading response body: %w", err)
	}
	respStr := string(respBytes)
	if err := json.Unmarshal(respBytes, out); err != nil {
		return resp.StatusCode, respStr, fmt.Errorf("parsing response JSON (HTTP %d, body: %s): %w", resp.StatusCode, truncate(respStr, 200), err)
	}
	return resp.StatusCode, respStr, nil
}

// truncate limits a string to maxLen runes, appending "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
