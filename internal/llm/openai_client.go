package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/csheth/studymind/internal/apperr"
)

// chatClient speaks the OpenAI chat completions protocol, which both
// supported providers implement.
type chatClient struct {
	provider    Provider
	apiKey      string
	model       string
	base        string
	maxTokens   int
	temperature float64
	referer     string
	title       string
	client      *http.Client
}

func (c *chatClient) Name() string {
	return fmt.Sprintf("%s (%s)", c.provider.Label, c.model)
}

func (c *chatClient) Complete(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	if c.apiKey == "" {
		return "", apperr.ErrMissingCredential
	}
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	payload := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"max_tokens":  maxTokens,
		"temperature": c.temperature,
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/chat/completions", c.base)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content *string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrMalformedResponse, err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == nil {
		return "", fmt.Errorf("%w: response has no choices[0].message.content", apperr.ErrMalformedResponse)
	}
	return strings.TrimSpace(*parsed.Choices[0].Message.Content), nil
}

func (c *chatClient) ValidateKey(ctx context.Context) error {
	if c.apiKey == "" {
		return apperr.ErrMissingCredential
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/models", nil)
	if err != nil {
		return err
	}
	c.authorize(req)
	_, err = c.do(req)
	return err
}

func (c *chatClient) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}
}

func (c *chatClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrRequestFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, body)
	}
	return body, nil
}

// statusError maps a non-2xx response to an error kind, keeping the
// provider's own message for the generic case.
func statusError(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized:
		return apperr.ErrInvalidCredential
	case http.StatusTooManyRequests:
		return apperr.ErrRateLimited
	case http.StatusForbidden:
		return apperr.ErrAccessDenied
	}
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Error.Message) != "" {
		return fmt.Errorf("%w: %s", apperr.ErrRequestFailed, strings.TrimSpace(payload.Error.Message))
	}
	return fmt.Errorf("%w: HTTP %d: %s", apperr.ErrRequestFailed, status, http.StatusText(status))
}
