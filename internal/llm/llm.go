package llm

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/csheth/studymind/internal/apperr"
)

const (
	DefaultMaxTokens   = 1500
	DefaultTemperature = 0.7
	defaultTitle       = "StudyMind AI"
	defaultReferer     = "https://github.com/csheth/studymind"
)

const defaultLLMHTTPTimeout = 2 * time.Minute

// Message is one chat turn sent to the completion endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// System and User build the two roles the prompts use.
func System(content string) Message { return Message{Role: "system", Content: content} }
func User(content string) Message   { return Message{Role: "user", Content: content} }

// Client issues chat completions against one configured provider.
type Client interface {
	// Complete sends one request and returns the first choice's text.
	// maxTokens <= 0 uses the configured default.
	Complete(ctx context.Context, messages []Message, maxTokens int) (string, error)
	// ValidateKey checks the credential against the provider's model list.
	ValidateKey(ctx context.Context) error
	Name() string
}

// Provider is one entry of the fixed endpoint table.
type Provider struct {
	ID      string
	Label   string
	BaseURL string
	Model   string
	// Attribution adds the HTTP-Referer and X-Title headers OpenRouter asks for.
	Attribution bool
}

var providers = map[string]Provider{
	"openai": {
		ID:      "openai",
		Label:   "OpenAI",
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o",
	},
	"openrouter": {
		ID:          "openrouter",
		Label:       "OpenRouter",
		BaseURL:     "https://openrouter.ai/api/v1",
		Model:       "meta-llama/llama-3.2-11b-vision-instruct:free",
		Attribution: true,
	},
}

// Providers lists the supported providers ordered by ID.
func Providers() []Provider {
	out := make([]Provider, 0, len(providers))
	for _, p := range providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LookupProvider finds a provider by case-insensitive ID.
func LookupProvider(id string) (Provider, bool) {
	p, ok := providers[strings.ToLower(strings.TrimSpace(id))]
	return p, ok
}

// NextProvider cycles through Providers, used by the dashboard toggle.
func NextProvider(id string) Provider {
	list := Providers()
	for i, p := range list {
		if p.ID == id {
			return list[(i+1)%len(list)]
		}
	}
	return list[0]
}

// Config describes how to build a Client.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	Endpoint    string
	MaxTokens   int
	Temperature float64
	HTTPClient  *http.Client
	Referer     string
	Title       string
}

// New builds a client for the configured provider. An empty API key is
// accepted here and reported on the first request instead.
func New(cfg Config) (Client, error) {
	provider, ok := LookupProvider(cfg.Provider)
	if !ok {
		return nil, fmt.Errorf("%w: unknown provider %q", apperr.ErrInvalidInput, cfg.Provider)
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if base == "" {
		base = provider.BaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = provider.Model
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}
	c := &chatClient{
		provider:    provider,
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       model,
		base:        base,
		maxTokens:   maxTokens,
		temperature: temperature,
		client:      pickHTTPClient(cfg.HTTPClient),
	}
	if provider.Attribution {
		c.referer = firstNonEmpty(cfg.Referer, defaultReferer)
		c.title = firstNonEmpty(cfg.Title, defaultTitle)
	}
	return c, nil
}

func pickHTTPClient(custom *http.Client) *http.Client {
	if custom != nil {
		return custom
	}
	return &http.Client{Timeout: defaultLLMHTTPTimeout}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
