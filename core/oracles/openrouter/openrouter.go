package openrouter

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/TitzMcgie/Metavern/core/oracles"
)

const (
	defaultURL   = "https://openrouter.ai/api/v1/chat/completions"
	defaultModel = "openai/gpt-4o-mini"

	defaultMaxTokens = 1024
)

var (
	_ oracles.DecisionOracle = (*Client)(nil)
	_ oracles.NarratorOracle = (*Client)(nil)
	_ oracles.JudgeOracle    = (*Client)(nil)
)

// Client talks to OpenRouter's OpenAI-compatible chat completions
// endpoint and serves all three oracle roles.
type Client struct {
	apiKey     string
	model      string
	url        string
	maxTokens  int
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

func WithURL(url string) ClientOption {
	return func(c *Client) { c.url = url }
}

func WithMaxTokens(maxTokens int) ClientOption {
	return func(c *Client) { c.maxTokens = maxTokens }
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

func NewClient(apiKey string, opts ...ClientOption) *Client {
	client := &Client{
		apiKey:    apiKey,
		model:     defaultModel,
		url:       defaultURL,
		maxTokens: defaultMaxTokens,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}
