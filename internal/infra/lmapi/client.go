package lmapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jgreely/genaistuff/internal/domain"
	"github.com/jgreely/genaistuff/internal/infra/httpclient"
	"github.com/jgreely/genaistuff/internal/ports"
)

// Defaults for the inference request, tuned for prompt rewriting rather
// than chat.
const (
	DefaultModel       = "openai/gpt-oss-20b"
	DefaultTemperature = 0.75
	DefaultMaxTokens   = 1000
)

// Client talks to an OpenAI-compatible chat-completions server (LM
// Studio, llama.cpp, etc.) to rewrite prompts.
type Client struct {
	baseURL     string
	client      *http.Client
	model       string
	system      string
	temperature float64
	maxTokens   int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Client) { l.client = c }
}

// WithModel selects the model id.
func WithModel(model string) Option {
	return func(l *Client) {
		if model != "" {
			l.model = model
		}
	}
}

// WithSystemPrompt sets the rewriting instructions sent before each
// user prompt.
func WithSystemPrompt(prompt string) Option {
	return func(l *Client) { l.system = prompt }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(l *Client) { l.temperature = t }
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int) Option {
	return func(l *Client) {
		if n > 0 {
			l.maxTokens = n
		}
	}
}

// New builds a Client for the server at baseURL (e.g.
// "http://localhost:1234").
func New(baseURL string, opts ...Option) *Client {
	l := &Client{
		baseURL:     baseURL,
		model:       DefaultModel,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.client == nil {
		// Local inference is slow; reuse the render-length timeout.
		l.client = httpclient.New(httpclient.GenerationConfig())
	}
	return l
}

var _ ports.Enhancer = (*Client)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Enhance sends one prompt through the chat-completions endpoint with a
// fresh context and returns the model's raw response text.
func (l *Client) Enhance(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model": l.model,
		"messages": []chatMessage{
			{Role: "system", Content: l.system},
			{Role: "user", Content: prompt},
		},
		"temperature": l.temperature,
		"max_tokens":  l.maxTokens,
	}

	var resp struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	err := httpclient.PostJSON(ctx, l.client, l.baseURL+"/v1/chat/completions", payload, &resp)
	if err != nil {
		return "", &domain.OpError{Op: "lm.enhance", Kind: domain.KindTransport, Err: err}
	}
	if resp.Error != nil {
		return "", &domain.OpError{
			Op:   "lm.enhance",
			Kind: domain.KindTransport,
			Err:  fmt.Errorf("server error: %s", resp.Error.Message),
		}
	}
	if len(resp.Choices) == 0 {
		return "", &domain.OpError{
			Op:   "lm.enhance",
			Kind: domain.KindTransport,
			Err:  fmt.Errorf("no choices in response"),
		}
	}
	return resp.Choices[0].Message.Content, nil
}

// ListModels returns the ids of the models the server has available.
func (l *Client) ListModels(ctx context.Context) ([]string, error) {
	data, err := httpclient.GetBytes(ctx, l.client, l.baseURL+"/v1/models")
	if err != nil {
		return nil, &domain.OpError{Op: "lm.models", Kind: domain.KindTransport, Err: err}
	}
	var resp struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &domain.OpError{Op: "lm.models", Kind: domain.KindTransport, Err: err}
	}
	out := make([]string, 0, len(resp.Data))
	for _, m := range resp.Data {
		out = append(out, m.ID)
	}
	return out, nil
}
