// Package anthropic implements the Anthropic messages-API vendor client.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/careerforge/careerforge/internal/tokenizer"
	"github.com/careerforge/careerforge/internal/types"
)

const (
	defaultBaseURL = "https://api.anthropic.com/v1/messages"
	apiVersion     = "2023-06-01"

	defaultModel     = "claude-3-5-sonnet-20241022"
	defaultMaxTokens = 4096
)

// Client calls the Anthropic messages API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	estimator  *tokenizer.Estimator
}

// New creates a Client. A missing API key is a construction-time
// configuration error, never a call-time surprise.
func New(apiKey string, est *tokenizer.Estimator) (*Client, error) {
	if apiKey == "" {
		return nil, types.NewError(types.KindConfiguration,
			"anthropic client requires an API key (ANTHROPIC_API_KEY)", nil)
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Transport: &http.Transport{
				// Compression breaks SSE chunk boundaries.
				DisableCompression: true,
			},
		},
		estimator: est,
	}, nil
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *Client) SetBaseURL(url string) { c.baseURL = url }

// Name returns the vendor identifier.
func (c *Client) Name() string { return "anthropic" }

// DefaultModel returns the model used when this vendor serves as the
// fallback and the caller pinned nothing.
func (c *Client) DefaultModel() string { return defaultModel }

// messagesRequest is the wire request for /v1/messages.
type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature *float64  `json:"temperature,omitempty"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	Stream      bool      `json:"stream,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// contentBlock is one element of the response content union. Only
// "text" blocks are expected for plain generation.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type usagePayload struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// messagesResponse is the wire response for a non-streaming call.
type messagesResponse struct {
	Model   string         `json:"model"`
	Content []contentBlock `json:"content"`
	Usage   *usagePayload  `json:"usage"`
}

// GenerateText performs a blocking messages call.
func (c *Client) GenerateText(ctx context.Context, req types.TextRequest) (*types.TextResult, error) {
	body, err := c.do(ctx, c.buildRequest(req, false))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var parsed messagesResponse
	if err := json.NewDecoder(body).Decode(&parsed); err != nil {
		return nil, types.NewError(types.KindUnexpectedResponse,
			"anthropic response is not valid JSON", err)
	}

	if len(parsed.Content) == 0 {
		return nil, types.NewError(types.KindVendorUnavailable,
			"anthropic response missing content", nil)
	}

	var content bytes.Buffer
	for _, block := range parsed.Content {
		if block.Type != "text" {
			return nil, types.NewError(types.KindUnexpectedResponse,
				fmt.Sprintf("anthropic returned unsupported content block type %q", block.Type), nil)
		}
		content.WriteString(block.Text)
	}

	usage, err := c.usageFrom(parsed.Usage, req, content.String())
	if err != nil {
		return nil, err
	}

	model := parsed.Model
	if model == "" {
		model = req.Model
	}
	return &types.TextResult{
		Content: content.String(),
		Usage:   usage,
		Model:   model,
	}, nil
}

// StreamText performs a streaming messages call, forwarding text deltas
// to onChunk and accumulating the final result.
func (c *Client) StreamText(ctx context.Context, req types.TextRequest, onChunk types.ChunkFunc) (*types.TextResult, error) {
	body, err := c.do(ctx, c.buildRequest(req, true))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	proc := newStreamProcessor()
	if err := proc.processReader(body, onChunk); err != nil {
		return nil, types.NewError(types.KindVendorUnavailable, "anthropic stream interrupted", err)
	}

	content := proc.contentBuffer.String()
	usage := proc.usage(func() types.TokenUsage {
		return types.EstimatedTokenUsage(
			c.estimator.Estimate(req.SystemPrompt+req.Prompt, req.Model),
			c.estimator.Estimate(content, req.Model),
		)
	})

	model := proc.model
	if model == "" {
		model = req.Model
	}
	return &types.TextResult{
		Content: content,
		Usage:   usage,
		Model:   model,
	}, nil
}

// buildRequest normalizes a TextRequest into the wire shape.
func (c *Client) buildRequest(req types.TextRequest, stream bool) *messagesRequest {
	model := req.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	wire := &messagesRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    req.SystemPrompt,
		Messages:  []message{{Role: "user", Content: req.Prompt}},
		Stream:    stream,
	}
	if req.Temperature > 0 {
		t := req.Temperature
		wire.Temperature = &t
	}
	return wire
}

// do executes a messages request and returns the response body on 2xx.
// Transport failures, timeouts and non-2xx statuses all map to
// VendorUnavailable so the executor can fall back.
func (c *Client) do(ctx context.Context, wire *messagesRequest) (io.ReadCloser, error) {
	payload, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("failed to encode anthropic request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create anthropic request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, types.NewError(types.KindVendorUnavailable, "anthropic request failed", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		return nil, types.NewError(types.KindVendorUnavailable,
			fmt.Sprintf("anthropic returned status %d: %s", resp.StatusCode, string(detail)), nil)
	}

	return resp.Body, nil
}

// usageFrom converts reported usage, estimating when the vendor omitted it.
func (c *Client) usageFrom(reported *usagePayload, req types.TextRequest, content string) (types.TokenUsage, error) {
	if reported != nil {
		return types.NewTokenUsage(reported.InputTokens, reported.OutputTokens)
	}
	return types.EstimatedTokenUsage(
		c.estimator.Estimate(req.SystemPrompt+req.Prompt, req.Model),
		c.estimator.Estimate(content, req.Model),
	), nil
}

// GenerateEmbedding is unsupported: Anthropic has no embeddings endpoint,
// and routing never selects this vendor for embedding work.
func (c *Client) GenerateEmbedding(ctx context.Context, text, model string) (*types.EmbeddingResult, error) {
	return nil, types.NewError(types.KindConfiguration,
		"anthropic does not offer an embeddings endpoint", nil)
}
