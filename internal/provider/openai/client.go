// Package openai implements the OpenAI chat-completions and embeddings
// vendor client.
package openai

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
	defaultBaseURL = "https://api.openai.com/v1"

	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 4096
)

// Client calls the OpenAI API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	estimator  *tokenizer.Estimator
}

// New creates a Client, failing fast without a credential.
func New(apiKey string, est *tokenizer.Estimator) (*Client, error) {
	if apiKey == "" {
		return nil, types.NewError(types.KindConfiguration,
			"openai client requires an API key (OPENAI_API_KEY)", nil)
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Transport: &http.Transport{
				DisableCompression: true,
			},
		},
		estimator: est,
	}, nil
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *Client) SetBaseURL(url string) { c.baseURL = url }

// Name returns the vendor identifier.
func (c *Client) Name() string { return "openai" }

// DefaultModel returns the fallback default model.
func (c *Client) DefaultModel() string { return defaultModel }

// chatRequest is the wire request for /chat/completions.
type chatRequest struct {
	Model         string         `json:"model"`
	Messages      []chatMessage  `json:"messages"`
	Temperature   *float64       `json:"temperature,omitempty"`
	MaxTokens     int            `json:"max_tokens,omitempty"`
	Stream        bool           `json:"stream,omitempty"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type usagePayload struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// chatResponse is the wire response for a non-streaming call.
type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message *chatMessage `json:"message"`
	} `json:"choices"`
	Usage *usagePayload `json:"usage"`
}

// GenerateText performs a blocking chat-completions call.
func (c *Client) GenerateText(ctx context.Context, req types.TextRequest) (*types.TextResult, error) {
	body, err := c.post(ctx, "/chat/completions", c.buildRequest(req, false))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(body).Decode(&parsed); err != nil {
		return nil, types.NewError(types.KindUnexpectedResponse,
			"openai response is not valid JSON", err)
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message == nil {
		return nil, types.NewError(types.KindVendorUnavailable,
			"openai response missing choices", nil)
	}

	content := parsed.Choices[0].Message.Content
	usage, err := c.usageFrom(parsed.Usage, req, content)
	if err != nil {
		return nil, err
	}

	model := parsed.Model
	if model == "" {
		model = req.Model
	}
	return &types.TextResult{
		Content: content,
		Usage:   usage,
		Model:   model,
	}, nil
}

// StreamText performs a streaming chat-completions call. Usage arrives
// on the terminal chunk when stream_options.include_usage is set; if the
// vendor never reports it, the result carries a flagged estimate.
func (c *Client) StreamText(ctx context.Context, req types.TextRequest, onChunk types.ChunkFunc) (*types.TextResult, error) {
	body, err := c.post(ctx, "/chat/completions", c.buildRequest(req, true))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	proc := newStreamProcessor()
	if err := proc.processReader(body, onChunk); err != nil {
		return nil, types.NewError(types.KindVendorUnavailable, "openai stream interrupted", err)
	}

	content := proc.contentBuffer.String()
	var usage types.TokenUsage
	if proc.reported != nil {
		usage, err = types.NewTokenUsage(proc.reported.PromptTokens, proc.reported.CompletionTokens)
		if err != nil {
			return nil, types.NewError(types.KindUnexpectedResponse, "openai reported invalid usage", err)
		}
	} else {
		usage = types.EstimatedTokenUsage(
			c.estimator.Estimate(req.SystemPrompt+req.Prompt, req.Model),
			c.estimator.Estimate(content, req.Model),
		)
	}

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

// embeddingRequest is the wire request for /embeddings.
type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Model string `json:"model"`
	Data  []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Usage *usagePayload `json:"usage"`
}

// GenerateEmbedding computes an embedding vector for text.
func (c *Client) GenerateEmbedding(ctx context.Context, text, model string) (*types.EmbeddingResult, error) {
	if model == "" {
		model = "text-embedding-3-small"
	}

	body, err := c.post(ctx, "/embeddings", &embeddingRequest{Model: model, Input: text})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var parsed embeddingResponse
	if err := json.NewDecoder(body).Decode(&parsed); err != nil {
		return nil, types.NewError(types.KindUnexpectedResponse,
			"openai embedding response is not valid JSON", err)
	}

	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, types.NewError(types.KindVendorUnavailable,
			"openai embedding response missing data", nil)
	}

	var usage types.TokenUsage
	if parsed.Usage != nil {
		usage, err = types.NewTokenUsage(parsed.Usage.PromptTokens, 0)
		if err != nil {
			return nil, types.NewError(types.KindUnexpectedResponse, "openai reported invalid usage", err)
		}
	} else {
		usage = types.EstimatedTokenUsage(c.estimator.Estimate(text, model), 0)
	}

	respModel := parsed.Model
	if respModel == "" {
		respModel = model
	}
	return &types.EmbeddingResult{
		Vector: parsed.Data[0].Embedding,
		Usage:  usage,
		Model:  respModel,
	}, nil
}

// buildRequest normalizes a TextRequest into the wire shape.
func (c *Client) buildRequest(req types.TextRequest, stream bool) *chatRequest {
	model := req.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	wire := &chatRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: maxTokens,
		Stream:    stream,
	}
	if req.Temperature > 0 {
		t := req.Temperature
		wire.Temperature = &t
	}
	if stream {
		wire.StreamOptions = &streamOptions{IncludeUsage: true}
	}
	return wire
}

// post executes a JSON request and returns the response body on 2xx.
func (c *Client) post(ctx context.Context, path string, payload any) (io.ReadCloser, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode openai request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create openai request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, types.NewError(types.KindVendorUnavailable, "openai request failed", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		return nil, types.NewError(types.KindVendorUnavailable,
			fmt.Sprintf("openai returned status %d: %s", resp.StatusCode, string(detail)), nil)
	}

	return resp.Body, nil
}

// usageFrom converts reported usage, estimating when the vendor omitted it.
func (c *Client) usageFrom(reported *usagePayload, req types.TextRequest, content string) (types.TokenUsage, error) {
	if reported != nil {
		return types.NewTokenUsage(reported.PromptTokens, reported.CompletionTokens)
	}
	return types.EstimatedTokenUsage(
		c.estimator.Estimate(req.SystemPrompt+req.Prompt, req.Model),
		c.estimator.Estimate(content, req.Model),
	), nil
}
