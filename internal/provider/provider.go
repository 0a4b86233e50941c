// Package provider defines the vendor client abstraction and model routing.
package provider

import (
	"context"

	"github.com/careerforge/careerforge/internal/types"
)

// Vendor identifiers used in routing and usage records.
const (
	VendorAnthropic = "anthropic"
	VendorOpenAI    = "openai"
)

// Client is implemented once per vendor. Constructing a client without
// a configured credential fails fast; callers never see vendor payload
// shapes, only the normalized result types.
type Client interface {
	// Name returns the vendor identifier.
	Name() string

	// DefaultModel returns the vendor's default model, used when this
	// vendor serves as the fallback and the caller pinned nothing.
	DefaultModel() string

	// GenerateText performs a blocking text generation call.
	GenerateText(ctx context.Context, req types.TextRequest) (*types.TextResult, error)

	// StreamText performs a streaming call, delivering content through
	// onChunk and returning the accumulated result.
	StreamText(ctx context.Context, req types.TextRequest, onChunk types.ChunkFunc) (*types.TextResult, error)

	// GenerateEmbedding computes an embedding vector for text.
	GenerateEmbedding(ctx context.Context, text, model string) (*types.EmbeddingResult, error)
}
