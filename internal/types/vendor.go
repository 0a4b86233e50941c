package types

// TextRequest is the normalized input for a vendor text generation call.
type TextRequest struct {
	Model        string
	Prompt       string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// TextResult is the normalized output of a vendor text generation call.
// Usage.Estimated is set when the vendor never reported token counts
// (streaming without a terminal usage event).
type TextResult struct {
	Content string
	Usage   TokenUsage
	Model   string
}

// EmbeddingResult is the normalized output of a vendor embedding call.
type EmbeddingResult struct {
	Vector []float64
	Usage  TokenUsage
	Model  string
}

// ChunkFunc receives incremental content during a streaming call.
// It is invoked zero or more times before the final usage is known;
// returning an error aborts the stream.
type ChunkFunc func(chunk string) error
