// Package models holds the aggregate shapes returned by store queries.
package models

// UsageTotals aggregates usage records over some window.
// Zero-valued totals, not errors, represent missing data.
type UsageTotals struct {
	Requests          int     `json:"requests"`
	PromptTokens      int     `json:"prompt_tokens"`
	CompletionTokens  int     `json:"completion_tokens"`
	TotalTokens       int     `json:"total_tokens"`
	Cost              float64 `json:"cost_usd"`
	CachedRequests    int     `json:"cached_requests"`
	EstimatedRequests int     `json:"estimated_requests"`
	FailedRequests    int     `json:"failed_requests"`
}

// ModelTokens aggregates token counts per model, used for computing
// what cached responses would have cost.
type ModelTokens struct {
	Model        string `json:"model"`
	Requests     int    `json:"requests"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}
