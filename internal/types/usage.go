// Package types holds the value types shared across the governance subsystem.
package types

import (
	"fmt"
	"time"
)

// TokenUsage counts the tokens consumed by a single vendor call.
// TotalTokens is always InputTokens + OutputTokens; construct values
// through NewTokenUsage so the invariant cannot be violated.
type TokenUsage struct {
	InputTokens  int  `json:"input_tokens"`
	OutputTokens int  `json:"output_tokens"`
	TotalTokens  int  `json:"total_tokens"`
	// Estimated marks usage derived from character-count heuristics
	// rather than vendor-reported token counts.
	Estimated bool `json:"estimated,omitempty"`
}

// NewTokenUsage builds a TokenUsage from vendor-reported counts.
func NewTokenUsage(input, output int) (TokenUsage, error) {
	if input < 0 || output < 0 {
		return TokenUsage{}, fmt.Errorf("token counts must be non-negative, got input=%d output=%d", input, output)
	}
	return TokenUsage{
		InputTokens:  input,
		OutputTokens: output,
		TotalTokens:  input + output,
	}, nil
}

// EstimatedTokenUsage builds a TokenUsage flagged as approximate.
// Negative counts are clamped to zero since estimates are best-effort.
func EstimatedTokenUsage(input, output int) TokenUsage {
	if input < 0 {
		input = 0
	}
	if output < 0 {
		output = 0
	}
	return TokenUsage{
		InputTokens:  input,
		OutputTokens: output,
		TotalTokens:  input + output,
		Estimated:    true,
	}
}

// CostBreakdown is the dollar cost of a TokenUsage under a pricing entry.
// TotalCost is always InputCost + OutputCost.
type CostBreakdown struct {
	InputCost  float64 `json:"input_cost"`
	OutputCost float64 `json:"output_cost"`
	TotalCost  float64 `json:"total_cost"`
	Currency   string  `json:"currency"`
}

// ZeroCost returns a zero-valued USD breakdown, used for cache hits and
// failed requests.
func ZeroCost() CostBreakdown {
	return CostBreakdown{Currency: "USD"}
}

// Operation identifies the logical facade call that produced a record.
type Operation string

const (
	OpGenerateText Operation = "generate_text"
	OpStreamText   Operation = "stream_text"
	OpEmbedding    Operation = "embedding"
)

// UsageRecord is an immutable fact about one completed (or failed)
// governed request. Records are append-only; nothing mutates or deletes
// them after creation.
type UsageRecord struct {
	ID        string        `json:"id"`
	SessionID string        `json:"session_id"`
	UserID    string        `json:"user_id,omitempty"`
	Provider  string        `json:"provider"`
	Model     string        `json:"model"`
	Usage     TokenUsage    `json:"usage"`
	Cost      CostBreakdown `json:"cost"`
	Operation Operation     `json:"operation"`
	Cached    bool          `json:"cached"`
	Failed    bool          `json:"failed,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// UserQuota is the mutable per-user daily counter. It is lazily created
// on a user's first request of a day and reset whenever LastResetDate
// falls behind the current date. Owned exclusively by the quota guard.
type UserQuota struct {
	UserID             string  `json:"user_id"`
	DailyTokenLimit    int     `json:"daily_token_limit"`
	DailyCostLimit     float64 `json:"daily_cost_limit"`
	CurrentDailyTokens int     `json:"current_daily_tokens"`
	CurrentDailyCost   float64 `json:"current_daily_cost"`
	LastResetDate      string  `json:"last_reset_date"` // YYYY-MM-DD
}
