package types

import "time"

// Feature identifies which platform feature is making an AI call.
// Routing rules key off the feature, not the prompt content.
type Feature string

const (
	FeatureJobMatching        Feature = "job_matching"
	FeatureResumeParsing      Feature = "resume_parsing"
	FeatureCoverLetter        Feature = "cover_letter"
	FeatureResumeOptimization Feature = "resume_optimization"
	FeatureEmbedding          Feature = "embedding"
)

// Tier is the caller's subscription level.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// Complexity is the caller's declared task complexity.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// GenerateOptions configures a governed text generation call.
// The zero value is usable: routing falls back to the default model and
// caching uses the configured default TTL.
type GenerateOptions struct {
	Feature      Feature       `json:"feature,omitempty"`
	Tier         Tier          `json:"tier,omitempty"`
	Complexity   Complexity    `json:"complexity,omitempty"`
	UserID       string        `json:"user_id,omitempty"`
	SessionID    string        `json:"session_id,omitempty"`
	SystemPrompt string        `json:"system_prompt,omitempty"`
	// Model pins an explicit model, overriding routing entirely.
	Model       string        `json:"model,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	BypassCache bool          `json:"bypass_cache,omitempty"`
	CacheTTL    time.Duration `json:"-"`
}

// EmbedOptions configures a governed embedding call.
type EmbedOptions struct {
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Model     string `json:"model,omitempty"`
}

// Response is the normalized result of a governed text call.
type Response struct {
	Content   string        `json:"content"`
	Usage     TokenUsage    `json:"usage"`
	Cost      CostBreakdown `json:"cost"`
	Model     string        `json:"model"`
	Provider  string        `json:"provider"`
	Cached    bool          `json:"cached"`
	RequestID string        `json:"request_id"`
}

// EmbeddingResponse is the normalized result of a governed embedding call.
type EmbeddingResponse struct {
	Vector   []float64     `json:"vector"`
	Usage    TokenUsage    `json:"usage"`
	Cost     CostBreakdown `json:"cost"`
	Model    string        `json:"model"`
	Provider string        `json:"provider"`
	Cached   bool          `json:"cached"`
}
