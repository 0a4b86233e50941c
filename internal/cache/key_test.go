package cache

import "testing"

func TestGenerateKeyDeterministic(t *testing.T) {
	opts := KeyOptions{
		Model:        "gpt-4o",
		SystemPrompt: "You are a career coach.",
		Temperature:  0.7,
		MaxTokens:    500,
	}

	k1 := GenerateKey("write a cover letter", opts)
	k2 := GenerateKey("write a cover letter", opts)
	if k1 != k2 {
		t.Errorf("same inputs produced different keys: %q vs %q", k1, k2)
	}
	if len(k1) != 64 {
		t.Errorf("key length = %d, want 64 hex chars", len(k1))
	}
}

func TestGenerateKeyVariesPerField(t *testing.T) {
	base := KeyOptions{
		Model:        "gpt-4o",
		SystemPrompt: "system",
		Temperature:  0.7,
		MaxTokens:    500,
	}
	baseKey := GenerateKey("prompt", base)

	tests := []struct {
		name   string
		prompt string
		opts   KeyOptions
	}{
		{"different prompt", "other prompt", base},
		{"different model", "prompt", KeyOptions{Model: "gpt-4o-mini", SystemPrompt: "system", Temperature: 0.7, MaxTokens: 500}},
		{"different system prompt", "prompt", KeyOptions{Model: "gpt-4o", SystemPrompt: "other", Temperature: 0.7, MaxTokens: 500}},
		{"different temperature", "prompt", KeyOptions{Model: "gpt-4o", SystemPrompt: "system", Temperature: 0.3, MaxTokens: 500}},
		{"different max tokens", "prompt", KeyOptions{Model: "gpt-4o", SystemPrompt: "system", Temperature: 0.7, MaxTokens: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if GenerateKey(tt.prompt, tt.opts) == baseKey {
				t.Error("expected a different key")
			}
		})
	}
}

// Two users issuing the identical request must share one cache entry.
func TestGenerateKeyIgnoresCaller(t *testing.T) {
	opts := KeyOptions{Model: "gpt-4o", Temperature: 0.7}

	k1 := GenerateKey("score this resume", opts)
	k2 := GenerateKey("score this resume", opts)
	if k1 != k2 {
		t.Error("identical requests must produce identical keys regardless of caller")
	}
}

func TestGenerateKeyFieldBoundaries(t *testing.T) {
	// Content shifted between adjacent fields must not collide.
	a := GenerateKey("bprompt", KeyOptions{SystemPrompt: "sys"})
	b := GenerateKey("prompt", KeyOptions{SystemPrompt: "sysb"})
	if a == b {
		t.Error("field boundary collision")
	}
}

func TestEmbeddingKeySeparateSpace(t *testing.T) {
	text := "senior golang engineer"
	ek := EmbeddingKey(text, "text-embedding-3-small")
	gk := GenerateKey(text, KeyOptions{Model: "text-embedding-3-small"})
	if ek == gk {
		t.Error("embedding keys must not collide with generation keys")
	}

	if EmbeddingKey(text, "text-embedding-3-small") != ek {
		t.Error("embedding key not deterministic")
	}
	if EmbeddingKey(text, "text-embedding-3-large") == ek {
		t.Error("embedding key must vary by model")
	}
}
