package tokenizer

import "testing"

func TestEstimateEmptyText(t *testing.T) {
	e := New()
	if got := e.Estimate("", "gpt-4o"); got != 0 {
		t.Errorf("Estimate(\"\") = %d, want 0", got)
	}
}

func TestEstimateNeverZeroForText(t *testing.T) {
	e := New()

	tests := []struct {
		name  string
		text  string
		model string
	}{
		{"short text gpt", "Hello, world!", "gpt-4o"},
		{"short text claude", "Hello, world!", "claude-3-5-sonnet-20241022"},
		{"unknown model", "Hello, world!", "totally-unknown-model"},
		{"longer text", "The quick brown fox jumps over the lazy dog, repeatedly and with enthusiasm.", "gpt-4o-mini"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Estimate(tt.text, tt.model); got <= 0 {
				t.Errorf("Estimate(%q, %q) = %d, want > 0", tt.text, tt.model, got)
			}
		})
	}
}

func TestEstimateScalesWithLength(t *testing.T) {
	e := New()

	short := e.Estimate("one two three", "gpt-4o")
	long := e.Estimate("one two three four five six seven eight nine ten eleven twelve", "gpt-4o")
	if long <= short {
		t.Errorf("longer text estimated %d tokens, shorter %d; want longer > shorter", long, short)
	}
}

func TestResolveEncoding(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"gpt-4o", encodingO200kBase},
		{"gpt-4o-mini", encodingO200kBase},
		{"gpt-4-turbo", encodingCL100kBase},
		{"o1-mini", encodingO200kBase},
		{"text-embedding-3-small", encodingCL100kBase},
		{"claude-3-5-sonnet-20241022", encodingCL100kBase},
		{"unknown", encodingCL100kBase},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := resolveEncoding(tt.model); got != tt.want {
				t.Errorf("resolveEncoding(%q) = %q, want %q", tt.model, got, tt.want)
			}
		})
	}
}

func TestFallbackEstimate(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"abcd", 1},
		{"abcde", 2},
		{"abcdefgh", 2},
		{"a", 1},
	}

	for _, tt := range tests {
		if got := fallbackEstimate(tt.text); got != tt.want {
			t.Errorf("fallbackEstimate(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
