package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// KeyOptions are the request options that affect vendor output and
// therefore belong in the fingerprint. Anything that doesn't change the
// response (user ID above all) must stay out, or cache efficiency
// collapses to per-user silos.
type KeyOptions struct {
	Model        string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// GenerateKey returns the deterministic fingerprint of a request.
// Equal prompt + relevant options always yield equal keys.
func GenerateKey(prompt string, opts KeyOptions) string {
	h := sha256.New()
	// Fixed field order with NUL separators keeps the digest stable and
	// unambiguous regardless of field contents.
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%d",
		opts.Model,
		strconv.FormatFloat(opts.Temperature, 'g', -1, 64),
		opts.SystemPrompt,
		prompt,
		opts.MaxTokens,
	)
	return hex.EncodeToString(h.Sum(nil))
}

// EmbeddingKey fingerprints an embedding request. Embeddings are fully
// deterministic per model+text, so the key space is separate from text
// generation.
func EmbeddingKey(text, model string) string {
	h := sha256.New()
	fmt.Fprintf(h, "embedding\x00%s\x00%s", model, text)
	return hex.EncodeToString(h.Sum(nil))
}
