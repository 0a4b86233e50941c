// Package tokenizer estimates token counts for prompts and responses.
// Estimates feed quota pre-checks and the streaming usage fallback;
// they are never treated as vendor-exact.
package tokenizer

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// charsPerToken is the last-resort heuristic when no encoding is
// available: roughly four characters of English text per token.
const charsPerToken = 4

// Encoding names used by tiktoken.
const (
	encodingCL100kBase = "cl100k_base" // GPT-4, GPT-3.5-turbo, Claude approximation
	encodingO200kBase  = "o200k_base"  // GPT-4o, o1 models
)

// modelEncoding pairs a model prefix with its encoding.
type modelEncoding struct {
	prefix   string
	encoding string
}

// modelEncodings lists model prefixes and their encodings.
// Ordered so longer prefixes match before their shorter parents.
var modelEncodings = []modelEncoding{
	{"text-embedding", encodingCL100kBase},
	{"gpt-4o", encodingO200kBase}, // Must come before "gpt-4"
	{"gpt-4", encodingCL100kBase},
	{"o1", encodingO200kBase},
	{"o3", encodingO200kBase},
}

// Estimator counts tokens with tiktoken, caching encodings per name.
type Estimator struct {
	mu        sync.RWMutex
	encodings map[string]*tiktoken.Tiktoken
}

// New creates a new Estimator.
func New() *Estimator {
	return &Estimator{
		encodings: make(map[string]*tiktoken.Tiktoken),
	}
}

// Estimate returns the approximate token count of text for a model.
// Falls back to the character heuristic if the encoding can't be built
// (e.g., offline without the BPE file); estimation must never fail.
func (e *Estimator) Estimate(text, model string) int {
	if text == "" {
		return 0
	}

	enc, err := e.getEncoding(model)
	if err != nil {
		return fallbackEstimate(text)
	}
	return len(enc.Encode(text, nil, nil))
}

// fallbackEstimate applies the chars-per-token heuristic, rounding up.
func fallbackEstimate(text string) int {
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// getEncoding returns the tiktoken encoding for a model, with caching.
func (e *Estimator) getEncoding(model string) (*tiktoken.Tiktoken, error) {
	name := resolveEncoding(model)

	e.mu.RLock()
	enc, ok := e.encodings[name]
	e.mu.RUnlock()
	if ok {
		return enc, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if enc, ok = e.encodings[name]; ok {
		return enc, nil
	}

	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, err
	}
	e.encodings[name] = enc
	return enc, nil
}

// resolveEncoding determines the encoding name for a model.
func resolveEncoding(model string) string {
	modelLower := strings.ToLower(model)

	for _, me := range modelEncodings {
		if strings.HasPrefix(modelLower, me.prefix) {
			return me.encoding
		}
	}

	// cl100k_base is a reasonable approximation for Claude models too.
	return encodingCL100kBase
}
