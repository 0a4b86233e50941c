package provider

import (
	"strings"

	"github.com/careerforge/careerforge/internal/config"
	"github.com/careerforge/careerforge/internal/provider/anthropic"
	"github.com/careerforge/careerforge/internal/provider/openai"
	"github.com/careerforge/careerforge/internal/tokenizer"
	"github.com/careerforge/careerforge/internal/types"
)

// NewClients constructs a client for every vendor with a configured
// credential. At least one vendor must be configured; each individual
// client fails fast on its own missing pieces.
func NewClients(cfg *config.Config, est *tokenizer.Estimator) (map[string]Client, error) {
	clients := make(map[string]Client)

	if cfg.AnthropicAPIKey != "" {
		c, err := anthropic.New(cfg.AnthropicAPIKey, est)
		if err != nil {
			return nil, err
		}
		clients[VendorAnthropic] = c
	}

	if cfg.OpenAIAPIKey != "" {
		c, err := openai.New(cfg.OpenAIAPIKey, est)
		if err != nil {
			return nil, err
		}
		clients[VendorOpenAI] = c
	}

	if len(clients) == 0 {
		return nil, types.NewError(types.KindConfiguration,
			"no vendor credentials configured; set ANTHROPIC_API_KEY or OPENAI_API_KEY", nil)
	}
	return clients, nil
}

// VendorForModel maps a model identifier to its vendor.
func VendorForModel(model string) string {
	if strings.HasPrefix(strings.ToLower(model), "claude") {
		return VendorAnthropic
	}
	return VendorOpenAI
}
