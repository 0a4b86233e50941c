package provider

import (
	"github.com/careerforge/careerforge/internal/types"
)

// Route is the outcome of model selection: a primary model and an
// ordered list of fallbacks on other vendors.
type Route struct {
	Primary   string
	Fallbacks []string
}

// Router picks a model per feature, subscription tier and declared
// complexity. Pure static rules, no I/O; an unknown feature routes to
// the configured default model rather than erroring.
type Router struct {
	defaultModel   string
	fallbackModel  string
	embeddingModel string
}

// Model identifiers used by the routing table.
const (
	modelSonnet    = "claude-3-5-sonnet-20241022"
	modelHaiku     = "claude-3-5-haiku-20241022"
	modelGPT4o     = "gpt-4o"
	modelGPT4oMini = "gpt-4o-mini"
)

// NewRouter creates a Router with the configured defaults.
func NewRouter(defaultModel, fallbackModel, embeddingModel string) *Router {
	return &Router{
		defaultModel:   defaultModel,
		fallbackModel:  fallbackModel,
		embeddingModel: embeddingModel,
	}
}

// SelectModel returns the route for a feature. An explicit model pinned
// by the caller is handled upstream and never reaches routing.
func (r *Router) SelectModel(feature types.Feature, tier types.Tier, complexity types.Complexity) Route {
	primary := r.primaryFor(feature, tier, complexity)
	return Route{
		Primary:   primary,
		Fallbacks: r.Fallbacks(primary),
	}
}

// RouteFor returns the route honoring an explicit model override: a
// pinned model always wins over routing rules.
func (r *Router) RouteFor(pinned string, feature types.Feature, tier types.Tier, complexity types.Complexity) Route {
	if pinned != "" {
		return Route{Primary: pinned, Fallbacks: r.Fallbacks(pinned)}
	}
	return r.SelectModel(feature, tier, complexity)
}

// EmbeddingModel returns the model used for embedding calls.
func (r *Router) EmbeddingModel() string {
	return r.embeddingModel
}

func (r *Router) primaryFor(feature types.Feature, tier types.Tier, complexity types.Complexity) string {
	switch feature {
	case types.FeatureJobMatching:
		// Scoring many postings is volume work; only complex matches
		// justify the stronger model.
		if complexity == types.ComplexityComplex {
			return modelSonnet
		}
		return modelGPT4oMini

	case types.FeatureResumeParsing:
		// Structured extraction, consistent across tiers.
		return modelGPT4o

	case types.FeatureCoverLetter:
		if tier == types.TierPremium {
			return modelSonnet
		}
		if complexity == types.ComplexitySimple {
			return modelHaiku
		}
		return modelGPT4oMini

	case types.FeatureResumeOptimization:
		if tier == types.TierPremium || complexity == types.ComplexityComplex {
			return modelSonnet
		}
		return modelGPT4o

	case types.FeatureEmbedding:
		return r.embeddingModel

	default:
		return r.defaultModel
	}
}

// Fallbacks returns fallback models on a different vendor than the
// primary, so an availability failure switches backends.
func (r *Router) Fallbacks(primary string) []string {
	primaryVendor := VendorForModel(primary)

	if VendorForModel(r.fallbackModel) != primaryVendor {
		return []string{r.fallbackModel}
	}

	// Configured fallback sits on the same vendor as the primary;
	// cross over to the other vendor's workhorse model.
	if primaryVendor == VendorAnthropic {
		return []string{modelGPT4oMini}
	}
	return []string{modelHaiku}
}
