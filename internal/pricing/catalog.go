// Package pricing maps model identifiers to per-thousand-token prices.
// The catalog is read-only after load; lookups never fail: unknown
// models fall back to a conservative default rate and log a warning so
// a missing price entry is never silently free.
package pricing

import (
	"log/slog"
	"strings"
	"sync"
)

// Entry holds the per-1k-token prices for one model, in USD.
type Entry struct {
	Model             string  `yaml:"model"`
	InputPerThousand  float64 `yaml:"input_per_1k"`
	OutputPerThousand float64 `yaml:"output_per_1k"`
}

// Default rate applied to unknown models. Deliberately above the price
// of every catalogued model so an unpriced model overstates cost rather
// than understating it.
const (
	DefaultInputPerThousand  = 0.015
	DefaultOutputPerThousand = 0.075
)

// builtin is the static pricing table for both vendors' models.
var builtin = []Entry{
	// Anthropic
	{Model: "claude-3-5-sonnet-20241022", InputPerThousand: 0.003, OutputPerThousand: 0.015},
	{Model: "claude-3-5-haiku-20241022", InputPerThousand: 0.0008, OutputPerThousand: 0.004},
	{Model: "claude-3-opus-20240229", InputPerThousand: 0.015, OutputPerThousand: 0.075},
	{Model: "claude-3-haiku-20240307", InputPerThousand: 0.00025, OutputPerThousand: 0.00125},

	// OpenAI
	{Model: "gpt-4o", InputPerThousand: 0.0025, OutputPerThousand: 0.01},
	{Model: "gpt-4o-mini", InputPerThousand: 0.00015, OutputPerThousand: 0.0006},
	{Model: "gpt-4-turbo", InputPerThousand: 0.01, OutputPerThousand: 0.03},
	{Model: "o1-mini", InputPerThousand: 0.0011, OutputPerThousand: 0.0044},

	// Embeddings (no output tokens)
	{Model: "text-embedding-3-small", InputPerThousand: 0.00002, OutputPerThousand: 0},
	{Model: "text-embedding-3-large", InputPerThousand: 0.00013, OutputPerThousand: 0},
}

// Catalog is a pure lookup table from model to prices.
type Catalog struct {
	entries map[string]Entry
	logger  *slog.Logger

	// warned dedups the unknown-model warning per model so a hot
	// unpriced model doesn't flood the log.
	warned sync.Map
}

// NewCatalog builds a catalog from the built-in table.
func NewCatalog(logger *slog.Logger) *Catalog {
	c := &Catalog{
		entries: make(map[string]Entry, len(builtin)),
		logger:  logger,
	}
	for _, e := range builtin {
		c.entries[e.Model] = e
	}
	return c
}

// Lookup returns the entry for an exact model identifier.
func (c *Catalog) Lookup(model string) (Entry, bool) {
	e, ok := c.entries[model]
	return e, ok
}

// Rate returns the prices for a model, falling back to a prefix match
// (vendors ship dated snapshots of the same model) and finally to the
// conservative default rate.
func (c *Catalog) Rate(model string) Entry {
	if e, ok := c.entries[model]; ok {
		return e
	}

	for name, e := range c.entries {
		if strings.HasPrefix(model, name) {
			return e
		}
	}

	if _, already := c.warned.LoadOrStore(model, true); !already {
		c.logger.Warn("no pricing entry for model, using default rate",
			"model", model,
			"input_per_1k", DefaultInputPerThousand,
			"output_per_1k", DefaultOutputPerThousand,
		)
	}
	return Entry{
		Model:             model,
		InputPerThousand:  DefaultInputPerThousand,
		OutputPerThousand: DefaultOutputPerThousand,
	}
}

// Models returns the catalogued model identifiers.
func (c *Catalog) Models() []string {
	models := make([]string, 0, len(c.entries))
	for m := range c.entries {
		models = append(models, m)
	}
	return models
}
