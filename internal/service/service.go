// Package service exposes the governed AI facade that platform features
// call. Every AI-powered feature goes through this layer; nothing else
// in the codebase talks to a vendor directly.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/careerforge/careerforge/internal/budget"
	"github.com/careerforge/careerforge/internal/cache"
	"github.com/careerforge/careerforge/internal/executor"
	"github.com/careerforge/careerforge/internal/ledger"
	"github.com/careerforge/careerforge/internal/quota"
	"github.com/careerforge/careerforge/internal/storage"
	"github.com/careerforge/careerforge/internal/types"
)

// Governed composes the governance components behind a small API.
// Construct one per process and inject it; there are no globals.
type Governed struct {
	exec    *executor.Executor
	guard   *quota.Guard
	ledger  *ledger.Ledger
	cache   *cache.Cache
	monitor *budget.Monitor
	logger  *slog.Logger
}

// New creates the facade.
func New(exec *executor.Executor, guard *quota.Guard, l *ledger.Ledger,
	c *cache.Cache, monitor *budget.Monitor, logger *slog.Logger) *Governed {
	return &Governed{
		exec:    exec,
		guard:   guard,
		ledger:  l,
		cache:   c,
		monitor: monitor,
		logger:  logger,
	}
}

// GenerateText runs a governed, blocking text generation.
func (g *Governed) GenerateText(ctx context.Context, prompt string, opts types.GenerateOptions) (*types.Response, error) {
	return g.exec.Do(ctx, &executor.Request{
		Feature:      opts.Feature,
		Tier:         opts.Tier,
		Complexity:   opts.Complexity,
		UserID:       opts.UserID,
		SessionID:    opts.SessionID,
		Prompt:       prompt,
		SystemPrompt: opts.SystemPrompt,
		Model:        opts.Model,
		Temperature:  opts.Temperature,
		MaxTokens:    opts.MaxTokens,
		BypassCache:  opts.BypassCache,
		CacheTTL:     opts.CacheTTL,
	})
}

// StreamText runs a governed streaming generation, delivering content
// through onChunk before the final usage is known.
func (g *Governed) StreamText(ctx context.Context, prompt string, opts types.GenerateOptions, onChunk types.ChunkFunc) (*types.Response, error) {
	return g.exec.Do(ctx, &executor.Request{
		Feature:      opts.Feature,
		Tier:         opts.Tier,
		Complexity:   opts.Complexity,
		UserID:       opts.UserID,
		SessionID:    opts.SessionID,
		Prompt:       prompt,
		SystemPrompt: opts.SystemPrompt,
		Model:        opts.Model,
		Temperature:  opts.Temperature,
		MaxTokens:    opts.MaxTokens,
		BypassCache:  opts.BypassCache,
		CacheTTL:     opts.CacheTTL,
		Stream:       true,
		OnChunk:      onChunk,
	})
}

// GenerateEmbedding runs a governed embedding call with its own cache path.
func (g *Governed) GenerateEmbedding(ctx context.Context, text string, opts types.EmbedOptions) (*types.EmbeddingResponse, error) {
	return g.exec.DoEmbedding(ctx, &executor.EmbeddingRequest{
		Text:      text,
		Model:     opts.Model,
		UserID:    opts.UserID,
		SessionID: opts.SessionID,
	})
}

// UserUsageStats summarizes one user's consumption and allowance.
type UserUsageStats struct {
	Today           *storage.UsageTotals `json:"today"`
	Month           *storage.UsageTotals `json:"month"`
	Quota           types.UserQuota      `json:"quota"`
	RemainingCost   float64              `json:"remaining_cost"`
	RemainingTokens int                  `json:"remaining_tokens"`
}

// GetUserUsageStats returns a user's trailing-day and trailing-month
// usage plus current quota state. Unknown users get zero-valued stats.
func (g *Governed) GetUserUsageStats(userID string) (*UserUsageStats, error) {
	today, err := g.ledger.UserUsage(userID, 1)
	if err != nil {
		return nil, err
	}
	month, err := g.ledger.UserUsage(userID, 30)
	if err != nil {
		return nil, err
	}

	q := g.guard.Snapshot(userID)
	remainingCost := q.DailyCostLimit - q.CurrentDailyCost
	if remainingCost < 0 {
		remainingCost = 0
	}
	remainingTokens := q.DailyTokenLimit - q.CurrentDailyTokens
	if remainingTokens < 0 {
		remainingTokens = 0
	}

	return &UserUsageStats{
		Today:           today,
		Month:           month,
		Quota:           q,
		RemainingCost:   remainingCost,
		RemainingTokens: remainingTokens,
	}, nil
}

// CanMakeRequest reports whether a user has allowance left today.
func (g *Governed) CanMakeRequest(userID string) (bool, string) {
	q := g.guard.Snapshot(userID)
	if q.CurrentDailyCost >= q.DailyCostLimit {
		return false, "Daily cost limit exceeded"
	}
	if q.CurrentDailyTokens >= q.DailyTokenLimit {
		return false, "Daily token limit exceeded"
	}
	return true, ""
}

// WarmupCache precomputes responses for common queries outside the
// request path. Each query must pin its model so the fingerprint
// matches later requests exactly.
func (g *Governed) WarmupCache(ctx context.Context, queries []cache.WarmupQuery) int {
	return g.cache.Warmup(ctx, queries, func(ctx context.Context, q cache.WarmupQuery) (*cache.Entry, error) {
		resp, err := g.exec.Do(ctx, &executor.Request{
			Prompt:       q.Prompt,
			SystemPrompt: q.Options.SystemPrompt,
			Model:        q.Options.Model,
			Temperature:  q.Options.Temperature,
			MaxTokens:    q.Options.MaxTokens,
		})
		if err != nil {
			return nil, err
		}
		return &cache.Entry{
			Content:  resp.Content,
			Usage:    resp.Usage,
			Model:    resp.Model,
			Provider: resp.Provider,
		}, nil
	})
}

// CacheStats exposes cache performance counters.
func (g *Governed) CacheStats() cache.Stats {
	return g.cache.Stats()
}

// SweepCache removes cache entries expired longer than olderThan ago.
func (g *Governed) SweepCache(olderThan time.Duration) int {
	return g.cache.ClearExpired(olderThan)
}

// DailyUsage returns system-wide totals for a calendar day.
func (g *Governed) DailyUsage(date string) (*storage.UsageTotals, error) {
	return g.ledger.DailyUsage(date)
}

// CacheSavings prices cache-served tokens over the trailing days.
func (g *Governed) CacheSavings(days int) (float64, error) {
	return g.ledger.CacheSavings(days)
}

// BudgetStatus reports today's spend against the configured budget.
func (g *Governed) BudgetStatus() (spentUSD, budgetUSD float64, lastAlertedPct int) {
	return g.monitor.Status()
}
