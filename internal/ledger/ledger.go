// Package ledger converts token usage into dollar costs and keeps the
// append-only record of every governed request.
package ledger

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/careerforge/careerforge/internal/pricing"
	"github.com/careerforge/careerforge/internal/storage"
	"github.com/careerforge/careerforge/internal/types"
)

// Ledger owns the usage record log. Records are created exactly once
// per completed or failed request and never mutated.
type Ledger struct {
	catalog *pricing.Catalog
	store   storage.Store
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Ledger backed by the given store.
func New(catalog *pricing.Catalog, store storage.Store, logger *slog.Logger) *Ledger {
	return &Ledger{
		catalog: catalog,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
}

// CalculateCost prices usage against the catalog. Unknown models get
// the catalog's conservative default rate; the catalog logs the warning.
func (l *Ledger) CalculateCost(model string, usage types.TokenUsage) types.CostBreakdown {
	rate := l.catalog.Rate(model)

	inputCost := float64(usage.InputTokens) / 1000 * rate.InputPerThousand
	outputCost := float64(usage.OutputTokens) / 1000 * rate.OutputPerThousand

	return types.CostBreakdown{
		InputCost:  inputCost,
		OutputCost: outputCost,
		TotalCost:  inputCost + outputCost,
		Currency:   "USD",
	}
}

// RecordParams describes the request being recorded.
type RecordParams struct {
	SessionID string
	UserID    string
	Provider  string
	Model     string
	Usage     types.TokenUsage
	Cost      types.CostBreakdown
	Operation types.Operation
	Cached    bool
	Failed    bool
}

// RecordUsage appends a usage record. It always returns a record: a
// storage failure is logged but must never abort the governed call.
func (l *Ledger) RecordUsage(p RecordParams) *types.UsageRecord {
	rec := &types.UsageRecord{
		ID:        uuid.New().String(),
		SessionID: p.SessionID,
		UserID:    p.UserID,
		Provider:  p.Provider,
		Model:     p.Model,
		Usage:     p.Usage,
		Cost:      p.Cost,
		Operation: p.Operation,
		Cached:    p.Cached,
		Failed:    p.Failed,
		Timestamp: l.now(),
	}

	if err := l.store.AppendRecord(rec); err != nil {
		l.logger.Error("failed to persist usage record",
			"record_id", rec.ID,
			"model", rec.Model,
			"error", err,
		)
	}
	return rec
}

// DailyUsage aggregates all usage for a calendar day (YYYY-MM-DD).
// Days with no traffic yield zero totals, never an error.
func (l *Ledger) DailyUsage(date string) (*storage.UsageTotals, error) {
	return l.store.TotalsForDay(date)
}

// UserUsage aggregates one user's usage over the trailing number of days.
func (l *Ledger) UserUsage(userID string, days int) (*storage.UsageTotals, error) {
	if days <= 0 {
		days = 1
	}
	since := l.now().AddDate(0, 0, -days)
	return l.store.TotalsForUserSince(userID, since)
}

// CacheSavings prices the tokens served from cache over the trailing
// number of days: what those responses would have cost at catalog rates.
func (l *Ledger) CacheSavings(days int) (float64, error) {
	if days <= 0 {
		days = 1
	}
	since := l.now().AddDate(0, 0, -days)

	byModel, err := l.store.CachedTokensSince(since)
	if err != nil {
		return 0, err
	}

	var saved float64
	for _, mt := range byModel {
		usage := types.TokenUsage{
			InputTokens:  mt.InputTokens,
			OutputTokens: mt.OutputTokens,
			TotalTokens:  mt.InputTokens + mt.OutputTokens,
		}
		saved += l.CalculateCost(mt.Model, usage).TotalCost
	}
	return saved, nil
}
