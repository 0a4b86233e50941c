// Package quota enforces per-user rolling daily allowances.
//
// Enforcement is approximate, not exact: Check and Update are separate
// calls around a vendor request, so two concurrent requests from the
// same user can both pass Check before either Update lands. The design
// tolerates small overruns rather than serializing all of a user's
// requests behind a vendor round-trip.
package quota

import (
	"log/slog"
	"sync"
	"time"

	"github.com/careerforge/careerforge/internal/storage"
	"github.com/careerforge/careerforge/internal/types"
)

const dateLayout = "2006-01-02"

// Decision is the outcome of a quota check. Remaining values are
// reported even on denial so callers can explain the limit to users.
type Decision struct {
	Allowed         bool    `json:"allowed"`
	RemainingCost   float64 `json:"remaining_cost"`
	RemainingTokens int     `json:"remaining_tokens"`
	Reason          string  `json:"reason,omitempty"`
}

// Guard exclusively owns the per-user quota map. Counters are persisted
// through the store so restarts don't forget the day's spend, but the
// hot path never blocks on storage reads after first touch.
type Guard struct {
	mu     sync.Mutex
	quotas map[string]*types.UserQuota

	store      storage.Store
	costLimit  float64
	tokenLimit int
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a Guard with the configured per-user daily limits.
func New(store storage.Store, costLimit float64, tokenLimit int, logger *slog.Logger) *Guard {
	return &Guard{
		quotas:     make(map[string]*types.UserQuota),
		store:      store,
		costLimit:  costLimit,
		tokenLimit: tokenLimit,
		logger:     logger,
		now:        time.Now,
	}
}

// Check approves or denies a request before any vendor spend. The first
// request of a day (or after a stale reset date) is always allowed and
// reports the full allowance.
func (g *Guard) Check(userID string, estimatedCost float64) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	q := g.loadLocked(userID)
	g.resetIfStaleLocked(q)

	remainingCost := q.DailyCostLimit - q.CurrentDailyCost
	remainingTokens := q.DailyTokenLimit - q.CurrentDailyTokens
	if remainingCost < 0 {
		remainingCost = 0
	}
	if remainingTokens < 0 {
		remainingTokens = 0
	}

	if remainingCost < estimatedCost {
		return Decision{
			Allowed:         false,
			RemainingCost:   remainingCost,
			RemainingTokens: remainingTokens,
			Reason:          "Daily cost limit exceeded",
		}
	}
	if remainingTokens <= 0 {
		return Decision{
			Allowed:       false,
			RemainingCost: remainingCost,
			Reason:        "Daily token limit exceeded",
		}
	}

	return Decision{
		Allowed:         true,
		RemainingCost:   remainingCost,
		RemainingTokens: remainingTokens,
	}
}

// Update adds a completed request's usage to the user's running totals.
// Called after cost is known; persistence failures are logged, never
// surfaced, since the spend already happened.
func (g *Guard) Update(userID string, usage types.TokenUsage, cost float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	q := g.loadLocked(userID)
	g.resetIfStaleLocked(q)

	q.CurrentDailyTokens += usage.TotalTokens
	q.CurrentDailyCost += cost

	if err := g.store.UpsertQuota(q); err != nil {
		g.logger.Error("failed to persist quota counter", "user_id", userID, "error", err)
	}
}

// Snapshot returns a copy of a user's current quota state.
func (g *Guard) Snapshot(userID string) types.UserQuota {
	g.mu.Lock()
	defer g.mu.Unlock()

	q := g.loadLocked(userID)
	g.resetIfStaleLocked(q)
	return *q
}

// loadLocked returns the user's quota, pulling it from the store on
// first touch and lazily creating it for brand-new users.
func (g *Guard) loadLocked(userID string) *types.UserQuota {
	if q, ok := g.quotas[userID]; ok {
		return q
	}

	if stored, err := g.store.GetQuota(userID); err == nil {
		// Limits follow current config, not what was persisted.
		stored.DailyCostLimit = g.costLimit
		stored.DailyTokenLimit = g.tokenLimit
		g.quotas[userID] = stored
		return stored
	}

	q := &types.UserQuota{
		UserID:          userID,
		DailyTokenLimit: g.tokenLimit,
		DailyCostLimit:  g.costLimit,
		LastResetDate:   g.today(),
	}
	g.quotas[userID] = q
	return q
}

// resetIfStaleLocked zeroes the counters when the stored reset date is
// not today. Quotas are never deleted; the next day's reset supersedes.
func (g *Guard) resetIfStaleLocked(q *types.UserQuota) {
	today := g.today()
	if q.LastResetDate == today {
		return
	}
	q.CurrentDailyTokens = 0
	q.CurrentDailyCost = 0
	q.LastResetDate = today
}

func (g *Guard) today() string {
	return g.now().Format(dateLayout)
}
