package quota

import (
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/careerforge/careerforge/internal/storage"
	"github.com/careerforge/careerforge/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGuard() (*Guard, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	return New(store, 1.00, 500_000, testLogger()), store
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFirstRequestAllowedWithFullAllowance(t *testing.T) {
	g, _ := newTestGuard()

	d := g.Check("user-1", 0.01)
	if !d.Allowed {
		t.Fatalf("first request denied: %s", d.Reason)
	}
	if d.RemainingCost != 1.00 {
		t.Errorf("remaining cost = %v, want 1.00", d.RemainingCost)
	}
	if d.RemainingTokens != 500_000 {
		t.Errorf("remaining tokens = %d, want 500000", d.RemainingTokens)
	}
}

func TestUpdateReducesAllowance(t *testing.T) {
	g, _ := newTestGuard()

	g.Update("user-1", types.TokenUsage{InputTokens: 500, OutputTokens: 500, TotalTokens: 1000}, 0.25)

	d := g.Check("user-1", 0.01)
	if !d.Allowed {
		t.Fatalf("denied below limit: %s", d.Reason)
	}
	if !almostEqual(d.RemainingCost, 0.75) {
		t.Errorf("remaining cost = %v, want 0.75", d.RemainingCost)
	}
	if d.RemainingTokens != 499_000 {
		t.Errorf("remaining tokens = %d, want 499000", d.RemainingTokens)
	}
}

func TestDeniesWhenCostLimitReached(t *testing.T) {
	g, _ := newTestGuard()

	g.Update("user-1", types.TokenUsage{TotalTokens: 100}, 1.00)

	d := g.Check("user-1", 0.01)
	if d.Allowed {
		t.Fatal("expected denial at cost limit")
	}
	if d.Reason != "Daily cost limit exceeded" {
		t.Errorf("reason = %q", d.Reason)
	}
	if d.RemainingCost != 0 {
		t.Errorf("remaining cost = %v, want 0", d.RemainingCost)
	}
}

func TestDeniesWhenTokenLimitReached(t *testing.T) {
	g, _ := newTestGuard()

	g.Update("user-1", types.TokenUsage{TotalTokens: 500_000}, 0.10)

	d := g.Check("user-1", 0.01)
	if d.Allowed {
		t.Fatal("expected denial at token limit")
	}
	if d.Reason != "Daily token limit exceeded" {
		t.Errorf("reason = %q", d.Reason)
	}
}

func TestDailyReset(t *testing.T) {
	g, _ := newTestGuard()

	day1 := time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return day1 }

	g.Update("user-1", types.TokenUsage{TotalTokens: 100}, 1.00)
	if d := g.Check("user-1", 0.01); d.Allowed {
		t.Fatal("expected denial on day one")
	}

	// Next calendar day: counters reset lazily on the next touch.
	g.now = func() time.Time { return day1.AddDate(0, 0, 1) }
	d := g.Check("user-1", 0.01)
	if !d.Allowed {
		t.Fatalf("expected allowance after reset: %s", d.Reason)
	}
	if d.RemainingCost != 1.00 {
		t.Errorf("remaining cost after reset = %v, want 1.00", d.RemainingCost)
	}
}

func TestQuotaPersistedThroughStore(t *testing.T) {
	g, store := newTestGuard()

	g.Update("user-1", types.TokenUsage{TotalTokens: 1000}, 0.30)

	// A fresh guard sharing the store picks up the day's counters.
	g2 := New(store, 1.00, 500_000, testLogger())
	d := g2.Check("user-1", 0.01)
	if !almostEqual(d.RemainingCost, 0.70) {
		t.Errorf("remaining cost from store = %v, want 0.70", d.RemainingCost)
	}
}

func TestLimitsFollowConfigNotStore(t *testing.T) {
	g, store := newTestGuard()
	g.Update("user-1", types.TokenUsage{TotalTokens: 1000}, 0.30)

	// Restart with a raised limit: stored counters survive, limits don't.
	g2 := New(store, 2.00, 500_000, testLogger())
	d := g2.Check("user-1", 0.01)
	if !almostEqual(d.RemainingCost, 1.70) {
		t.Errorf("remaining cost = %v, want 1.70 under the new limit", d.RemainingCost)
	}
}

func TestSnapshotUnknownUser(t *testing.T) {
	g, _ := newTestGuard()

	q := g.Snapshot("never-seen")
	if q.CurrentDailyCost != 0 || q.CurrentDailyTokens != 0 {
		t.Errorf("unknown user snapshot = %+v, want zero counters", q)
	}
	if q.DailyCostLimit != 1.00 {
		t.Errorf("limit = %v, want configured 1.00", q.DailyCostLimit)
	}
}
