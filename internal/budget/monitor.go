// Package budget watches system-wide daily spend against a configured
// ceiling and raises escalating alerts as thresholds are crossed.
package budget

import (
	"log/slog"
	"sync"
	"time"

	"github.com/careerforge/careerforge/internal/storage"
)

// thresholds are the budget percentages that trigger alerts, in
// escalation order.
var thresholds = []int{80, 95, 100}

// Alert describes one threshold crossing.
type Alert struct {
	Date         string
	ThresholdPct int
	SpentUSD     float64
	BudgetUSD    float64
}

// AlertFunc receives alerts as they fire. Called at most once per
// threshold per day.
type AlertFunc func(Alert)

// Monitor aggregates the day's spend and fires each threshold alert the
// first time it is crossed, never on every request after crossing.
type Monitor struct {
	mu          sync.Mutex
	date        string
	spent       float64
	lastAlerted int

	budget  float64
	enabled bool
	store   storage.Store
	alertFn AlertFunc
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Monitor. The last-alerted threshold for today is
// restored from the store so a restart doesn't re-fire old alerts.
func New(store storage.Store, budgetUSD float64, enabled bool, alertFn AlertFunc, logger *slog.Logger) *Monitor {
	m := &Monitor{
		budget:  budgetUSD,
		enabled: enabled,
		store:   store,
		alertFn: alertFn,
		logger:  logger,
		now:     time.Now,
	}
	m.date = m.now().Format("2006-01-02")

	if pct, err := store.GetAlertThreshold(m.date); err == nil {
		m.lastAlerted = pct
	}
	return m
}

// Seed initializes today's running total, typically from the ledger's
// daily aggregate at startup.
func (m *Monitor) Seed(spentUSD float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollDayLocked()
	m.spent = spentUSD
}

// Observe adds a completed request's cost to the day's total and fires
// any newly crossed threshold alerts.
func (m *Monitor) Observe(costUSD float64) {
	if !m.enabled {
		return
	}

	m.mu.Lock()
	m.rollDayLocked()
	m.spent += costUSD

	var fired []Alert
	for _, pct := range thresholds {
		if pct <= m.lastAlerted {
			continue
		}
		if m.spent < m.budget*float64(pct)/100 {
			break
		}
		fired = append(fired, Alert{
			Date:         m.date,
			ThresholdPct: pct,
			SpentUSD:     m.spent,
			BudgetUSD:    m.budget,
		})
		m.lastAlerted = pct
	}

	if len(fired) > 0 {
		if err := m.store.SetAlertThreshold(m.date, m.lastAlerted); err != nil {
			m.logger.Error("failed to persist alert state", "error", err)
		}
	}
	m.mu.Unlock()

	for _, a := range fired {
		m.logger.Warn("daily budget threshold crossed",
			"threshold_pct", a.ThresholdPct,
			"spent_usd", a.SpentUSD,
			"budget_usd", a.BudgetUSD,
		)
		if m.alertFn != nil {
			m.alertFn(a)
		}
	}
}

// Status reports today's spend against the budget.
func (m *Monitor) Status() (spentUSD, budgetUSD float64, lastAlertedPct int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollDayLocked()
	return m.spent, m.budget, m.lastAlerted
}

// rollDayLocked resets the running total when the calendar day changes.
func (m *Monitor) rollDayLocked() {
	today := m.now().Format("2006-01-02")
	if today == m.date {
		return
	}
	m.date = today
	m.spent = 0
	m.lastAlerted = 0

	if pct, err := m.store.GetAlertThreshold(today); err == nil {
		m.lastAlerted = pct
	}
}
