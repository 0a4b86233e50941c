package budget

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/careerforge/careerforge/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMonitor(budget float64) (*Monitor, *[]Alert, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	var fired []Alert
	m := New(store, budget, true, func(a Alert) { fired = append(fired, a) }, testLogger())
	return m, &fired, store
}

func TestNoAlertBelowFirstThreshold(t *testing.T) {
	m, fired, _ := newTestMonitor(50.0)

	m.Observe(10.0)
	m.Observe(10.0)

	if len(*fired) != 0 {
		t.Errorf("fired %d alerts below 80%%, want 0", len(*fired))
	}
}

func TestThresholdsFireOnceEach(t *testing.T) {
	m, fired, _ := newTestMonitor(50.0)

	m.Observe(41.0) // 82%
	if len(*fired) != 1 || (*fired)[0].ThresholdPct != 80 {
		t.Fatalf("after 82%%: fired = %+v, want one 80%% alert", *fired)
	}

	m.Observe(1.0) // 84%, still between thresholds
	if len(*fired) != 1 {
		t.Errorf("80%% alert fired again: %+v", *fired)
	}

	m.Observe(6.0) // 96%
	if len(*fired) != 2 || (*fired)[1].ThresholdPct != 95 {
		t.Fatalf("after 96%%: fired = %+v, want 95%% alert", *fired)
	}

	m.Observe(3.0) // 102%
	if len(*fired) != 3 || (*fired)[2].ThresholdPct != 100 {
		t.Fatalf("after 102%%: fired = %+v, want 100%% alert", *fired)
	}

	m.Observe(5.0) // further spend, nothing new
	if len(*fired) != 3 {
		t.Errorf("alerts re-fired after 100%%: %+v", *fired)
	}
}

func TestSingleObservationCrossesMultipleThresholds(t *testing.T) {
	m, fired, _ := newTestMonitor(50.0)

	m.Observe(50.0) // 100% in one step
	if len(*fired) != 3 {
		t.Fatalf("fired = %d alerts, want all three", len(*fired))
	}
	want := []int{80, 95, 100}
	for i, a := range *fired {
		if a.ThresholdPct != want[i] {
			t.Errorf("alert %d = %d%%, want %d%%", i, a.ThresholdPct, want[i])
		}
	}
}

func TestSeedCountsTowardThresholds(t *testing.T) {
	m, fired, _ := newTestMonitor(50.0)

	m.Seed(40.0)
	m.Observe(1.0) // 82% including seeded spend

	if len(*fired) != 1 || (*fired)[0].ThresholdPct != 80 {
		t.Errorf("fired = %+v, want one 80%% alert", *fired)
	}
}

func TestAlertStateSurvivesRestart(t *testing.T) {
	m, fired, store := newTestMonitor(50.0)
	m.Observe(41.0)
	if len(*fired) != 1 {
		t.Fatalf("setup: fired = %d", len(*fired))
	}

	// New monitor over the same store must not re-fire 80%.
	var fired2 []Alert
	m2 := New(store, 50.0, true, func(a Alert) { fired2 = append(fired2, a) }, testLogger())
	m2.Seed(41.0)
	m2.Observe(1.0) // 84%
	if len(fired2) != 0 {
		t.Errorf("restart re-fired alerts: %+v", fired2)
	}

	m2.Observe(6.0) // 96%
	if len(fired2) != 1 || fired2[0].ThresholdPct != 95 {
		t.Errorf("fired after restart = %+v, want 95%% alert", fired2)
	}
}

func TestDisabledMonitorNeverAlerts(t *testing.T) {
	store := storage.NewMemoryStore()
	var fired []Alert
	m := New(store, 50.0, false, func(a Alert) { fired = append(fired, a) }, testLogger())

	m.Observe(100.0)
	if len(fired) != 0 {
		t.Errorf("disabled monitor fired alerts: %+v", fired)
	}
}

func TestDayRollResetsSpend(t *testing.T) {
	m, fired, _ := newTestMonitor(50.0)

	day1 := time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return day1 }
	m.date = day1.Format("2006-01-02")

	m.Observe(41.0)
	if len(*fired) != 1 {
		t.Fatalf("setup: fired = %d", len(*fired))
	}

	m.now = func() time.Time { return day1.AddDate(0, 0, 1) }
	spent, _, lastAlerted := m.Status()
	if spent != 0 {
		t.Errorf("spend after roll = %v, want 0", spent)
	}
	if lastAlerted != 0 {
		t.Errorf("lastAlerted after roll = %d, want 0", lastAlerted)
	}

	// The new day's thresholds fire fresh.
	m.Observe(41.0)
	if len(*fired) != 2 {
		t.Errorf("fired = %d, want 80%% alert on the new day", len(*fired))
	}
}
