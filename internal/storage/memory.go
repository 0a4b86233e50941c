package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/careerforge/careerforge/internal/storage/models"
	"github.com/careerforge/careerforge/internal/types"
)

// MemoryStore is an in-memory Store, primarily for tests. It satisfies
// the same contract as the SQLite store, including zero-valued results
// for missing data.
type MemoryStore struct {
	mu        sync.RWMutex
	records   []*types.UsageRecord
	quotas    map[string]*types.UserQuota
	alerts    map[string]int
	adminHash string
	closed    bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		quotas: make(map[string]*types.UserQuota),
		alerts: make(map[string]int),
	}
}

// AppendRecord stores a copy of the record so later caller mutations
// cannot rewrite history.
func (m *MemoryStore) AppendRecord(rec *types.UsageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStorageClosed
	}
	cp := *rec
	m.records = append(m.records, &cp)
	return nil
}

// TotalsForDay aggregates all records for a calendar day.
func (m *MemoryStore) TotalsForDay(date string) (*models.UsageTotals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStorageClosed
	}

	totals := &models.UsageTotals{}
	for _, rec := range m.records {
		if rec.Timestamp.Format("2006-01-02") != date {
			continue
		}
		accumulate(totals, rec)
	}
	return totals, nil
}

// TotalsForUserSince aggregates one user's records created at or after since.
func (m *MemoryStore) TotalsForUserSince(userID string, since time.Time) (*models.UsageTotals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStorageClosed
	}

	totals := &models.UsageTotals{}
	for _, rec := range m.records {
		if rec.UserID != userID || rec.Timestamp.Before(since) {
			continue
		}
		accumulate(totals, rec)
	}
	return totals, nil
}

// CachedTokensSince groups cache-hit token counts by model.
func (m *MemoryStore) CachedTokensSince(since time.Time) ([]*models.ModelTokens, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStorageClosed
	}

	byModel := make(map[string]*models.ModelTokens)
	for _, rec := range m.records {
		if !rec.Cached || rec.Timestamp.Before(since) {
			continue
		}
		mt, ok := byModel[rec.Model]
		if !ok {
			mt = &models.ModelTokens{Model: rec.Model}
			byModel[rec.Model] = mt
		}
		mt.Requests++
		mt.InputTokens += rec.Usage.InputTokens
		mt.OutputTokens += rec.Usage.OutputTokens
	}

	out := make([]*models.ModelTokens, 0, len(byModel))
	for _, mt := range byModel {
		out = append(out, mt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out, nil
}

// RecentRecords returns the newest records, newest first.
func (m *MemoryStore) RecentRecords(limit int) ([]*types.UsageRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStorageClosed
	}
	if limit <= 0 {
		limit = 100
	}

	out := make([]*types.UsageRecord, len(m.records))
	copy(out, m.records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetQuota loads a user's quota counter.
func (m *MemoryStore) GetQuota(userID string) (*types.UserQuota, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStorageClosed
	}
	q, ok := m.quotas[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *q
	return &cp, nil
}

// UpsertQuota writes a user's quota counter.
func (m *MemoryStore) UpsertQuota(q *types.UserQuota) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStorageClosed
	}
	cp := *q
	m.quotas[q.UserID] = &cp
	return nil
}

// GetAlertThreshold returns the highest alerted threshold for a day.
func (m *MemoryStore) GetAlertThreshold(date string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrStorageClosed
	}
	return m.alerts[date], nil
}

// SetAlertThreshold records the highest alerted threshold for a day.
func (m *MemoryStore) SetAlertThreshold(date string, pct int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStorageClosed
	}
	m.alerts[date] = pct
	return nil
}

// GetAdminPasswordHash returns the stored admin password hash.
func (m *MemoryStore) GetAdminPasswordHash() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", ErrStorageClosed
	}
	if m.adminHash == "" {
		return "", ErrNotFound
	}
	return m.adminHash, nil
}

// SetAdminPasswordHash stores the admin password hash.
func (m *MemoryStore) SetAdminPasswordHash(hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStorageClosed
	}
	m.adminHash = hash
	return nil
}

// HasAdminPassword reports whether an admin password has been configured.
func (m *MemoryStore) HasAdminPassword() (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return false, ErrStorageClosed
	}
	return m.adminHash != "", nil
}

// Close marks the store closed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func accumulate(totals *models.UsageTotals, rec *types.UsageRecord) {
	totals.Requests++
	totals.PromptTokens += rec.Usage.InputTokens
	totals.CompletionTokens += rec.Usage.OutputTokens
	totals.TotalTokens += rec.Usage.TotalTokens
	totals.Cost += rec.Cost.TotalCost
	if rec.Cached {
		totals.CachedRequests++
	}
	if rec.Usage.Estimated {
		totals.EstimatedRequests++
	}
	if rec.Failed {
		totals.FailedRequests++
	}
}
