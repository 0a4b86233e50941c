package sqlite

import (
	"time"

	"github.com/careerforge/careerforge/internal/storage/models"
	"github.com/careerforge/careerforge/internal/types"
)

const dateLayout = "2006-01-02"

// AppendRecord inserts a usage record. Records are never updated.
func (s *Store) AppendRecord(rec *types.UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO usage_records (id, session_id, user_id, provider, model,
			prompt_tokens, completion_tokens, total_tokens,
			input_cost, output_cost, total_cost, currency,
			operation, cached, estimated, failed, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.SessionID, rec.UserID, rec.Provider, rec.Model,
		rec.Usage.InputTokens, rec.Usage.OutputTokens, rec.Usage.TotalTokens,
		rec.Cost.InputCost, rec.Cost.OutputCost, rec.Cost.TotalCost, rec.Cost.Currency,
		string(rec.Operation), boolToInt(rec.Cached), boolToInt(rec.Usage.Estimated),
		boolToInt(rec.Failed), rec.Timestamp.Format(dateLayout), rec.Timestamp)

	return err
}

const totalsSelect = `SELECT
	COUNT(*),
	COALESCE(SUM(prompt_tokens), 0),
	COALESCE(SUM(completion_tokens), 0),
	COALESCE(SUM(total_tokens), 0),
	COALESCE(SUM(total_cost), 0),
	COALESCE(SUM(cached), 0),
	COALESCE(SUM(estimated), 0),
	COALESCE(SUM(failed), 0)
	FROM usage_records`

// TotalsForDay aggregates all records for a calendar day (YYYY-MM-DD).
func (s *Store) TotalsForDay(date string) (*models.UsageTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	totals := &models.UsageTotals{}
	err := s.db.QueryRow(totalsSelect+" WHERE date = ?", date).Scan(
		&totals.Requests, &totals.PromptTokens, &totals.CompletionTokens,
		&totals.TotalTokens, &totals.Cost, &totals.CachedRequests,
		&totals.EstimatedRequests, &totals.FailedRequests,
	)
	if err != nil {
		return nil, err
	}
	return totals, nil
}

// TotalsForUserSince aggregates one user's records created at or after since.
func (s *Store) TotalsForUserSince(userID string, since time.Time) (*models.UsageTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	totals := &models.UsageTotals{}
	err := s.db.QueryRow(totalsSelect+" WHERE user_id = ? AND created_at >= ?", userID, since).Scan(
		&totals.Requests, &totals.PromptTokens, &totals.CompletionTokens,
		&totals.TotalTokens, &totals.Cost, &totals.CachedRequests,
		&totals.EstimatedRequests, &totals.FailedRequests,
	)
	if err != nil {
		return nil, err
	}
	return totals, nil
}

// CachedTokensSince groups cache-hit token counts by model. The ledger
// prices these to compute what the cache saved.
func (s *Store) CachedTokensSince(since time.Time) ([]*models.ModelTokens, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	rows, err := s.db.Query(`
		SELECT model, COUNT(*),
			COALESCE(SUM(prompt_tokens), 0),
			COALESCE(SUM(completion_tokens), 0)
		FROM usage_records
		WHERE cached = 1 AND created_at >= ?
		GROUP BY model
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ModelTokens
	for rows.Next() {
		var mt models.ModelTokens
		if err := rows.Scan(&mt.Model, &mt.Requests, &mt.InputTokens, &mt.OutputTokens); err != nil {
			return nil, err
		}
		out = append(out, &mt)
	}
	return out, rows.Err()
}

// RecentRecords returns the newest records, newest first.
func (s *Store) RecentRecords(limit int) ([]*types.UsageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(`
		SELECT id, session_id, COALESCE(user_id, ''), provider, model,
			prompt_tokens, completion_tokens, total_tokens,
			input_cost, output_cost, total_cost, currency,
			operation, cached, estimated, failed, created_at
		FROM usage_records
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*types.UsageRecord
	for rows.Next() {
		var rec types.UsageRecord
		var op string
		var cached, estimated, failed int
		err := rows.Scan(&rec.ID, &rec.SessionID, &rec.UserID, &rec.Provider, &rec.Model,
			&rec.Usage.InputTokens, &rec.Usage.OutputTokens, &rec.Usage.TotalTokens,
			&rec.Cost.InputCost, &rec.Cost.OutputCost, &rec.Cost.TotalCost, &rec.Cost.Currency,
			&op, &cached, &estimated, &failed, &rec.Timestamp)
		if err != nil {
			return nil, err
		}
		rec.Operation = types.Operation(op)
		rec.Cached = cached != 0
		rec.Usage.Estimated = estimated != 0
		rec.Failed = failed != 0
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
