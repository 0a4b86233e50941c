package sqlite

import (
	"database/sql"
	"errors"

	"github.com/careerforge/careerforge/internal/types"
)

// GetQuota loads a user's quota counter. Returns ErrNotFound for users
// who have never made a request.
func (s *Store) GetQuota(userID string) (*types.UserQuota, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	q := &types.UserQuota{}
	err := s.db.QueryRow(`
		SELECT user_id, daily_token_limit, daily_cost_limit,
			current_daily_tokens, current_daily_cost, last_reset_date
		FROM user_quotas WHERE user_id = ?
	`, userID).Scan(&q.UserID, &q.DailyTokenLimit, &q.DailyCostLimit,
		&q.CurrentDailyTokens, &q.CurrentDailyCost, &q.LastResetDate)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

// UpsertQuota writes a user's quota counter, creating the row on first use.
func (s *Store) UpsertQuota(q *types.UserQuota) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO user_quotas (user_id, daily_token_limit, daily_cost_limit,
			current_daily_tokens, current_daily_cost, last_reset_date)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			daily_token_limit = excluded.daily_token_limit,
			daily_cost_limit = excluded.daily_cost_limit,
			current_daily_tokens = excluded.current_daily_tokens,
			current_daily_cost = excluded.current_daily_cost,
			last_reset_date = excluded.last_reset_date
	`, q.UserID, q.DailyTokenLimit, q.DailyCostLimit,
		q.CurrentDailyTokens, q.CurrentDailyCost, q.LastResetDate)

	return err
}
