// Package storage provides the persistence interface and implementations.
// The governance components only require what this interface offers:
// append/aggregate for usage records, upsert-or-create for quota
// counters, and small settings. An in-memory implementation backs tests.
package storage

import (
	"time"

	"github.com/careerforge/careerforge/internal/storage/models"
	"github.com/careerforge/careerforge/internal/storage/sqlite"
	"github.com/careerforge/careerforge/internal/types"
)

// Re-export types from the models package for convenience.
type (
	UsageTotals = models.UsageTotals
	ModelTokens = models.ModelTokens
)

// Re-export errors from the sqlite package.
var (
	ErrNotFound      = sqlite.ErrNotFound
	ErrStorageClosed = sqlite.ErrStorageClosed
)

// Store defines the persistence contract for the governance subsystem.
type Store interface {
	// Usage record operations. Records are append-only.
	AppendRecord(rec *types.UsageRecord) error
	TotalsForDay(date string) (*models.UsageTotals, error)
	TotalsForUserSince(userID string, since time.Time) (*models.UsageTotals, error)
	CachedTokensSince(since time.Time) ([]*models.ModelTokens, error)
	RecentRecords(limit int) ([]*types.UsageRecord, error)

	// Quota counter operations.
	GetQuota(userID string) (*types.UserQuota, error)
	UpsertQuota(q *types.UserQuota) error

	// Budget alert state: the highest threshold already alerted per day.
	GetAlertThreshold(date string) (int, error)
	SetAlertThreshold(date string, pct int) error

	// Admin password operations.
	GetAdminPasswordHash() (string, error)
	SetAdminPasswordHash(hash string) error
	HasAdminPassword() (bool, error)

	Close() error
}

// NewSQLiteStore creates a new SQLite-backed store.
// This is the main factory function for creating storage.
func NewSQLiteStore(dbPath string) (Store, error) {
	return sqlite.New(dbPath)
}
