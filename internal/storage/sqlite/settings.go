package sqlite

import (
	"database/sql"
	"errors"
)

const adminPasswordKey = "admin_password_hash"

// GetAlertThreshold returns the highest budget threshold already alerted
// for a day, or 0 when no alert has fired yet.
func (s *Store) GetAlertThreshold(date string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStorageClosed
	}

	var pct int
	err := s.db.QueryRow(`SELECT threshold_pct FROM budget_alerts WHERE date = ?`, date).Scan(&pct)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return pct, nil
}

// SetAlertThreshold records the highest threshold alerted for a day.
func (s *Store) SetAlertThreshold(date string, pct int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO budget_alerts (date, threshold_pct)
		VALUES (?, ?)
		ON CONFLICT(date) DO UPDATE SET
			threshold_pct = excluded.threshold_pct,
			updated_at = CURRENT_TIMESTAMP
	`, date, pct)
	return err
}

// GetAdminPasswordHash returns the stored admin password hash.
func (s *Store) GetAdminPasswordHash() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", ErrStorageClosed
	}

	var hash string
	err := s.db.QueryRow(`SELECT value FROM admin_settings WHERE key = ?`, adminPasswordKey).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}

// SetAdminPasswordHash stores the admin password hash.
func (s *Store) SetAdminPasswordHash(hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO admin_settings (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, adminPasswordKey, hash)
	return err
}

// HasAdminPassword reports whether an admin password has been configured.
func (s *Store) HasAdminPassword() (bool, error) {
	_, err := s.GetAdminPasswordHash()
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
