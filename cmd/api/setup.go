package main

import (
	"fmt"

	"github.com/careerforge/careerforge/internal/auth"
	"github.com/careerforge/careerforge/internal/config"
	"github.com/careerforge/careerforge/internal/storage"
	"github.com/careerforge/careerforge/internal/transport/http/middleware"
)

// ensureAdminPassword seeds the stored hash from ADMIN_PASSWORD on
// first run. Without a configured password the admin API stays open
// (localhost-first design).
func ensureAdminPassword(store storage.Store, cfg *config.Config) error {
	hasPassword, err := store.HasAdminPassword()
	if err != nil {
		return fmt.Errorf("failed to check admin password: %w", err)
	}
	if hasPassword || cfg.AdminPassword == "" {
		return nil
	}

	hash, err := auth.HashPassword(cfg.AdminPassword, auth.DefaultParams())
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	if err := store.SetAdminPasswordHash(hash); err != nil {
		return fmt.Errorf("failed to save admin password: %w", err)
	}
	return nil
}

// adminVerifier returns the verify func for admin auth, or nil when no
// password is stored.
func adminVerifier(store storage.Store) (middleware.VerifyFunc, error) {
	hasPassword, err := store.HasAdminPassword()
	if err != nil {
		return nil, err
	}
	if !hasPassword {
		return nil, nil
	}

	return func(password string) bool {
		hash, err := store.GetAdminPasswordHash()
		if err != nil {
			return false
		}
		ok, err := auth.VerifyPassword(password, hash)
		return err == nil && ok
	}, nil
}
