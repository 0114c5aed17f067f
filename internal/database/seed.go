package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Seed populates the database with initial development data: a staff
// user (with a profile, created through the same explicit hook the
// registration flow uses) and a root category. No-op if users exist.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var userID string
	err = tx.QueryRow(`
		INSERT INTO users (username, email, password_hash, display_name, is_staff)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id
	`, "admin", "admin@inkwell.local", string(hash), "Admin").Scan(&userID)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO profiles (user_id, slug) VALUES ($1, $2)
	`, userID, "admin")
	if err != nil {
		return fmt.Errorf("seed insert profile: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO categories (title, slug, description)
		VALUES ($1, $2, $3)
	`, "General", "general", "Default category for new posts")
	if err != nil {
		return fmt.Errorf("seed insert category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with default staff user",
		"username", "admin",
		"password", "admin",
	)

	return nil
}
