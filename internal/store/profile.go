package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"inkwell/internal/models"
)

// ProfileStore manages user profiles.
type ProfileStore struct {
	db *sql.DB
}

// NewProfileStore returns a new ProfileStore.
func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

const profileColumns = `id, user_id, slug, bio, avatar_media_id, created_at, updated_at`

func scanProfile(scanner interface{ Scan(...any) error }) (*models.Profile, error) {
	p := &models.Profile{}
	err := scanner.Scan(
		&p.ID, &p.UserID, &p.Slug, &p.Bio, &p.AvatarMediaID,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FindByUserID retrieves the profile for a user. Returns nil if not found.
func (s *ProfileStore) FindByUserID(userID uuid.UUID) (*models.Profile, error) {
	row := s.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find profile by user id: %w", err)
	}
	return p, nil
}

// FindBySlug retrieves a profile by its public slug. Returns nil if not found.
func (s *ProfileStore) FindBySlug(slug string) (*models.Profile, error) {
	row := s.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE slug = $1`, slug)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find profile by slug: %w", err)
	}
	return p, nil
}

// UpdateBio replaces the profile's bio text.
func (s *ProfileStore) UpdateBio(userID uuid.UUID, bio string) error {
	_, err := s.db.Exec(`
		UPDATE profiles SET bio = $1, updated_at = NOW() WHERE user_id = $2
	`, bio, userID)
	if err != nil {
		return fmt.Errorf("update profile bio: %w", err)
	}
	return nil
}

// SetAvatar points the profile at an uploaded media row.
func (s *ProfileStore) SetAvatar(userID uuid.UUID, mediaID uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE profiles SET avatar_media_id = $1, updated_at = NOW() WHERE user_id = $2
	`, mediaID, userID)
	if err != nil {
		return fmt.Errorf("set profile avatar: %w", err)
	}
	return nil
}
