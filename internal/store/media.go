// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"inkwell/internal/models"
)

// MediaStore records uploaded files (post thumbnails, profile avatars)
// stored in object storage.
type MediaStore struct {
	db *sql.DB
}

// NewMediaStore creates a new MediaStore.
func NewMediaStore(db *sql.DB) *MediaStore {
	return &MediaStore{db: db}
}

const mediaColumns = `id, s3_key, bucket, original_name, content_type, size_bytes, alt_text, uploaded_by, created_at`

// Create inserts a media row and returns it.
func (s *MediaStore) Create(m *models.Media) (*models.Media, error) {
	result := &models.Media{}
	err := s.db.QueryRow(`
		INSERT INTO media (s3_key, bucket, original_name, content_type, size_bytes, alt_text, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+mediaColumns,
		m.S3Key, m.Bucket, m.OriginalName, m.ContentType, m.SizeBytes, m.AltText, m.UploadedBy,
	).Scan(
		&result.ID, &result.S3Key, &result.Bucket, &result.OriginalName,
		&result.ContentType, &result.SizeBytes, &result.AltText,
		&result.UploadedBy, &result.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create media: %w", err)
	}
	return result, nil
}

// FindByID retrieves a media row by UUID. Returns nil if not found.
func (s *MediaStore) FindByID(id uuid.UUID) (*models.Media, error) {
	m := &models.Media{}
	err := s.db.QueryRow(`SELECT `+mediaColumns+` FROM media WHERE id = $1`, id).Scan(
		&m.ID, &m.S3Key, &m.Bucket, &m.OriginalName,
		&m.ContentType, &m.SizeBytes, &m.AltText,
		&m.UploadedBy, &m.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find media by id: %w", err)
	}
	return m, nil
}

// Delete removes a media row by ID.
func (s *MediaStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM media WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	return nil
}
