package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"inkwell/internal/models"
	"inkwell/internal/slug"
)

// TagStore manages tags and their attachment to posts.
type TagStore struct {
	db *sql.DB
}

// NewTagStore returns a new TagStore.
func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

// FindBySlug retrieves a tag by slug. Returns nil if not found.
func (s *TagStore) FindBySlug(tagSlug string) (*models.Tag, error) {
	t := &models.Tag{}
	err := s.db.QueryRow(`SELECT id, name, slug FROM tags WHERE slug = $1`, tagSlug).Scan(
		&t.ID, &t.Name, &t.Slug,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tag by slug: %w", err)
	}
	return t, nil
}

// ensure returns the tag with the given name, creating it if necessary.
func (s *TagStore) ensure(name string) (*models.Tag, error) {
	t := &models.Tag{}
	err := s.db.QueryRow(`SELECT id, name, slug FROM tags WHERE name = $1`, name).Scan(
		&t.ID, &t.Name, &t.Slug,
	)
	if err == nil {
		return t, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("find tag by name: %w", err)
	}

	tagSlug, err := slug.Unique(s, name)
	if err != nil {
		return nil, fmt.Errorf("tag slug: %w", err)
	}
	err = s.db.QueryRow(`
		INSERT INTO tags (name, slug) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, slug
	`, name, tagSlug).Scan(&t.ID, &t.Name, &t.Slug)
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return t, nil
}

// SetPostTags replaces a post's tag set with the given names. Names are
// trimmed, deduplicated case-insensitively, and created on first use.
func (s *TagStore) SetPostTags(postID uuid.UUID, names []string) error {
	seen := make(map[string]bool, len(names))
	var tags []*models.Tag
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true

		t, err := s.ensure(name)
		if err != nil {
			return err
		}
		tags = append(tags, t)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("set post tags begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM post_tags WHERE post_id = $1`, postID); err != nil {
		return fmt.Errorf("clear post tags: %w", err)
	}
	for _, t := range tags {
		if _, err := tx.Exec(`
			INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, postID, t.ID); err != nil {
			return fmt.Errorf("attach tag %s: %w", t.Slug, err)
		}
	}

	return tx.Commit()
}

// ListByPost returns the tags attached to a post, ordered by name.
func (s *TagStore) ListByPost(postID uuid.UUID) ([]models.Tag, error) {
	rows, err := s.db.Query(`
		SELECT t.id, t.name, t.slug
		FROM tags t
		JOIN post_tags pt ON pt.tag_id = t.id
		WHERE pt.post_id = $1
		ORDER BY t.name
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("list post tags: %w", err)
	}
	defer rows.Close()

	var items []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// SlugExists implements slug.Checker over tag slugs.
func (s *TagStore) SlugExists(tagSlug string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM tags WHERE slug = $1)`, tagSlug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("tag slug exists: %w", err)
	}
	return exists, nil
}
