// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/models"
)

// PostStore handles all post-related database operations. Listing
// queries resolve the author and category in the same SELECT so a page
// of N posts costs one query, not 2N+1.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

// postSelect is the shared SELECT for post queries with eager author
// and category resolution. Ordering and WHERE clauses are appended by
// each method.
const postSelect = `
	SELECT p.id, p.title, p.slug, p.description, p.body, p.category_id,
	       p.thumbnail_media_id, p.status, p.fixed, p.author_id, p.updater_id,
	       p.created_at, p.updated_at,
	       u.username, u.display_name, c.title, c.slug
	FROM posts p
	JOIN users u ON u.id = p.author_id
	JOIN categories c ON c.id = p.category_id
`

// postOrder is the default listing order: pinned posts first, then
// newest first.
const postOrder = ` ORDER BY p.fixed DESC, p.created_at DESC`

func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	p := &models.Post{}
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Description, &p.Body, &p.CategoryID,
		&p.ThumbnailMediaID, &p.Status, &p.Fixed, &p.AuthorID, &p.UpdaterID,
		&p.CreatedAt, &p.UpdatedAt,
		&p.AuthorUsername, &p.AuthorDisplayName, &p.CategoryTitle, &p.CategorySlug,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostStore) queryPosts(query string, args ...any) ([]models.Post, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var items []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// ListPublished returns a page of published posts, pinned first then
// newest first.
func (s *PostStore) ListPublished(limit, offset int) ([]models.Post, error) {
	return s.queryPosts(
		postSelect+` WHERE p.status = 'published'`+postOrder+` LIMIT $1 OFFSET $2`,
		limit, offset,
	)
}

// CountPublished returns the total number of published posts.
func (s *PostStore) CountPublished() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM posts WHERE status = 'published'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count published posts: %w", err)
	}
	return count, nil
}

// categoryScope resolves the set of category IDs a category listing
// covers: the category itself when it has published posts of its own,
// otherwise its direct children. The fallback is exactly one level —
// grandchildren are never included.
func (s *PostStore) categoryScope(categorySlug string) ([]uuid.UUID, error) {
	var catID uuid.UUID
	err := s.db.QueryRow(`SELECT id FROM categories WHERE slug = $1`, categorySlug).Scan(&catID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("category scope lookup: %w", err)
	}

	var direct int
	err = s.db.QueryRow(`
		SELECT COUNT(*) FROM posts WHERE category_id = $1 AND status = 'published'
	`, catID).Scan(&direct)
	if err != nil {
		return nil, fmt.Errorf("category scope count: %w", err)
	}
	if direct > 0 {
		return []uuid.UUID{catID}, nil
	}

	rows, err := s.db.Query(`SELECT id FROM categories WHERE parent_id = $1`, catID)
	if err != nil {
		return nil, fmt.Errorf("category scope children: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan child category id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		// Keep the category itself so the listing is an empty page, not
		// an error.
		ids = append(ids, catID)
	}
	return ids, nil
}

// ListByCategorySlug returns a page of published posts for a category.
// A category with no posts of its own falls back to the posts of its
// direct children. Returns ErrNotFound when no such category exists.
func (s *PostStore) ListByCategorySlug(categorySlug string, limit, offset int) ([]models.Post, error) {
	ids, err := s.categoryScope(categorySlug)
	if err != nil {
		return nil, err
	}
	placeholders, args := uuidArgs(ids, 1)
	args = append(args, limit, offset)
	return s.queryPosts(
		postSelect+` WHERE p.status = 'published' AND p.category_id IN (`+placeholders+`)`+
			postOrder+fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(ids)+1, len(ids)+2),
		args...,
	)
}

// uuidArgs expands ids into "$n, $n+1, ..." placeholders starting at
// start, returning the placeholder string and the matching args slice.
func uuidArgs(ids []uuid.UUID, start int) (string, []any) {
	placeholders := make([]byte, 0, len(ids)*4)
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders = append(placeholders, ", "...)
		}
		placeholders = fmt.Appendf(placeholders, "$%d", start+i)
		args = append(args, id)
	}
	return string(placeholders), args
}

// CountByCategorySlug counts the posts ListByCategorySlug would return.
func (s *PostStore) CountByCategorySlug(categorySlug string) (int, error) {
	ids, err := s.categoryScope(categorySlug)
	if err != nil {
		return 0, err
	}
	placeholders, args := uuidArgs(ids, 1)
	var count int
	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM posts WHERE status = 'published' AND category_id IN (`+placeholders+`)`,
		args...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count posts by category: %w", err)
	}
	return count, nil
}

// ListByTagSlug returns a page of published posts carrying the tag.
// Returns ErrNotFound when no such tag exists.
func (s *PostStore) ListByTagSlug(tagSlug string, limit, offset int) ([]models.Post, error) {
	var tagID uuid.UUID
	err := s.db.QueryRow(`SELECT id FROM tags WHERE slug = $1`, tagSlug).Scan(&tagID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tag lookup: %w", err)
	}
	return s.queryPosts(
		postSelect+`
		JOIN post_tags pt ON pt.post_id = p.id
		WHERE p.status = 'published' AND pt.tag_id = $1`+postOrder+` LIMIT $2 OFFSET $3`,
		tagID, limit, offset,
	)
}

// CountByTagSlug counts published posts carrying the tag.
func (s *PostStore) CountByTagSlug(tagSlug string) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM posts p
		JOIN post_tags pt ON pt.post_id = p.id
		JOIN tags t ON t.id = pt.tag_id
		WHERE p.status = 'published' AND t.slug = $1
	`, tagSlug).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count posts by tag: %w", err)
	}
	return count, nil
}

// FindPublishedBySlug retrieves a published post by slug. Returns nil
// if no published post carries the slug.
func (s *PostStore) FindPublishedBySlug(slug string) (*models.Post, error) {
	row := s.db.QueryRow(postSelect+` WHERE p.slug = $1 AND p.status = 'published'`, slug)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find published post by slug: %w", err)
	}
	return p, nil
}

// FindBySlug retrieves a post by slug regardless of status. Used by the
// edit flow where authors see their own drafts.
func (s *PostStore) FindBySlug(slug string) (*models.Post, error) {
	row := s.db.QueryRow(postSelect+` WHERE p.slug = $1`, slug)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return p, nil
}

// FindByID retrieves a post by UUID. Returns nil if not found.
func (s *PostStore) FindByID(id uuid.UUID) (*models.Post, error) {
	row := s.db.QueryRow(postSelect+` WHERE p.id = $1`, id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return p, nil
}

// Create inserts a new post and returns it. The slug must already be
// generated; losing a slug race to a concurrent creation surfaces as a
// ValidationError through the UNIQUE constraint.
func (s *PostStore) Create(p *models.Post) (*models.Post, error) {
	var id uuid.UUID
	err := s.db.QueryRow(`
		INSERT INTO posts (title, slug, description, body, category_id,
		                   thumbnail_media_id, status, fixed, author_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, p.Title, p.Slug, p.Description, p.Body, p.CategoryID,
		p.ThumbnailMediaID, p.Status, p.Fixed, p.AuthorID,
	).Scan(&id)
	if isUniqueViolation(err) {
		return nil, Validation("slug", "A post with this slug already exists.")
	}
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return s.FindByID(id)
}

// Update modifies an existing post on behalf of editor. Only the
// original author (or staff) may update; the editor is recorded as the
// post's updater. Returns ErrNotFound if the post is gone and
// ErrPermissionDenied for any other editor.
func (s *PostStore) Update(p *models.Post, editor *models.User) (*models.Post, error) {
	var authorID uuid.UUID
	err := s.db.QueryRow(`SELECT author_id FROM posts WHERE id = $1`, p.ID).Scan(&authorID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update post lookup: %w", err)
	}

	if authorID != editor.ID && !editor.IsStaff {
		return nil, ErrPermissionDenied
	}

	_, err = s.db.Exec(`
		UPDATE posts SET
			title = $1, slug = $2, description = $3, body = $4,
			category_id = $5, thumbnail_media_id = $6, status = $7,
			fixed = $8, updater_id = $9, updated_at = $10
		WHERE id = $11
	`, p.Title, p.Slug, p.Description, p.Body,
		p.CategoryID, p.ThumbnailMediaID, p.Status,
		p.Fixed, editor.ID, time.Now(), p.ID,
	)
	if isUniqueViolation(err) {
		return nil, Validation("slug", "A post with this slug already exists.")
	}
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return s.FindByID(p.ID)
}

// Delete removes a post by ID.
func (s *PostStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// SlugExists implements slug.Checker over post slugs.
func (s *PostStore) SlugExists(slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("post slug exists: %w", err)
	}
	return exists, nil
}

// ExceptID returns a slug.Checker that ignores one post, so a title
// edit does not collide with the post's own current slug.
func (s *PostStore) ExceptID(id uuid.UUID) *postSlugExcept {
	return &postSlugExcept{db: s.db, id: id}
}

type postSlugExcept struct {
	db *sql.DB
	id uuid.UUID
}

func (c *postSlugExcept) SlugExists(slug string) (bool, error) {
	var exists bool
	err := c.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1 AND id <> $2)
	`, slug, c.id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("post slug exists except: %w", err)
	}
	return exists, nil
}
