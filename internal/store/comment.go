// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"inkwell/internal/models"
)

// maxCommentLen bounds comment content length.
const maxCommentLen = 10_000

// CommentStore handles threaded post comments. Storage is flat
// (post_id, parent_id); the display tree is materialized by BuildCommentTree.
// Comments are append-only.
type CommentStore struct {
	db *sql.DB
}

// NewCommentStore creates a new CommentStore.
func NewCommentStore(db *sql.DB) *CommentStore {
	return &CommentStore{db: db}
}

// Add inserts a comment on a post, optionally as a reply to parentID.
// The parent must exist and belong to the same post; replying across
// posts is a validation failure, as is empty or oversized content.
func (s *CommentStore) Add(postID, authorID uuid.UUID, content string, parentID *uuid.UUID) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, Validation("content", "Comment text is required.")
	}
	if len(content) > maxCommentLen {
		return nil, Validation("content", "Comment is too long.")
	}

	if parentID != nil {
		var parentPostID uuid.UUID
		err := s.db.QueryRow(`SELECT post_id FROM comments WHERE id = $1`, *parentID).Scan(&parentPostID)
		if err == sql.ErrNoRows {
			return nil, Validation("parent", "The comment you are replying to does not exist.")
		}
		if err != nil {
			return nil, fmt.Errorf("comment parent lookup: %w", err)
		}
		if parentPostID != postID {
			return nil, Validation("parent", "The comment you are replying to belongs to another post.")
		}
	}

	c := &models.Comment{}
	err := s.db.QueryRow(`
		INSERT INTO comments (post_id, author_id, parent_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, post_id, author_id, parent_id, content, created_at
	`, postID, authorID, parentID, content).Scan(
		&c.ID, &c.PostID, &c.AuthorID, &c.ParentID, &c.Content, &c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

// ListByPost returns all comments on a post flat, oldest first, with
// author identity resolved in the same query.
func (s *CommentStore) ListByPost(postID uuid.UUID) ([]models.Comment, error) {
	rows, err := s.db.Query(`
		SELECT cm.id, cm.post_id, cm.author_id, cm.parent_id, cm.content, cm.created_at,
		       u.username, u.display_name
		FROM comments cm
		JOIN users u ON u.id = cm.author_id
		WHERE cm.post_id = $1
		ORDER BY cm.created_at ASC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var items []models.Comment
	for rows.Next() {
		var c models.Comment
		err := rows.Scan(
			&c.ID, &c.PostID, &c.AuthorID, &c.ParentID, &c.Content, &c.CreatedAt,
			&c.AuthorUsername, &c.AuthorDisplayName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// TreeByPost returns the comments of a post materialized as a tree.
func (s *CommentStore) TreeByPost(postID uuid.UUID) ([]models.CommentNode, error) {
	flat, err := s.ListByPost(postID)
	if err != nil {
		return nil, err
	}
	return BuildCommentTree(flat), nil
}

// CountByPost returns the number of comments on a post.
func (s *CommentStore) CountByPost(postID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM comments WHERE post_id = $1`, postID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return count, nil
}

// BuildCommentTree materializes a flat creation-ordered comment list
// into a tree. Children stay ordered by creation time ascending at
// every level because the input is. Comments whose parent is missing
// from the input are attached at the root rather than dropped.
func BuildCommentTree(flat []models.Comment) []models.CommentNode {
	byID := make(map[uuid.UUID]bool, len(flat))
	for _, c := range flat {
		byID[c.ID] = true
	}

	children := make(map[uuid.UUID][]models.Comment)
	var roots []models.Comment
	for _, c := range flat {
		if c.ParentID != nil && byID[*c.ParentID] {
			children[*c.ParentID] = append(children[*c.ParentID], c)
			continue
		}
		roots = append(roots, c)
	}

	var build func(list []models.Comment) []models.CommentNode
	build = func(list []models.Comment) []models.CommentNode {
		var nodes []models.CommentNode
		for _, c := range list {
			nodes = append(nodes, models.CommentNode{
				Comment: c,
				Replies: build(children[c.ID]),
			})
		}
		return nodes
	}
	return build(roots)
}
