// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a single comment on a post. Comments are stored flat
// (post_id, parent_id) and materialized into a tree for display.
// They are append-only: no edit or delete operations exist.
type Comment struct {
	ID        uuid.UUID  `json:"id"`
	PostID    uuid.UUID  `json:"post_id"`
	AuthorID  uuid.UUID  `json:"author_id"`
	ParentID  *uuid.UUID `json:"parent_id"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`

	// Virtual fields resolved by the store.
	AuthorUsername    string `json:"author_username,omitempty"`
	AuthorDisplayName string `json:"author_display_name,omitempty"`
}

// AuthorName returns the comment author's display name, falling back to
// the username.
func (c Comment) AuthorName() string {
	if c.AuthorDisplayName != "" {
		return c.AuthorDisplayName
	}
	return c.AuthorUsername
}

// CommentNode is a comment with its replies, ordered by creation time
// ascending at every level.
type CommentNode struct {
	Comment
	Replies []CommentNode `json:"replies,omitempty"`
}
