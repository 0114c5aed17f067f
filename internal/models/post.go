// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// PostStatus represents the publishing state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Post represents a blog article. The slug is generated from the title at
// creation time and regenerated only when the title changes. Fixed posts
// sort before all others regardless of date.
type Post struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Slug             string     `json:"slug"`
	Description      string     `json:"description"`
	Body             string     `json:"body"`
	CategoryID       uuid.UUID  `json:"category_id"`
	ThumbnailMediaID *uuid.UUID `json:"thumbnail_media_id,omitempty"`
	Status           PostStatus `json:"status"`
	Fixed            bool       `json:"fixed"`
	AuthorID         uuid.UUID  `json:"author_id"`
	UpdaterID        *uuid.UUID `json:"updater_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Virtual fields resolved in the same query as the post itself, so
	// listing N posts never issues N author/category lookups.
	AuthorUsername    string `json:"author_username,omitempty"`
	AuthorDisplayName string `json:"author_display_name,omitempty"`
	CategoryTitle     string `json:"category_title,omitempty"`
	CategorySlug      string `json:"category_slug,omitempty"`

	Tags      []Tag `json:"tags,omitempty"`
	RatingSum int   `json:"rating_sum"`
}

// IsPublished returns true if the post is in published status.
func (p Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// AuthorName returns the author's display name, falling back to the username.
func (p Post) AuthorName() string {
	if p.AuthorDisplayName != "" {
		return p.AuthorDisplayName
	}
	return p.AuthorUsername
}
