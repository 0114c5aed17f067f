package models

import "github.com/google/uuid"

// Tag is a free-form label attached to posts through the post_tags
// join table.
type Tag struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}
