// Package feed builds the RSS feed of recently published posts.
package feed

import (
	"fmt"
	"time"

	"github.com/gorilla/feeds"

	"inkwell/internal/models"
)

// Builder assembles RSS documents from published posts.
type Builder struct {
	title   string
	baseURL string
}

// NewBuilder returns a feed builder for the given site title and base URL
// (scheme and host, no trailing slash).
func NewBuilder(title, baseURL string) *Builder {
	return &Builder{title: title, baseURL: baseURL}
}

// RSS renders the given posts, newest first, as an RSS 2.0 document.
// Descriptions come from the post summary, not the full body.
func (b *Builder) RSS(posts []models.Post, now time.Time) (string, error) {
	f := &feeds.Feed{
		Title:       b.title,
		Link:        &feeds.Link{Href: b.baseURL + "/"},
		Description: fmt.Sprintf("Latest posts from %s", b.title),
		Created:     now,
	}

	for _, p := range posts {
		f.Items = append(f.Items, &feeds.Item{
			Id:          b.baseURL + "/post/" + p.Slug,
			Title:       p.Title,
			Link:        &feeds.Link{Href: b.baseURL + "/post/" + p.Slug},
			Description: p.Description,
			Author:      &feeds.Author{Name: p.AuthorName()},
			Created:     p.CreatedAt,
			Updated:     p.UpdatedAt,
		})
	}

	out, err := f.ToRss()
	if err != nil {
		return "", fmt.Errorf("render rss: %w", err)
	}
	return out, nil
}
