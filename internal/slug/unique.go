// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package slug

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// maxAttempts bounds the collision-suffix loop. One random 8-hex suffix
// already makes a repeat collision astronomically unlikely, so hitting
// this bound means something is broken and we fail loudly instead of
// spinning.
const maxAttempts = 5

// ErrRetriesExhausted is returned when a unique slug could not be found
// within maxAttempts suffix attempts.
var ErrRetriesExhausted = errors.New("slug: retries exhausted without finding a unique slug")

// Checker reports whether a slug is already taken within one entity type.
// Each store (posts, categories, tags, profiles) provides its own
// implementation over its own slug column.
type Checker interface {
	SlugExists(slug string) (bool, error)
}

// Unique derives a slug from title and guarantees it does not collide
// with any slug visible through the checker. On collision an 8-character
// hex suffix from a random UUID is appended and the check repeated.
//
// The function is pure over the slug set the checker exposes: it never
// writes anything. The caller must persist the result together with the
// owning entity; a UNIQUE constraint on the slug column is the backstop
// for two concurrent requests generating the same slug.
func Unique(c Checker, title string) (string, error) {
	base := Generate(title)
	if base == "" {
		// Titles made entirely of stripped characters still need a slug.
		base = uuid.NewString()[:8]
	}

	candidate := base
	for attempt := 0; attempt < maxAttempts; attempt++ {
		taken, err := c.SlugExists(candidate)
		if err != nil {
			return "", fmt.Errorf("slug existence check: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + suffix()
	}

	return "", ErrRetriesExhausted
}

// suffix returns 8 hex characters from a random UUID.
func suffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
