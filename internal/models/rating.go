// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Rating values for a single vote.
const (
	RatingLike    = 1
	RatingDislike = -1
)

// Rating is a single ±1 vote on a post. At most one row exists per
// (post, ip_address) pair. UserID is recorded for display when the voter
// is authenticated, but the uniqueness key is always the IP address, so
// two voters behind the same address share one vote. Known limitation,
// kept intentionally.
type Rating struct {
	ID        uuid.UUID  `json:"id"`
	PostID    uuid.UUID  `json:"post_id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	IPAddress string     `json:"ip_address"`
	Value     int        `json:"value"` // +1 or -1
	CreatedAt time.Time  `json:"created_at"`
}
