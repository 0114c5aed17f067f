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

// VoteOutcome names the state transition a vote caused.
type VoteOutcome string

const (
	VoteCreated VoteOutcome = "created"
	VoteUpdated VoteOutcome = "updated"
	VoteDeleted VoteOutcome = "deleted"
)

// VoteResult is returned by Vote: what happened to the voter's rating
// row and the post's recomputed rating sum.
type VoteResult struct {
	Outcome VoteOutcome `json:"outcome"`
	Sum     int         `json:"sum"`
}

// RatingStore tallies ±1 votes per post. The uniqueness key is always
// (post_id, ip_address); user_id is display metadata, so an
// authenticated voter sharing an address with another voter shares the
// vote. Known limitation, kept intentionally.
type RatingStore struct {
	db *sql.DB
}

// NewRatingStore creates a new RatingStore.
func NewRatingStore(db *sql.DB) *RatingStore {
	return &RatingStore{db: db}
}

// Vote applies one vote to a post within a single transaction:
//
//	no row for (post, ip)          → insert, outcome "created"
//	row with the same value        → delete, outcome "deleted" (toggle off)
//	row with the opposite value    → update in place, outcome "updated"
//
// The returned sum is recomputed from the remaining rows after the
// transition.
func (s *RatingStore) Vote(postID uuid.UUID, ipAddress string, userID *uuid.UUID, value int) (*VoteResult, error) {
	if value != models.RatingLike && value != models.RatingDislike {
		return nil, Validation("value", "Vote value must be +1 or -1.")
	}
	if ipAddress == "" {
		return nil, Validation("ip_address", "Voter address is required.")
	}

	var exists bool
	if err := s.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("vote post lookup: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("vote begin: %w", err)
	}
	defer tx.Rollback()

	var current int
	outcome := VoteCreated
	err = tx.QueryRow(`
		SELECT value FROM ratings WHERE post_id = $1 AND ip_address = $2
	`, postID, ipAddress).Scan(&current)
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.Exec(`
			INSERT INTO ratings (post_id, user_id, ip_address, value)
			VALUES ($1, $2, $3, $4)
		`, postID, userID, ipAddress, value)
		if err != nil {
			return nil, fmt.Errorf("vote insert: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("vote lookup: %w", err)
	case current == value:
		// Same value again toggles the vote off.
		outcome = VoteDeleted
		_, err = tx.Exec(`
			DELETE FROM ratings WHERE post_id = $1 AND ip_address = $2
		`, postID, ipAddress)
		if err != nil {
			return nil, fmt.Errorf("vote delete: %w", err)
		}
	default:
		outcome = VoteUpdated
		_, err = tx.Exec(`
			UPDATE ratings SET value = $1, user_id = $2
			WHERE post_id = $3 AND ip_address = $4
		`, value, userID, postID, ipAddress)
		if err != nil {
			return nil, fmt.Errorf("vote update: %w", err)
		}
	}

	var sum int
	err = tx.QueryRow(`
		SELECT COALESCE(SUM(value), 0) FROM ratings WHERE post_id = $1
	`, postID).Scan(&sum)
	if err != nil {
		return nil, fmt.Errorf("vote sum: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("vote commit: %w", err)
	}

	return &VoteResult{Outcome: outcome, Sum: sum}, nil
}

// Sum returns the signed rating sum for a post.
func (s *RatingStore) Sum(postID uuid.UUID) (int, error) {
	var sum int
	err := s.db.QueryRow(`
		SELECT COALESCE(SUM(value), 0) FROM ratings WHERE post_id = $1
	`, postID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("rating sum: %w", err)
	}
	return sum, nil
}

// Find returns the rating row for a (post, ip) pair. Returns nil when
// the pair has no active vote.
func (s *RatingStore) Find(postID uuid.UUID, ipAddress string) (*models.Rating, error) {
	r := &models.Rating{}
	err := s.db.QueryRow(`
		SELECT id, post_id, user_id, ip_address, value, created_at
		FROM ratings WHERE post_id = $1 AND ip_address = $2
	`, postID, ipAddress).Scan(
		&r.ID, &r.PostID, &r.UserID, &r.IPAddress, &r.Value, &r.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find rating: %w", err)
	}
	return r, nil
}
