// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a lookup by slug or id misses.
	// Handlers map it to a 404 response.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied is returned when the requester is not allowed
	// to perform a write, e.g. a non-author updating a post. Handlers
	// map it to a 403 response.
	ErrPermissionDenied = errors.New("permission denied")
)

// ValidationError describes malformed or missing input on a single
// field. Handlers redisplay it in forms or return it as a client error
// payload.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validation constructs a ValidationError.
func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// AsValidation unwraps err into a *ValidationError, or nil.
func AsValidation(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505). Slug columns carry UNIQUE constraints as
// the storage-layer backstop for concurrent creations that pass the
// generate-time existence check; a lost race surfaces as a field error
// rather than a 500.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
