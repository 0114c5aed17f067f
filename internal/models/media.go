// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Media is an uploaded file (post thumbnail or profile avatar) stored in
// S3-compatible object storage.
type Media struct {
	ID           uuid.UUID `json:"id"`
	S3Key        string    `json:"s3_key"`
	Bucket       string    `json:"bucket"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	AltText      *string   `json:"alt_text,omitempty"`
	UploadedBy   uuid.UUID `json:"uploaded_by"`
	CreatedAt    time.Time `json:"created_at"`
}
