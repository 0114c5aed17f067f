// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"inkwell/internal/imaging"
	"inkwell/internal/models"
	"inkwell/internal/storage"
	"inkwell/internal/store"
)

// uploadImage reads one multipart image field, generates WebP variants,
// uploads them all, and records a media row pointing at the largest
// variant. Returns (nil, nil) when the field is empty or object storage
// is not configured, so image uploads degrade to a no-op.
func uploadImage(
	r *http.Request,
	files *storage.Client,
	mediaStore *store.MediaStore,
	field, keyPrefix string,
	variants []imaging.Variant,
	uploadedBy uuid.UUID,
) (*uuid.UUID, error) {
	if files == nil {
		return nil, nil
	}

	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", field, err)
	}
	if len(data) > maxUploadBytes {
		return nil, store.Validation(field, "Image is larger than 10 MB.")
	}
	if len(data) == 0 {
		return nil, nil
	}

	processed, err := imaging.GenerateVariants(data, variants)
	if err != nil {
		return nil, store.Validation(field, "The uploaded file is not a usable image.")
	}

	base := keyPrefix + "/" + uuid.NewString()
	var largest imaging.ProcessedImage
	var largestKey string
	for _, p := range processed {
		key := base + "-" + p.Name + ".webp"
		if err := files.Upload(r.Context(), key, p.ContentType, bytes.NewReader(p.Data), int64(len(p.Data))); err != nil {
			return nil, fmt.Errorf("upload %s: %w", key, err)
		}
		// Variants are generated smallest first.
		largest = p
		largestKey = key
	}

	media, err := mediaStore.Create(&models.Media{
		S3Key:        largestKey,
		Bucket:       files.Bucket(),
		OriginalName: header.Filename,
		ContentType:  largest.ContentType,
		SizeBytes:    int64(len(largest.Data)),
		UploadedBy:   uploadedBy,
	})
	if err != nil {
		return nil, err
	}
	return &media.ID, nil
}
