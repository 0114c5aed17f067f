// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/imaging"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/render"
	"inkwell/internal/session"
	"inkwell/internal/storage"
	"inkwell/internal/store"
)

// Profiles handles public profile pages and the owner's edit form.
type Profiles struct {
	renderer     *render.Renderer
	sessions     *session.Store
	userStore    *store.UserStore
	profileStore *store.ProfileStore
	mediaStore   *store.MediaStore
	files        *storage.Client
}

// NewProfiles creates a new Profiles handler group. files may be nil
// when S3 is not configured; avatars then silently stay unset.
func NewProfiles(renderer *render.Renderer, sessions *session.Store, userStore *store.UserStore, profileStore *store.ProfileStore, mediaStore *store.MediaStore, files *storage.Client) *Profiles {
	return &Profiles{
		renderer:     renderer,
		sessions:     sessions,
		userStore:    userStore,
		profileStore: profileStore,
		mediaStore:   mediaStore,
		files:        files,
	}
}

// Own renders the logged-in user's profile with the edit form.
func (h *Profiles) Own(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	profile, err := h.profileStore.FindByUserID(sess.UserID)
	if err != nil {
		slog.Error("find profile failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if profile == nil {
		h.renderer.Error(w, r, http.StatusNotFound, "Profile not found.")
		return
	}

	h.renderProfile(w, r, profile, sess.Name(), true)
}

// Public renders another user's profile by its slug.
func (h *Profiles) Public(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")

	profile, err := h.profileStore.FindBySlug(slugParam)
	if err != nil {
		slog.Error("find profile failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if profile == nil {
		h.renderer.Error(w, r, http.StatusNotFound, "Profile not found.")
		return
	}

	user, err := h.userStore.FindByID(profile.UserID)
	if err != nil || user == nil {
		slog.Error("profile user lookup failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	name := user.DisplayName
	if name == "" {
		name = user.Username
	}

	sess := middleware.SessionFromCtx(r.Context())
	own := sess != nil && sess.UserID == profile.UserID
	h.renderProfile(w, r, profile, name, own)
}

// UpdateSubmit saves the owner's bio and optional new avatar.
func (h *Profiles) UpdateSubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.renderer.Error(w, r, http.StatusBadRequest, "The submitted form could not be read.")
		return
	}

	bio := strings.TrimSpace(r.FormValue("bio"))
	if utf8.RuneCountInString(bio) > maxBioLen {
		h.renderer.Error(w, r, http.StatusBadRequest, "Bio is too long (max 1,000 characters).")
		return
	}

	if err := h.profileStore.UpdateBio(sess.UserID, bio); err != nil {
		slog.Error("update bio failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	avatarID, err := uploadImage(r, h.files, h.mediaStore, "avatar", "avatars", imaging.AvatarVariants, sess.UserID)
	if err != nil {
		if v := store.AsValidation(err); v != nil {
			h.renderer.Error(w, r, http.StatusBadRequest, v.Message)
			return
		}
		slog.Error("avatar upload failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if avatarID != nil {
		if err := h.profileStore.SetAvatar(sess.UserID, *avatarID); err != nil {
			slog.Error("set avatar failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (h *Profiles) renderProfile(w http.ResponseWriter, r *http.Request, profile *models.Profile, displayName string, own bool) {
	online, err := h.sessions.IsOnline(r.Context(), profile.UserID)
	if err != nil {
		slog.Debug("online check failed", "error", err)
	}

	h.renderer.Page(w, r, "profile", &render.PageData{
		Title: displayName,
		Data: map[string]any{
			"Profile":     profile,
			"DisplayName": displayName,
			"AvatarURL":   h.avatarURL(profile),
			"Own":         own,
			"Online":      online,
		},
	})
}

// avatarURL resolves the profile's avatar media row to a public URL,
// or "" when unset or storage is not configured.
func (h *Profiles) avatarURL(profile *models.Profile) string {
	if profile.AvatarMediaID == nil || h.files == nil {
		return ""
	}
	media, err := h.mediaStore.FindByID(*profile.AvatarMediaID)
	if err != nil || media == nil {
		return ""
	}
	return h.files.FileURL(media.S3Key)
}
