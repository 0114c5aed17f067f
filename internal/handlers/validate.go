package handlers

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Validation limits for form fields.
const (
	maxTitleLen       = 255
	maxDescriptionLen = 500
	maxBodyLen        = 100_000
	maxUsernameLen    = 150
	maxDisplayNameLen = 150
	maxBioLen         = 1_000
	minPasswordLen    = 8
	maxUploadBytes    = 10 << 20 // 10 MB per image upload
)

// validatePost checks post form inputs and returns the first error found.
func validatePost(title, description, body string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 255 characters)."
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return "Summary is too long (max 500 characters)."
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return "Body is required."
	}
	if utf8.RuneCountInString(body) > maxBodyLen {
		return "Body is too long (max 100,000 characters)."
	}
	return ""
}

// validateRegistration checks the registration form and returns the
// first error found.
func validateRegistration(username, email, password, displayName string) string {
	username = strings.TrimSpace(username)
	if username == "" {
		return "Username is required."
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return "Username is too long (max 150 characters)."
	}
	for _, r := range username {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' || r == '.') {
			return "Username may only contain letters, digits, and - _ . characters."
		}
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return "A valid email address is required."
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return "Password must be at least 8 characters."
	}
	if utf8.RuneCountInString(displayName) > maxDisplayNameLen {
		return "Display name is too long (max 150 characters)."
	}
	return ""
}

// splitTags turns a comma-separated tag field into trimmed names.
// Deduplication happens in the store.
func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}
