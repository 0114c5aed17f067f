// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inkwell/internal/models"
)

func TestPostCreateSubmit(t *testing.T) {
	env := newTestEnv(t)
	user := createTestUser(t, env)
	cat := createTestCategory(t, env)

	title := "Authoring Flow " + uniqueSuffix()
	tagA := "hnd-tag-" + uniqueSuffix()
	tagB := "hnd-tag-" + uniqueSuffix()
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM posts WHERE title = $1", title)
		env.DB.Exec("DELETE FROM tags WHERE name IN ($1, $2)", tagA, tagB)
	})

	req := newMultipartRequest(t, "/post/create", map[string]string{
		"title":       title,
		"category_id": cat.ID.String(),
		"description": "A summary.",
		"body":        "Some **markdown**.",
		"tags":        tagA + ", " + tagB,
		"status":      "published",
	})
	req = req.WithContext(ctxWithSession(req.Context(), testSession(user)))

	rr := httptest.NewRecorder()
	env.Posts.CreateSubmit(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}

	loc := rr.Header().Get("Location")
	if !strings.HasPrefix(loc, "/post/") {
		t.Fatalf("redirect: got %q", loc)
	}
	created, err := env.PostStore.FindPublishedBySlug(strings.TrimPrefix(loc, "/post/"))
	if err != nil || created == nil {
		t.Fatalf("created post not found at %q: %v", loc, err)
	}
	if created.AuthorID != user.ID {
		t.Error("author not recorded")
	}
	if created.Fixed {
		t.Error("non-staff author must not be able to pin")
	}

	tags, err := env.TagStore.ListByPost(created.ID)
	if err != nil {
		t.Fatalf("list tags: %v", err)
	}
	if len(tags) != 2 {
		t.Errorf("tag count: got %d, want 2", len(tags))
	}
}

func TestPostCreateDraftRedirectsToEdit(t *testing.T) {
	env := newTestEnv(t)
	user := createTestUser(t, env)
	cat := createTestCategory(t, env)

	title := "Draft Flow " + uniqueSuffix()
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM posts WHERE title = $1", title)
	})

	req := newMultipartRequest(t, "/post/create", map[string]string{
		"title":       title,
		"category_id": cat.ID.String(),
		"body":        "draft body",
		"status":      "draft",
	})
	req = req.WithContext(ctxWithSession(req.Context(), testSession(user)))

	rr := httptest.NewRecorder()
	env.Posts.CreateSubmit(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); !strings.HasSuffix(loc, "/update") {
		t.Errorf("draft redirect: got %q, want edit page", loc)
	}
}

func TestPostCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	user := createTestUser(t, env)
	cat := createTestCategory(t, env)

	req := newMultipartRequest(t, "/post/create", map[string]string{
		"title":       "",
		"category_id": cat.ID.String(),
		"body":        "body",
	})
	req = req.WithContext(ctxWithSession(req.Context(), testSession(user)))

	rr := httptest.NewRecorder()
	env.Posts.CreateSubmit(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (re-rendered form)", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Title is required.") {
		t.Error("validation message missing")
	}
}

func TestPostUpdateTitleChangeRegeneratesSlug(t *testing.T) {
	env := newTestEnv(t)
	user := createTestUser(t, env)
	cat := createTestCategory(t, env)
	post := createTestPost(t, env, user, cat, "Original Title "+uniqueSuffix())

	newTitle := "Renamed Title " + uniqueSuffix()
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM posts WHERE title = $1", newTitle)
	})

	req := newMultipartRequest(t, "/post/"+post.Slug+"/update", map[string]string{
		"title":       newTitle,
		"category_id": cat.ID.String(),
		"description": post.Description,
		"body":        post.Body,
		"status":      "published",
	})
	req = withChiURLParamAndSession(req, "slug", post.Slug, testSession(user))

	rr := httptest.NewRecorder()
	env.Posts.UpdateSubmit(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}

	updated, err := env.PostStore.FindByID(post.ID)
	if err != nil || updated == nil {
		t.Fatalf("reload post: %v", err)
	}
	if updated.Slug == post.Slug {
		t.Error("slug should change with the title")
	}
	if updated.UpdaterID == nil || *updated.UpdaterID != user.ID {
		t.Error("updater not recorded")
	}
}

func TestPostUpdateSameTitleKeepsSlug(t *testing.T) {
	env := newTestEnv(t)
	user := createTestUser(t, env)
	cat := createTestCategory(t, env)
	post := createTestPost(t, env, user, cat, "Stable Title "+uniqueSuffix())

	req := newMultipartRequest(t, "/post/"+post.Slug+"/update", map[string]string{
		"title":       post.Title,
		"category_id": cat.ID.String(),
		"description": "New summary.",
		"body":        "New body.",
		"status":      "published",
	})
	req = withChiURLParamAndSession(req, "slug", post.Slug, testSession(user))

	rr := httptest.NewRecorder()
	env.Posts.UpdateSubmit(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}

	updated, err := env.PostStore.FindByID(post.ID)
	if err != nil || updated == nil {
		t.Fatalf("reload post: %v", err)
	}
	if updated.Slug != post.Slug {
		t.Errorf("slug changed without a title change: %q -> %q", post.Slug, updated.Slug)
	}
	if updated.Description != "New summary." {
		t.Error("description not updated")
	}
}

func TestPostUpdateForbiddenForOtherUser(t *testing.T) {
	env := newTestEnv(t)
	author := createTestUser(t, env)
	other := createTestUser(t, env)
	cat := createTestCategory(t, env)
	post := createTestPost(t, env, author, cat, "Protected "+uniqueSuffix())

	req := newMultipartRequest(t, "/post/"+post.Slug+"/update", map[string]string{
		"title":       post.Title,
		"category_id": cat.ID.String(),
		"body":        "hijacked",
		"status":      "published",
	})
	req = withChiURLParamAndSession(req, "slug", post.Slug, testSession(other))

	rr := httptest.NewRecorder()
	env.Posts.UpdateSubmit(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rr.Code)
	}
}

func TestPostUpdateStaffMayEdit(t *testing.T) {
	env := newTestEnv(t)
	author := createTestUser(t, env)
	staff := createTestUser(t, env)
	if _, err := env.DB.Exec("UPDATE users SET is_staff = TRUE WHERE id = $1", staff.ID); err != nil {
		t.Fatalf("promote staff: %v", err)
	}
	staff.IsStaff = true
	cat := createTestCategory(t, env)
	post := createTestPost(t, env, author, cat, "Moderated "+uniqueSuffix())

	req := newMultipartRequest(t, "/post/"+post.Slug+"/update", map[string]string{
		"title":       post.Title,
		"category_id": cat.ID.String(),
		"body":        post.Body,
		"status":      "published",
		"fixed":       "1",
	})
	req = withChiURLParamAndSession(req, "slug", post.Slug, testSession(staff))

	rr := httptest.NewRecorder()
	env.Posts.UpdateSubmit(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}

	updated, err := env.PostStore.FindByID(post.ID)
	if err != nil || updated == nil {
		t.Fatalf("reload post: %v", err)
	}
	if !updated.Fixed {
		t.Error("staff should be able to pin a post")
	}
}

// Two authors publish posts with the same title; both end up readable
// under distinct slugs.
func TestPostCreateDuplicateTitle(t *testing.T) {
	env := newTestEnv(t)
	alice := createTestUser(t, env)
	bob := createTestUser(t, env)
	cat := createTestCategory(t, env)

	title := "Hello World " + uniqueSuffix()
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM posts WHERE title = $1", title)
	})

	var locations []string
	for _, author := range []*models.User{alice, bob} {
		req := newMultipartRequest(t, "/post/create", map[string]string{
			"title":       title,
			"category_id": cat.ID.String(),
			"body":        "body",
			"status":      "published",
		})
		req = req.WithContext(ctxWithSession(req.Context(), testSession(author)))

		rr := httptest.NewRecorder()
		env.Posts.CreateSubmit(rr, req)
		if rr.Code != http.StatusSeeOther {
			t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
		}
		locations = append(locations, rr.Header().Get("Location"))
	}

	if locations[0] == locations[1] {
		t.Fatalf("both posts got the same slug: %q", locations[0])
	}
	for _, loc := range locations {
		slug := strings.TrimPrefix(loc, "/post/")
		p, err := env.PostStore.FindPublishedBySlug(slug)
		if err != nil || p == nil {
			t.Errorf("post at %q not readable: %v", loc, err)
		}
	}
}

func TestPostUpdatePageNotFound(t *testing.T) {
	env := newTestEnv(t)
	user := createTestUser(t, env)

	req := httptest.NewRequest("GET", "/post/missing/update", nil)
	req = withChiURLParamAndSession(req, "slug", "missing", testSession(user))

	rr := httptest.NewRecorder()
	env.Posts.UpdatePage(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}
