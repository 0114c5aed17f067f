// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"inkwell/internal/store"
)

func TestHomepageRendersPosts(t *testing.T) {
	env := newTestEnv(t)
	user := createTestUser(t, env)
	cat := createTestCategory(t, env)
	post := createTestPost(t, env, user, cat, "Homepage Smoke "+uniqueSuffix())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	env.Public.Homepage(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), post.Title) {
		t.Errorf("homepage missing post title %q", post.Title)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type: got %q", ct)
	}
}

func TestPostDetailRendersCommentsAndRating(t *testing.T) {
	env := newTestEnv(t)
	user := createTestUser(t, env)
	cat := createTestCategory(t, env)
	post := createTestPost(t, env, user, cat, "Detail Page "+uniqueSuffix())

	if _, err := env.CommentStore.Add(post.ID, user.ID, "First comment here.", nil); err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if _, err := env.RatingStore.Vote(post.ID, "198.51.100.7", nil, 1); err != nil {
		t.Fatalf("vote: %v", err)
	}

	rr := httptest.NewRecorder()
	req := withChiURLParam(httptest.NewRequest("GET", "/post/"+post.Slug, nil), "slug", post.Slug)
	env.Public.PostDetail(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	html := rr.Body.String()
	if !strings.Contains(html, post.Title) {
		t.Error("post title missing")
	}
	if !strings.Contains(html, "<strong>body</strong>") {
		t.Error("markdown body not rendered")
	}
	if !strings.Contains(html, "First comment here.") {
		t.Error("comment missing")
	}
	if !strings.Contains(html, "Comments (1)") {
		t.Error("comment count missing")
	}
}

func TestPostDetailNotFound(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	req := withChiURLParam(httptest.NewRequest("GET", "/post/no-such-post", nil), "slug", "no-such-post")
	env.Public.PostDetail(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

func TestPostDetailDraftHidden(t *testing.T) {
	env := newTestEnv(t)
	user := createTestUser(t, env)
	cat := createTestCategory(t, env)
	post := createTestPost(t, env, user, cat, "Hidden Draft "+uniqueSuffix())
	if _, err := env.DB.Exec("UPDATE posts SET status = 'draft' WHERE id = $1", post.ID); err != nil {
		t.Fatalf("demote post: %v", err)
	}

	rr := httptest.NewRecorder()
	req := withChiURLParam(httptest.NewRequest("GET", "/post/"+post.Slug, nil), "slug", post.Slug)
	env.Public.PostDetail(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("draft post should 404, got %d", rr.Code)
	}
}

func TestVoteEndpointToggles(t *testing.T) {
	env := newTestEnv(t)
	user := createTestUser(t, env)
	cat := createTestCategory(t, env)
	post := createTestPost(t, env, user, cat, "Votable "+uniqueSuffix())

	vote := func(value string) *store.VoteResult {
		t.Helper()
		rr := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/post/"+post.Slug+"/rate", strings.NewReader(`{"value": `+value+`}`))
		req.RemoteAddr = "203.0.113.50:4711"
		req = withChiURLParam(req, "slug", post.Slug)
		env.Ratings.Vote(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("vote status: got %d, body %s", rr.Code, rr.Body.String())
		}
		var result store.VoteResult
		if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
			t.Fatalf("decode vote result: %v", err)
		}
		return &result
	}

	if r := vote("1"); r.Outcome != store.VoteCreated || r.Sum != 1 {
		t.Errorf("first vote: got %s/%d, want created/1", r.Outcome, r.Sum)
	}
	if r := vote("-1"); r.Outcome != store.VoteUpdated || r.Sum != -1 {
		t.Errorf("flipped vote: got %s/%d, want updated/-1", r.Outcome, r.Sum)
	}
	if r := vote("-1"); r.Outcome != store.VoteDeleted || r.Sum != 0 {
		t.Errorf("toggled vote: got %s/%d, want deleted/0", r.Outcome, r.Sum)
	}
}

func TestVoteEndpointBadValue(t *testing.T) {
	env := newTestEnv(t)
	user := createTestUser(t, env)
	cat := createTestCategory(t, env)
	post := createTestPost(t, env, user, cat, "Votable Bad "+uniqueSuffix())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/post/"+post.Slug+"/rate", strings.NewReader(`{"value": 5}`))
	req.RemoteAddr = "203.0.113.51:4711"
	req = withChiURLParam(req, "slug", post.Slug)
	env.Ratings.Vote(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func TestVoteEndpointUnknownPost(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/post/nope/rate", strings.NewReader(`{"value": 1}`))
	req.RemoteAddr = "203.0.113.52:4711"
	req = withChiURLParam(req, "slug", "nope")
	env.Ratings.Vote(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

func TestCommentSubmit(t *testing.T) {
	env := newTestEnv(t)
	user := createTestUser(t, env)
	cat := createTestCategory(t, env)
	post := createTestPost(t, env, user, cat, "Commentable "+uniqueSuffix())

	form := url.Values{"content": {"A fine article."}}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/post/"+post.Slug+"/comment", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = withChiURLParamAndSession(req, "slug", post.Slug, testSession(user))
	env.Comments.Submit(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want 303", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/post/"+post.Slug+"#comments" {
		t.Errorf("redirect: got %q", loc)
	}

	count, err := env.CommentStore.CountByPost(post.ID)
	if err != nil {
		t.Fatalf("count comments: %v", err)
	}
	if count != 1 {
		t.Errorf("comment count: got %d, want 1", count)
	}
}

func TestCommentSubmitCrossPostParentRejected(t *testing.T) {
	env := newTestEnv(t)
	user := createTestUser(t, env)
	cat := createTestCategory(t, env)
	postA := createTestPost(t, env, user, cat, "Thread A "+uniqueSuffix())
	postB := createTestPost(t, env, user, cat, "Thread B "+uniqueSuffix())

	parent, err := env.CommentStore.Add(postA.ID, user.ID, "root on A", nil)
	if err != nil {
		t.Fatalf("add parent: %v", err)
	}

	form := url.Values{
		"content":   {"reply in the wrong thread"},
		"parent_id": {parent.ID.String()},
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/post/"+postB.Slug+"/comment", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = withChiURLParamAndSession(req, "slug", postB.Slug, testSession(user))
	env.Comments.Submit(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func TestFeedServesRSS(t *testing.T) {
	env := newTestEnv(t)
	user := createTestUser(t, env)
	cat := createTestCategory(t, env)
	post := createTestPost(t, env, user, cat, "Feed Item "+uniqueSuffix())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/feeds/latest", nil)
	env.Public.Feed(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/rss+xml") {
		t.Errorf("content type: got %q", ct)
	}
	if !strings.Contains(rr.Body.String(), post.Title) {
		t.Error("feed missing newest post")
	}
}

func TestByCategoryUnknownSlug(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	req := withChiURLParam(httptest.NewRequest("GET", "/category/no-such", nil), "slug", "no-such")
	env.Public.ByCategory(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}
