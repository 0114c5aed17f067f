package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

// csrfHandler wraps a trivial handler in the CSRF middleware.
func csrfHandler() (http.Handler, *bool) {
	inner, called := okHandler()
	return CSRF(inner), called
}

// tokenFromRecorder extracts the CSRF cookie set by the middleware.
func tokenFromRecorder(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == CSRFCookieName {
			return c
		}
	}
	t.Fatal("CSRF cookie not set")
	return nil
}

func TestCSRFSetsCookieOnFirstVisit(t *testing.T) {
	handler, called := csrfHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if !*called {
		t.Error("GET should pass through")
	}
	cookie := tokenFromRecorder(t, rr)
	if len(cookie.Value) != csrfTokenLength*2 {
		t.Errorf("token length: got %d, want %d hex chars", len(cookie.Value), csrfTokenLength*2)
	}
	if cookie.HttpOnly {
		t.Error("CSRF cookie must be readable by scripts")
	}
}

func TestCSRFGetDoesNotValidate(t *testing.T) {
	handler, called := csrfHandler()

	req := httptest.NewRequest(http.MethodGet, "/post/hello", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "whatever"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if !*called {
		t.Error("GET must never be blocked")
	}
}

func TestCSRFPostWithoutTokenRejected(t *testing.T) {
	handler, called := csrfHandler()

	req := httptest.NewRequest(http.MethodPost, "/post/hello/comment", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "cookietoken"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if *called {
		t.Error("POST without token should be blocked")
	}
	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rr.Code)
	}
}

func TestCSRFPostWithHeaderToken(t *testing.T) {
	handler, called := csrfHandler()

	req := httptest.NewRequest(http.MethodPost, "/post/hello/rate", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "matching-token"})
	req.Header.Set(CSRFHeaderName, "matching-token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if !*called {
		t.Errorf("POST with matching header token should pass, got %d", rr.Code)
	}
}

func TestCSRFPostWithFormToken(t *testing.T) {
	handler, called := csrfHandler()

	form := url.Values{CSRFFormField: {"form-token"}}
	req := httptest.NewRequest(http.MethodPost, "/post/hello/comment", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "form-token"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if !*called {
		t.Errorf("POST with matching form token should pass, got %d", rr.Code)
	}
}

func TestCSRFPostWithMismatchedToken(t *testing.T) {
	handler, called := csrfHandler()

	req := httptest.NewRequest(http.MethodPost, "/post/hello/comment", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "cookie-token"})
	req.Header.Set(CSRFHeaderName, "different-token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if *called {
		t.Error("mismatched token should be blocked")
	}
	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rr.Code)
	}
}

func TestGetCSRFToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetCSRFToken(req); got != "" {
		t.Errorf("no cookie: got %q, want empty", got)
	}

	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "abc123"})
	if got := GetCSRFToken(req); got != "abc123" {
		t.Errorf("got %q, want %q", got, "abc123")
	}
}
