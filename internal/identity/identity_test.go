package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddleware_EstablishesAnonymousIdentity(t *testing.T) {
	var gotUserID, gotTabID string
	handler := Middleware(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
		gotTabID = TabIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if !isValidAnonID(gotUserID) {
		t.Errorf("Expected generated anon ID, got %q", gotUserID)
	}
	if gotTabID != DefaultTabIDValue {
		t.Errorf("Expected default tab ID, got %q", gotTabID)
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == AnonCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("Expected anon cookie to be set")
	}
	if cookie.Value != gotUserID {
		t.Errorf("Cookie %q does not match context user ID %q", cookie.Value, gotUserID)
	}
	if !cookie.HttpOnly {
		t.Error("Expected HttpOnly cookie")
	}
}

func TestMiddleware_ReusesValidCookie(t *testing.T) {
	const anonID = "anon_0123456789abcdef0123456789abcdef"

	var gotUserID string
	handler := Middleware(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: anonID})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotUserID != anonID {
		t.Errorf("Expected cookie identity reused, got %q", gotUserID)
	}
}

func TestMiddleware_RejectsMalformedCookie(t *testing.T) {
	var gotUserID string
	handler := Middleware(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: "anon_<script>"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotUserID == "anon_<script>" {
		t.Error("Expected malformed cookie identity to be replaced")
	}
	if !isValidAnonID(gotUserID) {
		t.Errorf("Expected fresh anon ID, got %q", gotUserID)
	}
}

func TestMiddleware_TabIDFromHeaderAndQuery(t *testing.T) {
	var gotTabID string
	handler := Middleware(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTabID = TabIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TabHeaderName, "tab-7")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if gotTabID != "tab-7" {
		t.Errorf("Expected tab ID from header, got %q", gotTabID)
	}

	req = httptest.NewRequest(http.MethodGet, "/?session_id=tab-9", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if gotTabID != "tab-9" {
		t.Errorf("Expected tab ID from query, got %q", gotTabID)
	}
}

func TestSanitizeTabID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"tab-1", "tab-1"},
		{"  tab-1  ", "tab-1"},
		{"", DefaultTabIDValue},
		{"bad tab", DefaultTabIDValue},
		{"a:b", DefaultTabIDValue},
	}
	for _, tc := range cases {
		if got := sanitizeTabID(tc.in); got != tc.want {
			t.Errorf("sanitizeTabID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
