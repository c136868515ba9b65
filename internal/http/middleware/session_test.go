package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prashantsingh432/prospect-pulse-searcher/internal/auth"
)

func TestSessionAttachesIdentity(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	token, err := issuer.Issue("u-1", "agent@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var got auth.Session
	var ok bool
	handler := Session(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = auth.SessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !ok {
		t.Fatal("expected session in context")
	}
	if got.UserID != "u-1" || got.Email != "agent@example.com" {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestSessionIgnoresInvalidToken(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)

	handler := Session(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.SessionFromContext(r.Context()); ok {
			t.Error("invalid token must not attach a session")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestRequireSession(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	token, _ := issuer.Issue("u-1", "agent@example.com")

	protected := Session(issuer)(RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
}
