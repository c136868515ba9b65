package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prashantsingh432/prospect-pulse-searcher/internal/auth"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/prospects"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/users"
)

func newTestRouter(t *testing.T) (http.Handler, *auth.TokenIssuer) {
	t.Helper()

	issuer := auth.NewTokenIssuer("router-test-secret", time.Hour)

	userRepo := users.NewInMemoryRepository()
	require.NoError(t, userRepo.Create(t.Context(), &users.User{
		ID:    "admin-1",
		Name:  "Admin One",
		Email: "admin@example.com",
		Role:  users.RoleAdmin,
	}))
	require.NoError(t, userRepo.Create(t.Context(), &users.User{
		ID:    "caller-1",
		Name:  "Caller One",
		Email: "caller@example.com",
		Role:  users.RoleCaller,
	}))

	h := New(&Config{
		TokenIssuer:      issuer,
		ProspectsHandler: prospects.NewHandler(prospects.NewInMemoryRepository(), nil),
		UsersHandler:     users.NewHandler(userRepo, nil),
	})
	return h, issuer
}

func bearer(t *testing.T, issuer *auth.TokenIssuer, userID, email string) string {
	t.Helper()
	token, err := issuer.Issue(userID, email)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealthEndpoint(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestProspectsRequireSession(t *testing.T) {
	h, issuer := newTestRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prospects/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/prospects/", nil)
	req.Header.Set("Authorization", bearer(t, issuer, "caller-1", "caller@example.com"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoutesCheckRole(t *testing.T) {
	h, issuer := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/users/", nil)
	req.Header.Set("Authorization", bearer(t, issuer, "caller-1", "caller@example.com"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/users/", nil)
	req.Header.Set("Authorization", bearer(t, issuer, "admin-1", "admin@example.com"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnconfiguredFunctionRoutesReturn404(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/functions/rtne-lookup", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvalidBearerTokenIsUnauthorized(t *testing.T) {
	h, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/prospects/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
