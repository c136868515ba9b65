package users

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/prashantsingh432/prospect-pulse-searcher/internal/auth"
)

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func adminContext(t *testing.T, repo Repository) context.Context {
	t.Helper()
	admin := &User{ID: "admin-1", Name: "Admin", Email: "admin@example.com", Role: RoleAdmin, Active: true}
	if err := repo.Create(context.Background(), admin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	return auth.NewContext(context.Background(), auth.Session{UserID: "admin-1", Email: admin.Email})
}

func TestCreateUser_Success(t *testing.T) {
	repo := NewInMemoryRepository()
	handler := NewHandler(repo, nil)

	body, _ := json.Marshal(CreateUserRequest{
		Email:       "caller@example.com",
		Password:    "correct-horse",
		Name:        "Caller One",
		Role:        RoleCaller,
		ProjectName: "Acme Outreach",
	})
	req := httptest.NewRequest(http.MethodPost, "/admin/users", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.CreateUser(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var u User
	if err := json.NewDecoder(w.Body).Decode(&u); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if u.ProjectName != "Acme Outreach" || !u.Active {
		t.Errorf("unexpected user %+v", u)
	}
}

func TestCreateUser_WeakPassword(t *testing.T) {
	handler := NewHandler(NewInMemoryRepository(), nil)

	body, _ := json.Marshal(CreateUserRequest{Email: "x@example.com", Password: "short"})
	req := httptest.NewRequest(http.MethodPost, "/admin/users", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.CreateUser(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	repo := NewInMemoryRepository()
	handler := NewHandler(repo, nil)
	ctx := adminContext(t, repo)

	_ = repo.Create(context.Background(), &User{ID: "caller-1", Role: RoleCaller, Active: true})

	protected := handler.RequireAdmin(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// No session at all.
	w := httptest.NewRecorder()
	protected(w, httptest.NewRequest(http.MethodGet, "/admin/users", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without session, got %d", w.Code)
	}

	// Caller role.
	callerCtx := auth.NewContext(context.Background(), auth.Session{UserID: "caller-1"})
	w = httptest.NewRecorder()
	protected(w, httptest.NewRequest(http.MethodGet, "/admin/users", nil).WithContext(callerCtx))
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for caller, got %d", w.Code)
	}

	// Admin role.
	w = httptest.NewRecorder()
	protected(w, httptest.NewRequest(http.MethodGet, "/admin/users", nil).WithContext(ctx))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for admin, got %d", w.Code)
	}
}

func TestDeleteUser_NotFound(t *testing.T) {
	handler := NewHandler(NewInMemoryRepository(), nil)

	req := httptest.NewRequest(http.MethodDelete, "/admin/users/ghost", nil)
	req = withURLParam(req, "userID", "ghost")
	w := httptest.NewRecorder()

	handler.DeleteUser(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
