// Package extension serves the chrome extension's HTTP surface: credential
// login issuing a 24 hour bearer token, token validation, and a prospect
// search endpoint scoped to that token.
package extension

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/prashantsingh432/prospect-pulse-searcher/internal/auth"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/prospects"
	"github.com/prashantsingh432/prospect-pulse-searcher/pkg/logging"
)

// CredentialVerifier checks an email/password pair.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (auth.Session, error)
}

// Handler implements the extension endpoints.
type Handler struct {
	creds  CredentialVerifier
	issuer *auth.TokenIssuer
	repo   prospects.Repository
	logger *logging.Logger
}

func NewHandler(creds CredentialVerifier, issuer *auth.TokenIssuer, repo prospects.Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{creds: creds, issuer: issuer, repo: repo, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  loginUser `json:"user"`
}

type loginUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Login handles POST /functions/chrome-extension-login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}

	sess, err := h.creds.Verify(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrBadCredentials) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.Error("credential check failed", "error", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	token, err := h.issuer.Issue(sess.UserID, sess.Email)
	if err != nil {
		h.logger.Error("token issue failed", "error", err, "user_id", sess.UserID)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User:  loginUser{ID: sess.UserID, Email: sess.Email},
	})
}

// Validate handles POST /functions/chrome-extension-validate.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.bearerSession(r)
	if !ok {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"user":  loginUser{ID: sess.UserID, Email: sess.Email},
	})
}

// Prospects handles POST /functions/chrome-extension-prospects: a search
// call scoped to a valid bearer token.
func (h *Handler) Prospects(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.bearerSession(r); !ok {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	var q prospects.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	out, err := h.repo.Search(r.Context(), q)
	if err != nil {
		h.logger.Error("extension prospect search failed", "error", err)
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) bearerSession(r *http.Request) (auth.Session, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return auth.Session{}, false
	}
	sess, err := h.issuer.Validate(token)
	if err != nil {
		return auth.Session{}, false
	}
	return sess, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
