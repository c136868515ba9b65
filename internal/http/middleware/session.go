package middleware

import (
	"net/http"
	"strings"

	"github.com/prashantsingh432/prospect-pulse-searcher/internal/auth"
)

// Session validates a Bearer token when one is present and attaches the
// resulting session to the request context. Requests without a token pass
// through untouched; handlers that need identity enforce it themselves or
// via RequireSession.
func Session(issuer *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
				if sess, err := issuer.Validate(token); err == nil {
					r = r.WithContext(auth.NewContext(r.Context(), sess))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession rejects requests that did not carry a valid token.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.SessionFromContext(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
