package auth

import "context"

// Session is the authenticated identity resolved from a bearer token. It is
// the auth-provider view of a user; the application profile lives in the
// users package.
type Session struct {
	UserID   string
	Email    string
	FullName string
}

type contextKey string

const sessionKey contextKey = "session"

// NewContext stores the session on the request context.
func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext returns the session if a bearer token was validated.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}
