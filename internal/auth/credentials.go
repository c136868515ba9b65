package auth

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CredentialStore verifies email/password pairs against the auth_users table.
type CredentialStore struct {
	db rowQuerier
}

func NewCredentialStore(db rowQuerier) *CredentialStore {
	if db == nil {
		panic("auth: db required")
	}
	return &CredentialStore{db: db}
}

// Verify checks the password and returns the matching session identity.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *CredentialStore) Verify(ctx context.Context, email, password string) (Session, error) {
	query := `
		SELECT id, email, COALESCE(full_name, ''), password_hash
		FROM auth_users
		WHERE lower(email) = lower($1)
	`
	var sess Session
	var hash string
	if err := s.db.QueryRow(ctx, query, email).Scan(&sess.UserID, &sess.Email, &sess.FullName, &hash); err != nil {
		if err == pgx.ErrNoRows {
			return Session{}, ErrBadCredentials
		}
		return Session{}, fmt.Errorf("auth: lookup credentials: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return Session{}, ErrBadCredentials
	}
	return sess, nil
}
