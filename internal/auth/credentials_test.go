package auth

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"golang.org/x/crypto/bcrypt"
)

func TestVerifyAcceptsCorrectPassword(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	mock.ExpectQuery("SELECT id, email").
		WithArgs("agent@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "full_name", "password_hash"}).
			AddRow("u1", "agent@example.com", "Agent One", string(hash)))

	sess, err := NewCredentialStore(mock).Verify(context.Background(), "agent@example.com", "hunter2")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sess.UserID != "u1" || sess.FullName != "Agent One" {
		t.Errorf("unexpected session %+v", sess)
	}
}

func TestVerifyRejectsWrongPassword(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	mock.ExpectQuery("SELECT id, email").
		WithArgs("agent@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "full_name", "password_hash"}).
			AddRow("u1", "agent@example.com", "", string(hash)))

	if _, err := NewCredentialStore(mock).Verify(context.Background(), "agent@example.com", "wrong"); err != ErrBadCredentials {
		t.Errorf("expected ErrBadCredentials, got %v", err)
	}
}

func TestVerifyUnknownEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT id, email").
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)

	if _, err := NewCredentialStore(mock).Verify(context.Background(), "nobody@example.com", "x"); err != ErrBadCredentials {
		t.Errorf("expected ErrBadCredentials, got %v", err)
	}
}
