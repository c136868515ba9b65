package users

import "errors"

var (
	// ErrUserNotFound is returned when no profile exists for the id.
	ErrUserNotFound = errors.New("user not found")

	// ErrMissingEmail is returned when provisioning without an email.
	ErrMissingEmail = errors.New("email is required")

	// ErrWeakPassword is returned when the password is under 8 characters.
	ErrWeakPassword = errors.New("password must be at least 8 characters")

	// ErrInvalidRole is returned for roles outside admin/caller.
	ErrInvalidRole = errors.New("role must be admin or caller")
)
