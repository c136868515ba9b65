package users

import (
	"strings"
	"time"
)

// Roles assignable to application users.
const (
	RoleAdmin  = "admin"
	RoleCaller = "caller"
)

// User is the application-level profile for an authenticated identity. The
// ID is shared with the auth identity; the profile is created lazily when an
// identity first syncs.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	ProjectName  string     `json:"project_name"`
	Active       bool       `json:"active"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// CreateUserRequest is the admin provisioning payload.
type CreateUserRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	ProjectName string `json:"project_name"`
}

// Validate checks the provisioning request.
func (r *CreateUserRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return ErrMissingEmail
	}
	if len(r.Password) < 8 {
		return ErrWeakPassword
	}
	switch r.Role {
	case RoleAdmin, RoleCaller:
	case "":
		r.Role = RoleCaller
	default:
		return ErrInvalidRole
	}
	return nil
}

// EmailLocalPart returns the part of an email address before the @, used as
// a display-name fallback.
func EmailLocalPart(email string) string {
	if idx := strings.Index(email, "@"); idx > 0 {
		return email[:idx]
	}
	return ""
}
