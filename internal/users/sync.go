package users

import (
	"context"

	"github.com/prashantsingh432/prospect-pulse-searcher/internal/auth"
)

// SyncResult reports the outcome of a best-effort profile sync. Callers log
// it and move on; a failed sync never blocks the primary operation.
type SyncResult struct {
	Created bool
	Err     error
}

// Syncer lazily creates a profile for an authenticated identity and keeps
// last_active fresh. Every authenticated identity is expected to have a
// profile; this is where missing ones appear.
type Syncer struct {
	repo Repository
}

func NewSyncer(repo Repository) *Syncer {
	return &Syncer{repo: repo}
}

// SyncProfile ensures a profile row exists for the session identity.
func (s *Syncer) SyncProfile(ctx context.Context, sess auth.Session) SyncResult {
	if _, err := s.repo.Get(ctx, sess.UserID); err == nil {
		if err := s.repo.TouchLastActive(ctx, sess.UserID); err != nil {
			return SyncResult{Err: err}
		}
		return SyncResult{}
	} else if err != ErrUserNotFound {
		return SyncResult{Err: err}
	}

	name := sess.FullName
	if name == "" {
		name = EmailLocalPart(sess.Email)
	}
	u := &User{
		ID:     sess.UserID,
		Name:   name,
		Email:  sess.Email,
		Role:   RoleCaller,
		Active: true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return SyncResult{Err: err}
	}
	return SyncResult{Created: true}
}
