package rtne

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRevealTTL = 12 * time.Hour

// RevealTracker remembers which prospects a user has revealed phone numbers
// for without yet recording a disposition. Entries expire so an abandoned
// session cannot lock a user out forever.
type RevealTracker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRevealTracker(client *redis.Client, ttl time.Duration) *RevealTracker {
	if ttl <= 0 {
		ttl = defaultRevealTTL
	}
	return &RevealTracker{client: client, ttl: ttl}
}

func revealKey(userID string, prospectID int64) string {
	return fmt.Sprintf("rtne:pending:%s:%d", userID, prospectID)
}

// MarkRevealed records that the user has seen these phone numbers and owes a
// disposition before the next search.
func (t *RevealTracker) MarkRevealed(ctx context.Context, userID string, prospectID int64, phones ...string) error {
	payload, err := json.Marshal(phones)
	if err != nil {
		return fmt.Errorf("rtne: encode reveal payload: %w", err)
	}
	if err := t.client.Set(ctx, revealKey(userID, prospectID), payload, t.ttl).Err(); err != nil {
		return fmt.Errorf("rtne: mark revealed: %w", err)
	}
	return nil
}

// HasPending reports whether the user has any reveal awaiting a disposition.
func (t *RevealTracker) HasPending(ctx context.Context, userID string) (bool, error) {
	keys, err := t.client.Keys(ctx, fmt.Sprintf("rtne:pending:%s:*", userID)).Result()
	if err != nil {
		return false, fmt.Errorf("rtne: pending lookup: %w", err)
	}
	return len(keys) > 0, nil
}

// Clear removes the pending marker. Implements the disposition flow's
// reveal-clearing dependency.
func (t *RevealTracker) Clear(ctx context.Context, userID string, prospectID int64) error {
	if err := t.client.Del(ctx, revealKey(userID, prospectID)).Err(); err != nil {
		return fmt.Errorf("rtne: clear pending: %w", err)
	}
	return nil
}
