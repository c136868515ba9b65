package rtne

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTracker(t *testing.T) (*RevealTracker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRevealTracker(client, time.Hour), mr
}

func TestRevealLifecycle(t *testing.T) {
	tracker, _ := newTracker(t)
	ctx := context.Background()

	pending, err := tracker.HasPending(ctx, "agent-1")
	require.NoError(t, err)
	assert.False(t, pending)

	require.NoError(t, tracker.MarkRevealed(ctx, "agent-1", 42, "+1 555 0100", "+1 555 0101"))

	pending, err = tracker.HasPending(ctx, "agent-1")
	require.NoError(t, err)
	assert.True(t, pending)

	// Another user is unaffected.
	pending, err = tracker.HasPending(ctx, "agent-2")
	require.NoError(t, err)
	assert.False(t, pending)

	require.NoError(t, tracker.Clear(ctx, "agent-1", 42))
	pending, err = tracker.HasPending(ctx, "agent-1")
	require.NoError(t, err)
	assert.False(t, pending)
}

func TestRevealClearIsScopedToProspect(t *testing.T) {
	tracker, _ := newTracker(t)
	ctx := context.Background()

	require.NoError(t, tracker.MarkRevealed(ctx, "agent-1", 42, "+1 555 0100"))
	require.NoError(t, tracker.MarkRevealed(ctx, "agent-1", 43, "+1 555 0200"))

	require.NoError(t, tracker.Clear(ctx, "agent-1", 42))
	pending, err := tracker.HasPending(ctx, "agent-1")
	require.NoError(t, err)
	assert.True(t, pending, "the other prospect's reveal is still pending")
}

func TestRevealExpires(t *testing.T) {
	tracker, mr := newTracker(t)
	ctx := context.Background()

	require.NoError(t, tracker.MarkRevealed(ctx, "agent-1", 42, "+1 555 0100"))
	mr.FastForward(2 * time.Hour)

	pending, err := tracker.HasPending(ctx, "agent-1")
	require.NoError(t, err)
	assert.False(t, pending, "abandoned reveals expire")
}
