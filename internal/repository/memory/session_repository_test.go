package memory

import (
	"context"
	"testing"
	"time"

	"gitmesh-session-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(id, userID string, ttl time.Duration, lastBeat time.Time) *store.Session {
	return &store.Session{
		ID:              id,
		UserID:          userID,
		CreatedAt:       lastBeat,
		LastHeartbeatAt: lastBeat,
		TTLSeconds:      int64(ttl.Seconds()),
	}
}

func TestSessionRoundTrip(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()

	s := newSession("s1", "u1", time.Hour, time.Now())
	require.NoError(t, repo.Put(ctx, s))

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s, got)

	require.NoError(t, repo.Delete(ctx, "s1"))
	got, err = repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetMissReturnsNil(t *testing.T) {
	repo := NewSessionRepository()
	got, err := repo.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLazyExpiryOnAccess(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()

	stale := newSession("old", "u1", time.Hour, time.Now().Add(-2*time.Hour))
	// Bypass go-cache TTL so only the lazy check can catch it.
	repo.cache.Set(stale.ID, stale, time.Hour)

	got, err := repo.Get(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, got, "expired entry must not be served")
	assert.Equal(t, 0, repo.Len())
}

func TestListFiltersByUser(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, newSession("a", "u1", time.Hour, time.Now())))
	require.NoError(t, repo.Put(ctx, newSession("b", "u1", time.Hour, time.Now())))
	require.NoError(t, repo.Put(ctx, newSession("c", "u2", time.Hour, time.Now())))

	sessions, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
	for _, s := range sessions {
		assert.Equal(t, "u1", s.UserID)
	}
}

func TestDeleteWhere(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, repo.Put(ctx, newSession("recent", "u1", 24*time.Hour, now)))
	require.NoError(t, repo.Put(ctx, newSession("idle", "u1", 24*time.Hour, now.Add(-2*time.Hour))))
	require.NoError(t, repo.Put(ctx, newSession("other", "u2", 24*time.Hour, now.Add(-2*time.Hour))))

	removed, err := repo.DeleteWhere(ctx, "u1", func(s *store.Session) bool {
		return s.Inactive(now, time.Hour)
	})
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, "idle", removed[0].ID)

	// nil predicate removes everything for the user
	removed, err = repo.DeleteWhere(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Len(t, removed, 1)

	left, err := repo.List(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, left, 1, "other user's sessions untouched")
}
