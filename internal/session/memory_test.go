package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore(time.Hour, false)
	t.Cleanup(func() { _ = store.Close() })

	token, err := store.Create(context.Background(), 7, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	sess, err := store.Get(context.Background(), token)
	require.NoError(t, err)
	require.EqualValues(t, 7, sess.UserID)
	require.Equal(t, "alice", sess.Username)
}

func TestMemoryStore_TokensAreUnique(t *testing.T) {
	store := NewMemoryStore(time.Hour, false)
	t.Cleanup(func() { _ = store.Close() })

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		token, err := store.Create(context.Background(), 1, "alice")
		require.NoError(t, err)
		require.Len(t, token, 64)
		require.False(t, seen[token])
		seen[token] = true
	}
}

func TestMemoryStore_UnknownToken(t *testing.T) {
	store := NewMemoryStore(time.Hour, false)
	t.Cleanup(func() { _ = store.Close() })

	_, err := store.Get(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(30*time.Millisecond, false)
	t.Cleanup(func() { _ = store.Close() })

	token, err := store.Create(context.Background(), 1, "alice")
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)
	_, err = store.Get(context.Background(), token)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_SlidingRefresh(t *testing.T) {
	store := NewMemoryStore(80*time.Millisecond, true)
	t.Cleanup(func() { _ = store.Close() })

	token, err := store.Create(context.Background(), 1, "alice")
	require.NoError(t, err)

	// Keep touching the session past the original lifetime.
	for i := 0; i < 4; i++ {
		time.Sleep(40 * time.Millisecond)
		_, err = store.Get(context.Background(), token)
		require.NoError(t, err)
	}
}

func TestMemoryStore_FixedLifetimeDoesNotSlide(t *testing.T) {
	store := NewMemoryStore(80*time.Millisecond, false)
	t.Cleanup(func() { _ = store.Close() })

	token, err := store.Create(context.Background(), 1, "alice")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		time.Sleep(40 * time.Millisecond)
		store.Get(context.Background(), token)
	}
	_, err = store.Get(context.Background(), token)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore(time.Hour, false)
	t.Cleanup(func() { _ = store.Close() })

	token, err := store.Create(context.Background(), 1, "alice")
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), token))
	_, err = store.Get(context.Background(), token)
	require.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent token is not an error.
	require.NoError(t, store.Delete(context.Background(), token))
}

func TestMemoryStore_PurgeExpired(t *testing.T) {
	store := NewMemoryStore(10*time.Millisecond, false)
	t.Cleanup(func() { _ = store.Close() })

	for i := 0; i < 5; i++ {
		_, err := store.Create(context.Background(), int64(i), "user")
		require.NoError(t, err)
	}

	time.Sleep(20 * time.Millisecond)
	store.purgeExpired()

	store.mu.RLock()
	defer store.mu.RUnlock()
	require.Empty(t, store.items)
}
