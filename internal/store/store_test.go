package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breadshare-client/internal/models"
)

func openTestStore(t *testing.T, namespace string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, namespace)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := openTestStore(t, "test")
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", map[string]int{"x": 1}, 0))

	var got map[string]int
	ok, err := s.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]int{"x": 1}, got)

	require.NoError(t, s.Remove(ctx, "k"))
	raw, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestStoreLazyExpiry(t *testing.T) {
	s := openTestStore(t, "test")
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "short", "v", 10*time.Millisecond))
	time.Sleep(25 * time.Millisecond)

	raw, err := s.Get(ctx, "short")
	require.NoError(t, err)
	assert.Nil(t, raw)

	// The expired row must be gone, not just filtered.
	var count int
	require.NoError(t, s.db.Get(&count, `SELECT COUNT(*) FROM kv WHERE key=?`, s.scoped("short")))
	assert.Zero(t, count)
}

func TestStoreUnserializableValueIsNoop(t *testing.T) {
	s := openTestStore(t, "test")
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "bad", make(chan int), 0))

	raw, err := s.Get(ctx, "bad")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestStoreClearScopedToNamespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	a, err := Open(path, "appa")
	require.NoError(t, err)
	defer a.Close()
	b, err := Open(path, "appb")
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	require.NoError(t, a.Set(ctx, "k", "a", 0))
	require.NoError(t, b.Set(ctx, "k", "b", 0))

	require.NoError(t, a.Clear(ctx))

	raw, err := a.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, raw)

	var kept string
	ok, err := b.GetJSON(ctx, "k", &kept)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", kept)
}

func TestSessionAccessors(t *testing.T) {
	s := openTestStore(t, "test")
	ctx := context.Background()

	require.NoError(t, s.SaveToken(ctx, "T", 0))
	require.NoError(t, s.SaveUser(ctx, models.UserRef{ID: "u1", Username: "alice"}))

	token, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "T", token)

	user, err := s.User(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)

	require.NoError(t, s.ClearSession(ctx))

	token, err = s.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
	user, err = s.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestTokenExpired(t *testing.T) {
	s := openTestStore(t, "test")
	ctx := context.Background()

	assert.True(t, s.TokenExpired(ctx), "missing token counts as expired")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	raw, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)
	require.NoError(t, s.SaveToken(ctx, raw, 0))
	assert.True(t, s.TokenExpired(ctx))

	live := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err = live.SignedString([]byte("secret"))
	require.NoError(t, err)
	require.NoError(t, s.SaveToken(ctx, raw, 0))
	assert.False(t, s.TokenExpired(ctx))

	require.NoError(t, s.SaveToken(ctx, "opaque-token", 0))
	assert.False(t, s.TokenExpired(ctx), "opaque tokens carry no readable expiry")
}

func TestSearchHistory(t *testing.T) {
	s := openTestStore(t, "test")
	ctx := context.Background()

	for _, term := range []string{"rye", "sourdough", "rye", "baguette"} {
		require.NoError(t, s.AppendSearchHistory(ctx, term))
	}

	history, err := s.SearchHistory(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"baguette", "rye", "sourdough"}, history)

	for i := 0; i < searchHistoryLimit+5; i++ {
		require.NoError(t, s.AppendSearchHistory(ctx, string(rune('a'+i))))
	}
	history, err = s.SearchHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, history, searchHistoryLimit)
}
