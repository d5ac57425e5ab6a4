package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrental/internal/db"
)

func newStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return NewStore(client, 30*time.Second), mr
}

func TestAvailableCarsRoundTrip(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	_, ok, err := store.GetAvailableCars(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	cars := []db.Car{{ID: 1, Name: "Toyota Camry", Model: "2024", IsAvailable: true}}
	require.NoError(t, store.SetAvailableCars(ctx, cars))

	got, ok, err := store.GetAvailableCars(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Toyota Camry", got[0].Name)

	mr.FastForward(31 * time.Second)
	_, ok, err = store.GetAvailableCars(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidateCars(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetAvailableCars(ctx, []db.Car{{ID: 1}}))
	require.NoError(t, store.InvalidateCars(ctx))

	_, ok, err := store.GetAvailableCars(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRevokeToken(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Now().Add(10*time.Minute)))
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(11 * time.Minute)
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevokeExpiredTokenIsNoop(t *testing.T) {
	store, mr := newStore(t)
	require.NoError(t, store.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists(revokedKey("old")))
}
