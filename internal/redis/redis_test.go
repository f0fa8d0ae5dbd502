package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reunion/internal/events"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestTokenBlacklist(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	bl := NewRedisTokenBlacklist(client)

	revoked, err := bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Add(ctx, "jti-1", time.Now().Add(time.Minute)))
	revoked, err = bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists(blacklistKeyPrefix+"jti-1"))

	// entries expire together with the token
	mr.FastForward(2 * time.Minute)
	revoked, err = bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Add(ctx, "jti-old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists(blacklistKeyPrefix+"jti-old"))
}

func TestTokenBlacklistUnavailable(t *testing.T) {
	mr, client := newTestClient(t)
	mr.Close()

	_, err := NewRedisTokenBlacklist(client).IsBlacklisted(context.Background(), "jti")
	assert.Error(t, err)
}

func TestNotificationStore(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	store := NewRedisNotificationStore(client, 3)

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Push(ctx, 7, events.Notification{
			EventID:    string(rune('a' + i)),
			Type:       events.FriendRequestCreated,
			FromUserID: uint(i),
		}))
	}

	all, err := store.List(ctx, 7, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, uint(5), all[0].FromUserID)
	assert.Equal(t, uint(3), all[2].FromUserID)

	two, err := store.List(ctx, 7, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)

	none, err := store.List(ctx, 8, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
