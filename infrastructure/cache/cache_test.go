package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"socialhub/domain/model"
)

func TestCredentialCache(t *testing.T) {
	c := NewCredentialCache()

	_, ok := c.Get("u1", model.PlatformTikTok)
	require.False(t, ok)

	c.Set("u1", model.TikTokCredentials{AccessToken: "a", OpenID: "o"})
	got, ok := c.Get("u1", model.PlatformTikTok)
	require.True(t, ok)
	require.Equal(t, "a", got.(model.TikTokCredentials).AccessToken)

	_, ok = c.Get("u2", model.PlatformTikTok)
	require.False(t, ok)

	c.Delete("u1", model.PlatformTikTok)
	_, ok = c.Get("u1", model.PlatformTikTok)
	require.False(t, ok)
}

func TestCredentialCache_Concurrent(t *testing.T) {
	c := NewCredentialCache()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Set("u", model.InstagramCredentials{AccessToken: "t"})
		}()
		go func() {
			defer wg.Done()
			c.Get("u", model.PlatformInstagram)
		}()
	}
	wg.Wait()
	_, ok := c.Get("u", model.PlatformInstagram)
	assert.True(t, ok)
}

func TestMemoryPendingState_TakeOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryPendingState()
	require.NoError(t, s.Put(ctx, "k", "v", time.Minute))

	v, ok, err := s.Peek(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", v)

	v, ok, err = s.Take(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", v)

	_, ok, err = s.Take(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryPendingState_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryPendingState()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, "short", "1", time.Minute))
	require.NoError(t, s.Put(ctx, "forever", "2", 0))

	now = now.Add(2 * time.Minute)
	_, ok, _ := s.Peek(ctx, "short")
	require.False(t, ok)
	_, ok, _ = s.Peek(ctx, "forever")
	require.True(t, ok)

	require.Equal(t, 1, s.Sweep())
	require.Len(t, s.entries, 1)
}

func TestNewRedisPendingState(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	assert.NotNil(t, NewRedisPendingState(client))
}

func TestRedisResult(t *testing.T) {
	_, ok, err := result("", redis.Nil)
	require.NoError(t, err)
	require.False(t, ok)

	v, ok, err := result("x", nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "x", v)

	_, _, err = result("", assert.AnError)
	require.ErrorIs(t, err, assert.AnError)
}
