package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Ayash-Bera/docchat/internal/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCache(client, time.Minute, logrus.New()), mr
}

func TestCache_RoundTrip(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	answer := &models.ChatResponse{Answer: "yes", Sources: []string{"a.pdf"}, Success: true}
	require.NoError(t, cache.CacheAnswer(ctx, "abc", answer))

	assert.True(t, mr.Exists("chat:answer:abc"))
	assert.Equal(t, time.Minute, mr.TTL("chat:answer:abc"))

	got, err := cache.GetCachedAnswer(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, answer, got)
}

func TestCache_Miss(t *testing.T) {
	cache, _ := newTestCache(t)

	_, err := cache.GetCachedAnswer(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCache_Expiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.CacheAnswer(ctx, "k", &models.ChatResponse{Answer: "a", Success: true}))
	mr.FastForward(2 * time.Minute)

	_, err := cache.GetCachedAnswer(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCache_Invalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.CacheAnswer(ctx, "k", &models.ChatResponse{Answer: "a", Success: true}))
	require.NoError(t, cache.InvalidateAnswer(ctx, "k"))

	_, err := cache.GetCachedAnswer(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCache_CorruptEntry(t *testing.T) {
	cache, mr := newTestCache(t)
	require.NoError(t, mr.Set(fmt.Sprintf(ChatAnswerKey, "k"), "{not json"))

	_, err := cache.GetCachedAnswer(context.Background(), "k")
	assert.ErrorIs(t, err, ErrCorruptEntry)
}

func TestCache_NilSourcesBecomeEmpty(t *testing.T) {
	cache, mr := newTestCache(t)
	require.NoError(t, mr.Set("chat:answer:k", `{"answer":"a","sources":null,"success":true}`))

	got, err := cache.GetCachedAnswer(context.Background(), "k")
	require.NoError(t, err)
	assert.NotNil(t, got.Sources)
	assert.Empty(t, got.Sources)
}

func TestManager_NoBackends(t *testing.T) {
	m, err := NewManager(&Config{}, logrus.New())
	require.NoError(t, err)

	assert.Nil(t, m.DB)
	assert.Nil(t, m.Redis)
	assert.NoError(t, m.Migrate())
	assert.Error(t, m.PingDatabase(context.Background()))
	assert.Error(t, m.PingRedis(context.Background()))
	assert.NoError(t, m.Close())
}

func TestManager_RedisOnly(t *testing.T) {
	mr := miniredis.RunT(t)

	m, err := NewManager(&Config{RedisURL: "redis://" + mr.Addr()}, logrus.New())
	require.NoError(t, err)
	defer m.Close()

	require.NotNil(t, m.Redis)
	assert.NoError(t, m.PingRedis(context.Background()))
}
