package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryChatHistory_SweepsAbandonedSessions(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryChatHistory(5, 10*time.Minute)
	clock := time.Now()
	h.now = func() time.Time { return clock }

	require.NoError(t, h.Append(ctx, "guest:a", ChatMessage{Role: "user", Content: "hi"}))
	require.NoError(t, h.Append(ctx, "guest:b", ChatMessage{Role: "user", Content: "hi"}))
	assert.Len(t, h.sessions, 2)

	clock = clock.Add(11 * time.Minute)
	require.NoError(t, h.Append(ctx, "guest:c", ChatMessage{Role: "user", Content: "hi"}))

	assert.Len(t, h.sessions, 1, "sessions never read again are dropped once expired")
	assert.Contains(t, h.sessions, "guest:c")
}

func TestChatHistoryBounds(t *testing.T) {
	limit, ttl := chatHistoryBounds(0, 0)
	assert.Equal(t, defaultChatHistoryLimit, limit)
	assert.Equal(t, defaultChatHistoryTTL, ttl)

	limit, ttl = chatHistoryBounds(-1, -time.Second)
	assert.Equal(t, defaultChatHistoryLimit, limit)
	assert.Equal(t, defaultChatHistoryTTL, ttl)

	limit, ttl = chatHistoryBounds(3, time.Minute)
	assert.Equal(t, 3, limit)
	assert.Equal(t, time.Minute, ttl)

	redis := NewRedisChatHistory(nil, 0, 0)
	assert.Equal(t, defaultChatHistoryLimit, redis.limit)
	assert.Equal(t, defaultChatHistoryTTL, redis.ttl)
}

func TestMemoryChatHistory_NonPositiveLimitIsBounded(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryChatHistory(0, 0)
	for i := 0; i < defaultChatHistoryLimit+5; i++ {
		require.NoError(t, h.Append(ctx, "user:a", ChatMessage{Role: "user", Content: "m"}))
	}
	msgs, err := h.Load(ctx, "user:a")
	require.NoError(t, err)
	assert.Len(t, msgs, defaultChatHistoryLimit)
}
