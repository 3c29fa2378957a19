package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	chatHistoryPrefix = "chat:history:"

	defaultChatHistoryLimit = 20
	defaultChatHistoryTTL   = time.Hour
	// 进程内实现清理过期会话的最小间隔
	chatHistorySweepInterval = time.Minute
)

// chatHistoryBounds 非正数的条数与过期时间回落到默认值，会话历史始终有上限
func chatHistoryBounds(limit int, ttl time.Duration) (int, time.Duration) {
	if limit <= 0 {
		limit = defaultChatHistoryLimit
	}
	if ttl <= 0 {
		ttl = defaultChatHistoryTTL
	}
	return limit, ttl
}

// RedisChatHistory 每个会话一个列表，新消息在表头，LTRIM 保留最近 limit 条
type RedisChatHistory struct {
	rdb   *redis.Client
	limit int
	ttl   time.Duration
}

func NewRedisChatHistory(rdb *redis.Client, limit int, ttl time.Duration) *RedisChatHistory {
	limit, ttl = chatHistoryBounds(limit, ttl)
	return &RedisChatHistory{rdb: rdb, limit: limit, ttl: ttl}
}

// Load 按时间正序返回
func (h *RedisChatHistory) Load(ctx context.Context, sessionID string) ([]ChatMessage, error) {
	raw, err := h.rdb.LRange(ctx, chatHistoryPrefix+sessionID, 0, int64(h.limit-1)).Result()
	if err != nil {
		return nil, err
	}
	msgs := make([]ChatMessage, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var m ChatMessage
		if err := json.Unmarshal([]byte(raw[i]), &m); err != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (h *RedisChatHistory) Append(ctx context.Context, sessionID string, msgs ...ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	key := chatHistoryPrefix + sessionID
	values := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		b, err := json.Marshal(m)
		if err != nil {
			return err
		}
		values = append(values, b)
	}

	pipe := h.rdb.TxPipeline()
	pipe.LPush(ctx, key, values...)
	pipe.LTrim(ctx, key, 0, int64(h.limit-1))
	pipe.Expire(ctx, key, h.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (h *RedisChatHistory) Clear(ctx context.Context, sessionID string) error {
	return h.rdb.Del(ctx, chatHistoryPrefix+sessionID).Err()
}

// MemoryChatHistory Redis 不可用时的进程内实现，语义相同
type MemoryChatHistory struct {
	mu       sync.Mutex
	limit    int
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*memorySession
	swept    time.Time
}

type memorySession struct {
	msgs    []ChatMessage
	expires time.Time
}

func NewMemoryChatHistory(limit int, ttl time.Duration) *MemoryChatHistory {
	limit, ttl = chatHistoryBounds(limit, ttl)
	return &MemoryChatHistory{limit: limit, ttl: ttl, now: time.Now, sessions: map[string]*memorySession{}}
}

// sweep 删除所有已过期会话，调用方持有锁
func (h *MemoryChatHistory) sweep() {
	now := h.now()
	if now.Sub(h.swept) < chatHistorySweepInterval {
		return
	}
	h.swept = now
	for id, s := range h.sessions {
		if now.After(s.expires) {
			delete(h.sessions, id)
		}
	}
}

func (h *MemoryChatHistory) get(sessionID string) *memorySession {
	s, ok := h.sessions[sessionID]
	if !ok {
		return nil
	}
	if h.now().After(s.expires) {
		delete(h.sessions, sessionID)
		return nil
	}
	return s
}

func (h *MemoryChatHistory) Load(ctx context.Context, sessionID string) ([]ChatMessage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.get(sessionID)
	if s == nil {
		return []ChatMessage{}, nil
	}
	return append([]ChatMessage(nil), s.msgs...), nil
}

func (h *MemoryChatHistory) Append(ctx context.Context, sessionID string, msgs ...ChatMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sweep()
	s := h.get(sessionID)
	if s == nil {
		s = &memorySession{}
		h.sessions[sessionID] = s
	}
	s.msgs = append(s.msgs, msgs...)
	if over := len(s.msgs) - h.limit; over > 0 {
		s.msgs = append([]ChatMessage(nil), s.msgs[over:]...)
	}
	s.expires = h.now().Add(h.ttl)
	return nil
}

func (h *MemoryChatHistory) Clear(ctx context.Context, sessionID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, sessionID)
	return nil
}
