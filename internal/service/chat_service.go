package service

import (
	"context"
	"learnhire_backend/internal/util"
	"learnhire_backend/pkg/logger"
	"learnhire_backend/pkg/monitoring"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

const chatSystemPrompt = "You are a helpful assistant for an online learning and job platform. " +
	"Answer in one or two short lines. Do not use markdown formatting."

var emphasis = regexp.MustCompile(`\*+([^*]*)\*+`)

// ChatService 会话隔离的问答，历史按会话ID保存
type ChatService struct {
	AI      ChatCompleter
	History ChatHistory
}

func NewChatService(ai ChatCompleter, history ChatHistory) *ChatService {
	return &ChatService{AI: ai, History: history}
}

func (s *ChatService) Chat(ctx context.Context, sessionID, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", util.MissingFields("message")
	}
	if sessionID == "" {
		return "", util.MissingFields("sessionId")
	}

	history, err := s.History.Load(ctx, sessionID)
	if err != nil {
		logger.Log.Warn("load chat history failed", zap.String("session", sessionID), zap.Error(err))
		history = nil
	}

	messages := make([]ChatMessage, 0, len(history)+2)
	messages = append(messages, ChatMessage{Role: "system", Content: chatSystemPrompt})
	messages = append(messages, history...)
	messages = append(messages, ChatMessage{Role: "user", Content: message})

	reply, err := s.AI.Complete(ctx, messages)
	if err != nil {
		monitoring.ChatCompletions.WithLabelValues("error").Inc()
		return "", util.WrapProvider("chat", err)
	}
	monitoring.ChatCompletions.WithLabelValues("ok").Inc()
	reply = CleanReply(reply)

	if err := s.History.Append(ctx, sessionID,
		ChatMessage{Role: "user", Content: message},
		ChatMessage{Role: "assistant", Content: reply},
	); err != nil {
		logger.Log.Warn("save chat history failed", zap.String("session", sessionID), zap.Error(err))
	}
	return reply, nil
}

func (s *ChatService) Reset(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return util.MissingFields("sessionId")
	}
	return s.History.Clear(ctx, sessionID)
}

// CleanReply 去掉 *强调* 标记
func CleanReply(s string) string {
	return strings.TrimSpace(emphasis.ReplaceAllString(s, "$1"))
}
