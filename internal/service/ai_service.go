package service

import (
	"context"
	"errors"
	"fmt"
	"learnhire_backend/internal/config"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// AIService OpenAI 兼容的 /chat/completions 客户端
type AIService struct {
	client *resty.Client
	model  string
}

func NewAIService(cfg config.AIConfig) *AIService {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(60 * time.Second)
	return &AIService{client: client, model: cfg.Model}
}

type ChatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (s *AIService) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	var result ChatCompletionResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(ChatCompletionRequest{Model: s.model, Messages: messages}).
		SetResult(&result).
		SetError(&result).
		Post("/chat/completions")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		if result.Error != nil && result.Error.Message != "" {
			return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode(), result.Error.Message)
		}
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode(), resp.String())
	}
	if len(result.Choices) == 0 {
		return "", errors.New("AI returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}
