package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"recipe-pipeline/internal/infrastructure/config"
	"recipe-pipeline/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

// OpenRouterService OpenRouter 服務
type OpenRouterService struct {
	config *config.Config
	client *resty.Client
}

// NewOpenRouterService 創建 OpenRouter 服務
func NewOpenRouterService(cfg *config.Config) *OpenRouterService {
	client := resty.New().
		SetBaseURL("https://openrouter.ai/api/v1").
		SetTimeout(cfg.OpenRouter.Timeout).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.OpenRouter.APIKey)).
		SetHeader("HTTP-Referer", "https://recipe-pipeline.local").
		SetHeader("X-Title", "Recipe Pipeline")

	return &OpenRouterService{
		config: cfg,
		client: client,
	}
}

// Enabled 是否已設定可用
func (s *OpenRouterService) Enabled() bool {
	return s.config.OpenRouter.Enabled && s.config.OpenRouter.APIKey != ""
}

// GenerateResponse 生成回應
func (s *OpenRouterService) GenerateResponse(ctx context.Context, prompt string, imageData string) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("openrouter is not configured")
	}

	// 簡化 prompt：去除前後空白、連續空白合併為一格
	simplePrompt := strings.TrimSpace(prompt)
	simplePrompt = strings.Join(strings.Fields(simplePrompt), " ")

	msgContent := []common.Content{
		{Type: "text", Text: simplePrompt},
	}
	if imageData != "" {
		url := imageData
		if !strings.HasPrefix(imageData, "data:image/") {
			url = fmt.Sprintf("data:image/jpeg;base64,%s", imageData)
		}
		msgContent = append(msgContent, common.Content{
			Type:     "image_url",
			ImageURL: &common.ImageURL{URL: url},
		})
	}

	// 構建請求
	req := map[string]interface{}{
		"model": s.config.OpenRouter.Model,
		"messages": []common.Message{
			{Role: "user", Content: msgContent},
		},
		"max_tokens": s.config.OpenRouter.MaxTokens,
	}

	// 發送請求
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")

	if err != nil {
		return "", fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("OpenRouter API returned error: %s", resp.String())
	}

	// 解析回應
	var result common.AIResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenRouter response")
	}

	return result.Choices[0].Message.Content, nil
}
