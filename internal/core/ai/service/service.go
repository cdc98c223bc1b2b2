package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"recipe-pipeline/internal/core/ai/cache"
	"recipe-pipeline/internal/core/image"
	openrouter "recipe-pipeline/internal/core/service"
	"recipe-pipeline/internal/infrastructure/config"
	"recipe-pipeline/internal/pkg/common"
)

// Response AI 回應結構
type Response struct {
	Content string
}

// Service AI 服務
// 統一入口：prompt 正規化、快取、OpenRouter 調用。
type Service struct {
	config       *config.Config
	openRouter   *openrouter.OpenRouterService
	cacheManager *cache.CacheManager
	imageSvc     *image.Service
	mu           sync.Mutex
	lastRequest  time.Time
}

// NewService 創建 AI 服務
func NewService(cfg *config.Config, cacheManager *cache.CacheManager) (*Service, error) {
	// 創建 OpenRouter 服務
	openRouter := openrouter.NewOpenRouterService(cfg)

	// 創建圖片處理服務
	imageSvc := image.NewService(cfg.Image.MaxSizeBytes)

	return &Service{
		config:       cfg,
		openRouter:   openRouter,
		cacheManager: cacheManager,
		imageSvc:     imageSvc,
	}, nil
}

// Available AI 協作者是否可用
// 管線的其餘部分不判斷「AI 有沒有設定」，只判斷「有沒有拿到結果」。
func (s *Service) Available() bool {
	return s.openRouter.Enabled()
}

// ProcessRequest 統一對外方法
func (s *Service) ProcessRequest(ctx context.Context, prompt string, imageData string) (*Response, error) {
	if !s.Available() {
		return nil, common.ErrAIUnavailable
	}

	if err := s.checkRequestRate(); err != nil {
		return nil, err
	}

	// 統一 prompt 格式，去除多餘空白，確保快取 key 一致
	prompt = strings.TrimSpace(prompt)
	prompt = strings.Join(strings.Fields(prompt), " ")

	var processedImageData string
	if imageData != "" {
		var err error
		processedImageData, err = s.imageSvc.ProcessImage(imageData)
		if err != nil {
			return nil, fmt.Errorf("failed to process image: %w", err)
		}
	}

	// 檢查緩存
	if s.config.Cache.Enabled && s.cacheManager != nil {
		if val, err := s.cacheManager.Get(ctx, prompt, processedImageData); err == nil && val != "" {
			return &Response{Content: val}, nil
		}
	}

	start := time.Now()
	content, err := s.openRouter.GenerateResponse(ctx, prompt, processedImageData)
	common.LogAICall("chat", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	response := &Response{Content: content}

	if s.config.Cache.Enabled && s.cacheManager != nil {
		_ = s.cacheManager.Set(ctx, prompt, processedImageData, content)
	}

	return response, nil
}

// checkRequestRate 檢查請求頻率
func (s *Service) checkRequestRate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if s.config.RateLimit.Enabled && now.Sub(s.lastRequest) < s.config.RateLimit.Window {
		return errors.New("request rate limit exceeded")
	}

	s.lastRequest = now
	return nil
}
